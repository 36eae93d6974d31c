// Package main provides a CLI that prints a stock quote and the finance news digest.
// Usage: glance [-config path] [-output text|json] [-news=false] SYMBOL
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"market-glance/internal/config"
	"market-glance/internal/domain/entity"
	"market-glance/internal/handler/http/respond"
	"market-glance/internal/infra/provider/alphavantage"
	"market-glance/internal/infra/provider/newsapi"
	"market-glance/internal/observability/logging"
	"market-glance/internal/usecase/news"
	"market-glance/internal/usecase/quote"
)

// FailureOutput is the JSON form of a classified failure.
type FailureOutput struct {
	Kind    entity.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// Output is the JSON document printed with -output json.
type Output struct {
	Quote      *entity.Quote    `json:"quote,omitempty"`
	QuoteError *FailureOutput   `json:"quote_error,omitempty"`
	News       []entity.Article `json:"news,omitempty"`
	NewsError  *FailureOutput   `json:"news_error,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("glance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("GLANCE_CONFIG"), "path to a YAML or TOML config file")
	outputFormat := fs.String("output", "text", "Output format: text or json")
	withNews := fs.Bool("news", true, "Also fetch the news digest")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	symbol := fs.Arg(0)
	if symbol == "" && !*withNews {
		fmt.Fprintln(stderr, "Error: a stock symbol is required when -news=false")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Usage: glance [-config path] [-output text|json] [-news=false] SYMBOL")
		return 2
	}
	if *outputFormat != "text" && *outputFormat != "json" {
		fmt.Fprintf(stderr, "Error: unknown output format %q\n", *outputFormat)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger := logging.New(logging.Options{Format: "text", Level: cfg.Logging.Level, Output: stderr})
	respond.RegisterSecrets(cfg.Secrets()...)

	out, err := fetch(ctx, cfg, logger, symbol, *withNews)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", respond.SanitizeError(err))
		return 1
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		printText(stdout, out, cfg.News.DateLayout)
	}

	if out.QuoteError != nil || out.NewsError != nil {
		return 1
	}
	return 0
}

// fetch runs the quote lookup and the news digest concurrently. Both always
// complete; a failure of one never cancels the other.
func fetch(ctx context.Context, cfg *config.Config, logger *slog.Logger, symbol string, withNews bool) (Output, error) {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout.Duration + 5*time.Second}

	var out Output
	var g errgroup.Group

	if symbol != "" {
		avClient, err := alphavantage.New(cfg.AlphaVantage.BaseURL, cfg.AlphaVantage.APIKey, httpClient, logger)
		if err != nil {
			return Output{}, err
		}
		svc := quote.NewService(avClient, nil, nil, cfg.QuoteService(), logger)
		g.Go(func() error {
			q, err := svc.Resolve(ctx, symbol)
			if err != nil {
				out.QuoteError = failureOutput(err)
				return nil
			}
			out.Quote = q
			return nil
		})
	}

	if withNews {
		newsClient, err := newsapi.New(cfg.NewsAPI.BaseURL, cfg.NewsAPI.APIKey, httpClient, logger)
		if err != nil {
			return Output{}, err
		}
		svc := news.NewService(newsClient, nil, cfg.NewsService(), logger)
		g.Go(func() error {
			d, err := svc.Resolve(ctx)
			if err != nil {
				out.NewsError = failureOutput(err)
				return nil
			}
			out.News = d.Articles
			return nil
		})
	}

	return out, g.Wait()
}

func failureOutput(err error) *FailureOutput {
	var f *entity.Failure
	if errors.As(err, &f) {
		return &FailureOutput{Kind: f.Kind, Message: respond.SanitizeString(f.Message)}
	}
	return &FailureOutput{Kind: entity.KindTransport, Message: respond.SanitizeError(err)}
}

func printText(w io.Writer, out Output, dateLayout string) {
	switch {
	case out.Quote != nil:
		fmt.Fprintf(w, "%s  %s  (%s)\n", out.Quote.Symbol, out.Quote.Price, out.Quote.ObservedAt)
	case out.QuoteError != nil:
		fmt.Fprintf(w, "quote: %s\n", out.QuoteError.Message)
	}

	if out.NewsError != nil {
		fmt.Fprintf(w, "news: %s\n", out.NewsError.Message)
		return
	}
	if len(out.News) == 0 {
		return
	}
	if out.Quote != nil || out.QuoteError != nil {
		fmt.Fprintln(w)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, a := range out.News {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.PublishedLabel(dateLayout), a.Title, a.URL)
	}
	_ = tw.Flush()
}
