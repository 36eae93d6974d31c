package news_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"market-glance/internal/domain/entity"
	newsUC "market-glance/internal/usecase/news"
	"market-glance/internal/usecase/outcome"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── スタブ実装 ───────── */

type stubProvider struct {
	mu      sync.Mutex
	queries []newsUC.Query
	body    []byte
	err     error
	block   bool
}

func (p *stubProvider) FetchEverything(ctx context.Context, q newsUC.Query) ([]byte, error) {
	p.mu.Lock()
	p.queries = append(p.queries, q)
	block := p.block
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.body, p.err
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 10, 1, 30, 0, 0, time.UTC)
}

func newService(p newsUC.Provider, cfg newsUC.Config) (*newsUC.Service, *outcome.Tracker[entity.ArticleDigest], func() []entity.Phase) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := outcome.NewTracker[entity.ArticleDigest]("news", logger)

	var (
		mu     sync.Mutex
		phases []entity.Phase
	)
	tracker.Subscribe(func(_ uint64, s entity.OutcomeState[entity.ArticleDigest]) {
		mu.Lock()
		defer mu.Unlock()
		phases = append(phases, s.Phase)
	})
	recorded := func() []entity.Phase {
		mu.Lock()
		defer mu.Unlock()
		return append([]entity.Phase(nil), phases...)
	}

	svc := newsUC.NewService(p, tracker, cfg, logger, newsUC.WithClock(fixedClock))
	return svc, tracker, recorded
}

/* ───────── テストケース ───────── */

func TestLookbackDate(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		days int
		want string
	}{
		{"plain", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), 7, "2024-03-03"},
		{"month boundary", time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), 7, "2024-02-25"},
		{"leap day", time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), 7, "2024-02-29"},
		{"converted to utc", time.Date(2024, 3, 10, 8, 0, 0, 0, time.FixedZone("JST", 9*3600)), 7, "2024-03-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newsUC.LookbackDate(tt.now, tt.days))
		})
	}
}

func TestFetchDigest_Success(t *testing.T) {
	p := &stubProvider{body: []byte(`{"status":"ok","articles":[{"title":"A","url":"https://a"},{"title":"B","url":"https://b"}]}`)}
	svc, tracker, phases := newService(p, newsUC.DefaultConfig())

	digest, err := svc.FetchDigest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, digest.Len())
	require.Len(t, p.queries, 1)
	assert.Equal(t, newsUC.Query{Topic: "finance", From: "2024-03-03", SortBy: "publishedAt"}, p.queries[0])
	assert.Equal(t, []entity.Phase{entity.PhaseLoading, entity.PhaseSuccess}, phases())
	assert.Equal(t, digest, tracker.State().Payload)
}

func TestFetchDigest_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		kind entity.ErrorKind
	}{
		{"no results", `{"status":"ok","articles":[]}`, nil, entity.KindNoResults},
		{"provider error", `{"status":"error","message":"rateLimited"}`, nil, entity.KindNoResults},
		{"transport rejection", "", errors.New("dial tcp: no route to host"), entity.KindTransport},
		{"html body", "<html/>", nil, entity.KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{body: []byte(tt.body), err: tt.err}
			svc, tracker, phases := newService(p, newsUC.DefaultConfig())

			digest, err := svc.FetchDigest(context.Background())

			assert.Zero(t, digest.Len())
			assert.Equal(t, tt.kind, entity.KindOf(err))
			assert.Len(t, p.queries, 1)
			assert.Equal(t, []entity.Phase{entity.PhaseLoading, entity.PhaseFailure}, phases())
			assert.Equal(t, tt.kind, tracker.State().Failure.Kind)
		})
	}
}

func TestFetchDigest_TimeoutIsTransport(t *testing.T) {
	cfg := newsUC.DefaultConfig()
	cfg.Timeout = 10 * time.Millisecond
	svc, tracker, phases := newService(&stubProvider{block: true}, cfg)

	_, err := svc.FetchDigest(context.Background())

	assert.Equal(t, entity.KindTransport, entity.KindOf(err))
	assert.Equal(t, "Could not reach the data provider: request timed out", err.Error())
	assert.Equal(t, []entity.Phase{entity.PhaseLoading, entity.PhaseFailure}, phases())
	assert.True(t, tracker.State().IsFailure())
}

func TestFetchDigest_CustomTopicAndSize(t *testing.T) {
	p := &stubProvider{body: []byte(`{"status":"ok","articles":[{"title":"1"},{"title":"2"},{"title":"3"}]}`)}
	cfg := newsUC.Config{Topic: "earnings", LookbackDays: 1, DigestSize: 2}
	svc, _, _ := newService(p, cfg)

	digest, err := svc.FetchDigest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, digest.Len())
	assert.Equal(t, "earnings", p.queries[0].Topic)
	assert.Equal(t, "2024-03-09", p.queries[0].From)
	assert.Equal(t, entity.DefaultPlaceholders().Description, digest.Articles[0].Description)
}

func TestResolve_DoesNotTouchTracker(t *testing.T) {
	p := &stubProvider{body: []byte(`{"status":"ok","articles":[{"title":"A"}]}`)}
	svc, tracker, _ := newService(p, newsUC.DefaultConfig())

	digest, err := svc.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, digest.Len())
	assert.True(t, tracker.State().IsIdle())
}

func TestNewService_PartialPlaceholdersKeepDefaults(t *testing.T) {
	p := &stubProvider{body: []byte(`{"status":"ok","articles":[{"title":"A","url":"https://a"}]}`)}
	cfg := newsUC.DefaultConfig()
	cfg.Placeholders = entity.Placeholders{Description: "n/a"}
	svc, _, _ := newService(p, cfg)

	digest, err := svc.FetchDigest(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, digest.Len())
	a := digest.Articles[0]
	assert.Equal(t, "n/a", a.Description)
	assert.Equal(t, entity.DefaultPlaceholders().ImageURL, a.ImageURL)
}

func TestBind_ReportsToOwnTracker(t *testing.T) {
	p := &stubProvider{body: []byte(`{"status":"ok","articles":[{"title":"A"}]}`)}
	svc, shared, _ := newService(p, newsUC.DefaultConfig())
	own := outcome.NewTracker[entity.ArticleDigest]("news", slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Bind(own).FetchDigest(context.Background())

	require.NoError(t, err)
	assert.True(t, own.State().IsSuccess())
	assert.True(t, shared.State().IsIdle())
	assert.Same(t, shared, svc.Tracker())
}
