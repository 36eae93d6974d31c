// Package logging provides structured logging utilities with context propagation.
//
// It wraps log/slog with the helpers used across the widget: JSON or text
// output selected by configuration, request ID propagation and a logger
// carried on the context. The HTTP stack installs a request-scoped logger
// once per request; handlers pick it up with FromContext.
//
// Example usage:
//
//	logger := logging.New(logging.Options{Format: "json", Level: "info"})
//	logger.Info("application started", slog.String("version", version))
//
//	func (c *Controller) FetchQuote(w http.ResponseWriter, r *http.Request) {
//	    logging.FromContext(r.Context()).Debug("quote lookup finished")
//	}
package logging
