package httputil

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/arbitros/designaciones/pkg/observability"
)

type holderKey struct{}

// entryHolder lets inner middleware enrich the entry the access log is written with
type entryHolder struct {
	entry *logrus.Entry
}

func withEntryHolder(ctx context.Context, h *entryHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// AddLogFields attaches fields to the request logger, including the final
// access log line. It returns the request with the enriched logger.
func AddLogFields(r *http.Request, fields logrus.Fields) *http.Request {
	entry := observability.LoggerFrom(r.Context()).WithFields(fields)
	if h, ok := r.Context().Value(holderKey{}).(*entryHolder); ok {
		h.entry = h.entry.WithFields(fields)
	}
	return r.WithContext(observability.WithLogger(r.Context(), entry))
}
