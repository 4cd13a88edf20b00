package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/educanvas/salary-engine/salary"
)

// TenantHeader selects the academy a request acts on.
const TenantHeader = "X-Tenant-ID"

type tenantKey struct{}

// Tenant stores the request's tenant in its context, falling back to
// defaultTenant when the header is absent.
func Tenant(defaultTenant string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
			if tenant == "" {
				tenant = defaultTenant
			}
			ctx := context.WithValue(r.Context(), tenantKey{}, salary.TenantID(tenant))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFrom returns the tenant set by the Tenant middleware.
func TenantFrom(ctx context.Context) salary.TenantID {
	t, _ := ctx.Value(tenantKey{}).(salary.TenantID)
	return t
}

// RequestLogger logs one structured line per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("tenant_id", string(TenantFrom(r.Context()))),
			}
			switch {
			case ww.Status() >= 500:
				logger.Error("request", fields...)
			case ww.Status() >= 400:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}
