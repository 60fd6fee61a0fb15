package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
)

// Path is where Serve exposes the registry.
const Path = "/metrics"

const shutdownTimeout = 5 * time.Second

// NewMux returns a mux serving reg at Path in the OpenMetrics format when the
// scraper asks for it.
func NewMux(reg *prom.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}))
	return mux
}

// Serve exposes reg on addr until ctx is done. Listen failures are logged;
// the build keeps running without metrics.
func Serve(ctx context.Context, addr string, reg *prom.Registry) {
	srv := &http.Server{Addr: addr, Handler: NewMux(reg), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("Serving metrics", slog.String("addr", addr), slog.String("path", Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", slog.String("addr", addr), logfields.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
