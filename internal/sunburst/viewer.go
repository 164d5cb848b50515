package sunburst

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Viewer serves a rendered chart over HTTP until its context ends.
type Viewer struct {
	Page   []byte
	Figure []byte
	Log    *zap.Logger
	// Open launches a browser at the viewer URL; nil leaves it to the user.
	Open func(url string)
}

// OpenInBrowser opens url with the system browser.
func OpenInBrowser(url string) { launcher.Open(url) }

// Routes mounts the page at / and the raw figure at /figure.json.
func (v *Viewer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(v.requestLog)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(v.Page)
	})
	r.Get("/figure.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(v.Figure)
	})
	return r
}

func (v *Viewer) requestLog(next http.Handler) http.Handler {
	log := v.Log
	if log == nil {
		log = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug("viewer request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)))
	})
}

// Listen binds addr and returns the listener with the URL it serves.
func Listen(addr string) (net.Listener, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, "http://" + ln.Addr().String() + "/", nil
}

// Serve handles requests on ln, opening url in a browser once serving starts,
// and shuts down gracefully when ctx is done.
func (v *Viewer) Serve(ctx context.Context, ln net.Listener, url string) error {
	srv := &http.Server{Handler: v.Routes(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	if v.Open != nil {
		v.Open(url)
	}

	select {
	case err := <-errc:
		return fmt.Errorf("viewer: %w", err)
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("viewer shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}
