package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fleetglass/fleetglass/internal/api"
	"github.com/fleetglass/fleetglass/internal/config"
	"github.com/fleetglass/fleetglass/internal/store"
	"github.com/fleetglass/fleetglass/internal/watcher"
	"github.com/fleetglass/fleetglass/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional; env and defaults apply without it)")
	uiDir := flag.String("ui-dir", "", "serve the web UI static files from this directory (e.g. ui/dist); leave empty to disable")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	opts := &slog.HandlerOptions{Level: cfg.Server.Log.SlogLevel()}
	var handler slog.Handler
	if cfg.Server.Log.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("fleetglass-server starting",
		"addr", cfg.Server.Addr(),
		"telemetry_path", cfg.Server.TelemetryPath,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clock := clockwork.NewRealClock()

	// Snapshot store with background age-gauge refresh.
	st := store.New(clock)
	go st.Run(ctx)

	// Telemetry file watcher — the only writer to the store.
	w, err := watcher.New(cfg.Server.TelemetryPath, st, clock)
	if err != nil {
		slog.Error("failed to create watcher", "err", err)
		os.Exit(1)
	}
	go w.Run(ctx)

	// HTTP server: REST API, push endpoint and Prometheus metrics on one port.
	mux := http.NewServeMux()
	mux.Handle("/api/", api.New(st, w.Path(), clock))
	mux.Handle("/ws", ws.New(st, clock))
	mux.Handle("/metrics", promhttp.Handler())

	// Optional: serve the pre-built web UI from a local directory.
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			// SPA fallback: if the requested file doesn't exist, serve index.html.
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("fleetglass-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
