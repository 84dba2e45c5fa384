package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bahjat/formfill/internal/platform/middleware"
	"github.com/Bahjat/formfill/internal/workbench"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	port      string
	outputDir string
	clipboard bool
	src       sourceFlags
}

func newServeCmd(a *app) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inspect and generate actions over HTTP",
		Long: `serve starts the HTTP workbench used by the browser extension panel.
The panel posts SELECTED_DOM_CONTENT messages to /messages and drives
inspect, generate, checkbox, apply and export actions per session.

POST /sessions/{id}/export?destination=file saves the last generated CSV
into --output-dir; destination=clipboard needs --clipboard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = f.port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              net.JoinHostPort("", a.cfg.Port),
				Handler:           a.handler(f),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      90 * time.Second,
				IdleTimeout:       2 * time.Minute,
			}
			return serve(cmd.Context(), srv, a)
		},
	}
	cmd.Flags().StringVarP(&f.port, "port", "p", "", "listen port (env PORT)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "enable the file export destination in this directory")
	cmd.Flags().BoolVar(&f.clipboard, "clipboard", false, "enable the clipboard export destination on this host")
	cmd.Flags().BoolVar(&f.src.browser, "browser", false, "capture pages with headless Chrome")
	cmd.Flags().DurationVar(&f.src.timeout, "timeout", 0, "per-page capture timeout (env CAPTURE_TIMEOUT)")
	return cmd
}

// handler wires the workbench routes behind the request-id and access-log
// middleware.
func (a *app) handler(f *serveFlags) http.Handler {
	exporters := map[workbench.Destination]workbench.Exporter{}
	if f.outputDir != "" {
		exporters[workbench.DestinationFile] = workbench.FileExporter{Dir: f.outputDir}
	}
	if f.clipboard {
		exporters[workbench.DestinationClipboard] = a.clipboardExporter()
	}
	svc := workbench.NewService(workbench.NewStore(a.cfg.MaxSessions), a.gen, a.logger, workbench.Settings{
		MaxRecords: a.cfg.MaxRecords,
		Sanitize:   a.cfg.Sanitize,
		Capturer:   a.capturerFor(&f.src),
		Exporters:  exporters,
	})

	mux := http.NewServeMux()
	workbench.NewTransport(svc, a.logger).RegisterRoutes(mux)
	return middleware.Chain(mux, middleware.RequestID, middleware.Logging(a.logger))
}

// serve runs srv until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, a *app) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
