package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/critjwt/jwt"
	"github.com/critjwt/jwt/metrics"
)

// maxTokenBytes bounds the request body of /verify.
const maxTokenBytes = 64 << 10

func newServeCommand(a *app) *cobra.Command {
	var critical []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve token verification over HTTP",
		Long: `Start an HTTP server that verifies tokens with the configured algorithms and key.

  POST /verify   token in the body or as "Authorization: Bearer <token>";
                 200 with the result when valid, 401 when invalid
  GET  /metrics  Prometheus metrics (jwt_verify_total, jwt_verify_duration_seconds)
  GET  /health   liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd, critical)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	cmd.Flags().StringArrayVar(&critical, "crit", nil, "Accept this critical header extension (repeatable)")
	_ = a.v.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, critical []string) error {
	template, err := a.verifyRequest(critical)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector()
	reg.MustRegister(
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	verifier := jwt.NewVerifier(jwt.WithLogger(a.log), jwt.WithObserver(collector))

	server := &http.Server{
		Addr:              a.cfg.Serve.Addr,
		Handler:           newServeMux(verifier, template, reg, a.log),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("verification server starting", "addr", server.Addr, "alg", strings.Join(a.cfg.Algorithms, ","))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down verification server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err = <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newServeMux(verifier *jwt.Verifier, template jwt.VerifyRequest, g prometheus.Gatherer, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /verify", verifyHandler(verifier, template, log))
	mux.Handle("GET /metrics", metrics.Handler(g))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux
}

func verifyHandler(verifier *jwt.Verifier, template jwt.VerifyRequest, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := tokenFromRequest(r)
		if err != nil {
			log.Debug("bad verify request", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		req := template
		req.Token = token
		result := verifier.Verify(r.Context(), req)

		status := http.StatusOK
		if !result.IsValid() {
			status = http.StatusUnauthorized
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err = printJSON(w, verifyOutput{Valid: result.IsValid(), Result: result}); err != nil {
			log.Error("writing verify response", "error", err)
		}
	})
}

func tokenFromRequest(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", errors.New("authorization header must use the Bearer scheme")
		}
		return strings.TrimSpace(token), nil
	}

	b, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	if len(b) > maxTokenBytes {
		return "", errors.New("token too large")
	}

	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", errors.New("no token in the request")
	}
	return token, nil
}
