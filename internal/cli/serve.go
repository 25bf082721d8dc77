package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmkelly/issuebot/internal/config"
	"github.com/tmkelly/issuebot/internal/engine"
	"github.com/tmkelly/issuebot/internal/metrics"
	"github.com/tmkelly/issuebot/internal/notify"
	"github.com/tmkelly/issuebot/internal/search"
	"github.com/tmkelly/issuebot/internal/store"
	"github.com/tmkelly/issuebot/internal/webhook"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ListenAddr string
	Database   string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Long: `Run the issuebot webhook server.

The server receives issue webhook events on /webhook, persists them to
a SQLite database (creating it if it doesn't exist), and triggers the
automated reply workflow on reply-label transitions. Prometheus metrics
are exposed on /metrics.

Example:
  issuebot serve --db ./issuebot.db
  issuebot serve --config /etc/issuebot.yaml --listen :9090 --verbose`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ListenAddr, "listen", "", "HTTP bind address (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	return cmd
}

func runServer(cmd *cobra.Command, opts *ServeOptions) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.ListenAddr != "" {
		cfg.ListenAddr = opts.ListenAddr
	}
	if opts.Database != "" {
		cfg.DatabasePath = opts.Database
	}

	slog.Info("opening database", "path", cfg.DatabasePath)
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	webhookHandler, m, err := buildHandler(cmd.Context(), cfg, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build handler", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/webhook", webhook.NewServer(webhookHandler, cfg.WebhookSecret))
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM. Use the command's context
	// when present (tests), otherwise background.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("webhook server listening",
			"addr", cfg.ListenAddr,
			"reply_label", cfg.ReplyLabel,
			"search", cfg.SearchEnabled(),
			"commenting", cfg.CommentingEnabled(),
		)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server error", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitFailure, "shutdown error", err)
		}
	}

	slog.Info("server stopped gracefully")
	return nil
}

// buildHandler wires the reconciler and its collaborators from config.
// This is the composition root; nothing here is a global.
func buildHandler(ctx context.Context, cfg *config.Config, st *store.Store) (*webhook.Handler, *metrics.Metrics, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Resume the delivery log clock from the last persisted seq.
	lastSeq, err := st.MaxDeliverySeq(ctx)
	if err != nil {
		return nil, nil, err
	}

	m := metrics.New()
	recon := engine.NewReconciler(st, cfg.ReplyLabel, slog.Default())

	handlerOpts := []webhook.Option{
		webhook.WithDeliveryLog(st, engine.NewClockAt(lastSeq), engine.UUIDv7Generator{}),
		webhook.WithMetrics(m),
		webhook.WithLogger(slog.Default()),
	}

	if cfg.SearchEnabled() {
		client := search.NewClient(cfg.Search.URL, time.Duration(cfg.Search.TimeoutSeconds)*time.Second)
		handlerOpts = append(handlerOpts, webhook.WithSearch(client, cfg.Search.LimitPerField))
	}

	if cfg.CommentingEnabled() {
		notifier := notify.NewGitHubNotifier(cfg.GitHub.APIURL, cfg.GitHub.Token, 0)
		handlerOpts = append(handlerOpts, webhook.WithNotifier(notifier))
	}

	return webhook.NewHandler(recon, handlerOpts...), m, nil
}
