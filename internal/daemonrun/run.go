package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"mediafetch/internal/config"
	"mediafetch/internal/daemon"
	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
	"mediafetch/internal/preflight"
	"mediafetch/internal/services/ytdlp"
	"mediafetch/internal/textutil"
)

// PIDFileName is written to the log directory while the daemon runs.
const PIDFileName = "mediafetch.pid"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Ready, when set, is called once the API server is listening.
	Ready func(addr string)
}

// Run starts the mediafetch daemon and blocks until SIGINT, SIGTERM, or
// cmdCtx is canceled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("mediafetch-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update mediafetch.log link: %v\n", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	if cfg.Fetcher.AutoInstall {
		if err := ytdlp.Install(signalCtx); err != nil {
			logging.WarnWithContext(logger, "yt-dlp install failed", "ytdlp_install_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "install yt-dlp manually or check network access"),
				logging.String(logging.FieldImpact, "downloads will fail until yt-dlp is available"),
			)
		}
	}
	logDependencySnapshot(signalCtx, logger, cfg)

	store, err := jobs.Open(signalCtx, cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}

	fetcher := ytdlp.New(
		ytdlp.WithLogger(logging.NewComponentLogger(logger, "ytdlp")),
		ytdlp.WithProgressInterval(cfg.ProgressInterval()),
	)
	d, err := daemon.New(cfg, store, fetcher, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// Shutdown goes through Stop so workers record the shutdown cause.
	if err := d.Start(context.WithoutCancel(signalCtx)); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the api bind address and work directory lock"),
		)
		return err
	}
	if opts.Ready != nil {
		opts.Ready(d.Addr())
	}

	<-signalCtx.Done()
	logger.Info("mediafetch daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "mediafetch.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg)
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, r := range results {
		attrs = append(attrs, logging.Bool(textutil.SanitizeToken(r.Name)+"_ok", r.Passed))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run mediafetch doctor"),
			logging.String(logging.FieldImpact, "jobs may fail until this is fixed"),
		)
	}
}
