package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/TimeoutWarden/internal/config"
	"github.com/SoarinFerret/TimeoutWarden/internal/handler"
	"github.com/SoarinFerret/TimeoutWarden/internal/ipc"
	"github.com/SoarinFerret/TimeoutWarden/internal/loginctl"
	"github.com/SoarinFerret/TimeoutWarden/internal/notify"
	"github.com/SoarinFerret/TimeoutWarden/internal/state"
	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
	"github.com/SoarinFerret/TimeoutWarden/internal/tui"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

const watchDebounce = 200 * time.Millisecond

func main() {
	// check for argument to determine config location
	argPath := config.DefaultPath
	if len(os.Args) > 1 {
		argPath = os.Args[1]
	}
	cfg, err := config.LoadConfigFromFile(argPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	// the terminal belongs to the program in tui mode
	var logOut io.Writer = os.Stderr
	if cfg.Presenter == "tui" {
		f, err := os.OpenFile(filepath.Join(os.TempDir(), "timeoutwarden.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to open log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))
	slog.SetDefault(logger)
	logger.Info("using config file", "path", argPath)

	if err := run(cfg, logger); err != nil {
		logger.Error("timeoutwarden failed", "err", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stateMgr, err := state.NewManager(cfg.StateFile, cfg.StaleAfter.Std())
	if err != nil {
		return fmt.Errorf("failed to initialize state manager: %w", err)
	}

	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	var wg sync.WaitGroup
	var h *handler.Handler
	dispatch := func(c warning.Click) { h.HandleClick(ctx, c) }

	var (
		surfaces = make(map[warning.Kind]warning.Surface, len(warning.Kinds))
		toaster  warning.Toaster
		bridge   *tui.Bridge
		program  *tea.Program
		notifier *notify.Notifier
	)
	switch cfg.Presenter {
	case "dbus":
		notifier, err = notify.Connect("TimeoutWarden", logger)
		if err != nil {
			return err
		}
		defer notifier.Close()
		for _, k := range warning.Kinds {
			surfaces[k] = notifier.Modal(k, warning.DefaultText(k))
		}
		toaster = notifier
	case "tui":
		program = tea.NewProgram(tui.NewModel(dispatch), tea.WithContext(ctx))
		bridge = tui.NewBridge(program)
		for _, k := range warning.Kinds {
			surfaces[k] = bridge.Surface(k)
		}
		toaster = bridge
	default:
		for _, k := range warning.Kinds {
			surfaces[k] = warning.LogSurface{Kind: k, Logger: logger}
		}
		toaster = warning.LogToaster{Logger: logger}
	}

	h, err = handler.New(handler.Options{
		Reader: &timeout.Reader{
			Lookup:         src.lookup,
			CookieName:     cfg.CookieName,
			SkewCorrection: *cfg.ClockSkew,
			Logger:         logger,
		},
		Presenter:    warning.NewPresenter(stateMgr, surfaces, logger),
		Toaster:      toaster,
		Extender:     src.extender,
		Navigator:    src.navigator,
		Session:      stateMgr,
		LogoutURL:    cfg.Resolve(cfg.Endpoints.Logout),
		PollInterval: cfg.PollInterval.Std(),
		Messages: handler.Messages{
			ExtendedSuccess: cfg.Messages.ExtendedSuccess,
			ExtendedError:   cfg.Messages.ExtendedError,
			ToastDuration:   cfg.Messages.ToastDuration.Std(),
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if program != nil {
		h.Subscribe(func(handler.Event) { bridge.Status(h.Status()) })
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := program.Run(); err != nil && ctx.Err() == nil {
				logger.Error("terminal ui error", "err", err)
			}
			// quitting the ui stops the daemon
			cancel()
		}()
	}

	if notifier != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := notifier.Watch(ctx, dispatch); err != nil {
				logger.Error("notification watcher error", "err", err)
			}
		}()
	}

	if src.watchPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("watching cookie file", "path", src.watchPath)
			if err := timeout.WatchFile(ctx, src.watchPath, watchDebounce, h.Trigger); err != nil {
				logger.Error("cookie file watcher error", "err", err)
			}
		}()
	}

	// control service on the session bus
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			logger.Warn("control service unavailable", "err", err)
			return
		}
		defer conn.Close()
		if err := ipc.Serve(ctx, conn, h); err != nil {
			logger.Warn("control service error", "err", err)
		}
	}()

	// resume and unlock re-poll right away
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			logger.Warn("logind watcher unavailable", "err", err)
			return
		}
		defer conn.Close()
		onWake := func(loginctl.Wake) { h.Trigger() }
		if err := loginctl.Watch(ctx, conn, uint32(os.Getuid()), onWake, logger); err != nil {
			logger.Warn("logind watcher error", "err", err)
		}
	}()

	err = h.Run(ctx)
	select {
	case <-h.Done():
		logger.Info("session ended", "log_back_in", cfg.Resolve(cfg.Endpoints.LogBackIn))
		if bridge != nil {
			// leave the ended screen up until the user quits
			bridge.Ended()
			wg.Wait()
			return err
		}
	default:
	}
	cancel()
	wg.Wait()
	return err
}
