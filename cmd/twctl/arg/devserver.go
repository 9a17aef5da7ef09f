package arg

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

	"github.com/SoarinFerret/TimeoutWarden/internal/devserver"
	"github.com/SoarinFerret/TimeoutWarden/internal/session"
)

const timeoutCookieName = devserver.DefaultTimeoutCookie

var (
	listenAddr string
	csrfToken  string
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local application that issues session timeout cookies",
	Long: `devserver serves /, /extend-session, /logout and /logBackIn, and sets the
session timeout cookie on every response. Point timeoutwardend's base_url at it
to try the warnings without a real application.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		store := session.NewStore(policy)
		srv := &http.Server{
			Addr:              listenAddr,
			Handler:           devserver.New(store, csrfToken, logger).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		logger.Info("dev server listening", "addr", listenAddr,
			"inactivity", policy.InactivityTimeout, "max_length", policy.MaxLength)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	devserverCmd.Flags().StringVar(&listenAddr, "addr", "127.0.0.1:9000", "listen address")
	devserverCmd.Flags().StringVar(&csrfToken, "csrf-token", "", "required csrfToken form value for /extend-session (empty disables the check)")
	policyFlags(devserverCmd)
	rootCmd.AddCommand(devserverCmd)
}
