package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gematik/sell-oauth/pkg"
	"github.com/gematik/sell-oauth/pkg/config"
	"github.com/gematik/sell-oauth/pkg/oauth2"
	"github.com/gematik/sell-oauth/pkg/sessionstore"
	"github.com/gematik/sell-oauth/pkg/webclient"
	"github.com/gorilla/sessions"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/valkey-io/valkey-go"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	oauth2Client, err := oauth2.NewClient(cfg.OAuth2())
	if err != nil {
		return err
	}

	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.LogTokens {
		slog.Warn("Token values are logged in clear, set LOG_TOKENS=false to mask them")
	}

	cl, err := webclient.New(
		oauth2Client,
		webclient.WithSessionStore(store),
		webclient.WithTokenLogging(cfg.LogTokens),
	)
	if err != nil {
		return err
	}

	e := webclient.NewEcho(cl, pkg.Version)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting sell-oauth", "addr", cfg.ListenAddr(), "version", pkg.Version, "session_store", cfg.SessionStore)
		slog.Info(fmt.Sprintf("Server is running on http://localhost:%d", cfg.Port))
		errCh <- e.Start(cfg.ListenAddr())
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newSessionStore(cfg *config.Config) (sessions.Store, func(), error) {
	key, err := cfg.SessionKey()
	if err != nil {
		return nil, nil, err
	}
	if key == nil {
		slog.Warn("SESSION_SECRET not set, using a random key; sessions will not survive a restart")
		key = sessionstore.GenerateRandomKey(256)
	}

	var backend sessionstore.Store
	closeFn := func() {}

	switch cfg.SessionStore {
	case config.SessionStoreValkey:
		valkeyClient, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: cfg.ValkeyAddrs(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating valkey client: %w", err)
		}
		backend = sessionstore.NewValkeyStore(valkeyClient, sessionstore.ValkeyOptions{})
		closeFn = valkeyClient.Close
		slog.Info("Using valkey session store", "addrs", strings.Join(cfg.ValkeyAddrs(), ","))
	default:
		backend = sessionstore.NewMemoryStore()
	}

	store, err := sessionstore.NewServerStore(backend, key, &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   strings.HasPrefix(cfg.RedirectURI, "https://"),
		// Lax, the callback arrives as a cross-site top-level navigation
		SameSite: http.SameSiteLaxMode,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return store, closeFn, nil
}
