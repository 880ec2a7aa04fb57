package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gematik/sell-oauth/pkg/config"
	"github.com/joho/godotenv"
	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose = false

var (
	rootCmd = &cobra.Command{
		Use:           "sell-oauth",
		Short:         "OAuth2 authorization code client for the Zendesk Sell API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// a missing .env is fine, the environment may be set otherwise
			godotenv.Load()

			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			}
			if os.Getenv("PRETTY_LOGS") != "false" {
				logger := slog.New(
					console.NewHandler(os.Stderr, &console.HandlerOptions{Level: logLevel}),
				)
				slog.SetDefault(logger)
			} else {
				logger := slog.New(
					slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}),
				)
				slog.SetDefault(logger)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.CheckErr(config.BindEnv(viper.GetViper()))

	persistentFlags := rootCmd.PersistentFlags()
	persistentFlags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	persistentFlags.StringP("config-file", "f", "", "optional yaml config file")
	persistentFlags.IntP("port", "p", 5000, "port to listen on (env PORT)")
	viper.BindPFlag("config_file", persistentFlags.Lookup("config-file"))
	viper.BindPFlag("port", persistentFlags.Lookup("port"))
}
