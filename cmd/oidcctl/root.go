package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-oidc/pkg/config"
)

var BuildVersion = "dev"

type rootOptions struct {
	EnvFile string
	Debug   bool
}

var opts rootOptions

var rootCmd = &cobra.Command{
	Use:   "oidcctl",
	Short: "OIDC token service CLI",
	Long:  "Operational commands for the OIDC token service: schema migrations, purging, claim translation, keys and clients.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if opts.Debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "Optional .env file loaded before reading the environment.")
	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging.")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of oidcctl",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s\n", BuildVersion)
		},
	})
}


func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
