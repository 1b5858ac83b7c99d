package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-oidc/pkg/config"
	"github.com/tendant/simple-oidc/pkg/wellknown"
)

func init() {
	var baseURL string
	discoveryCmd := &cobra.Command{
		Use:   "discovery",
		Short: "Print the OpenID provider metadata document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.EnvFile)
			if err != nil {
				return err
			}
			catalog, translator, err := loadTranslation(cfg.OIDC)
			if err != nil {
				return err
			}

			meta := wellknown.NewProviderMetadata(wellknown.Config{
				Issuer:  cfg.OIDC.Issuer,
				BaseURL: baseURL,
			}, catalog, translator)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		},
	}
	discoveryCmd.Flags().StringVar(&baseURL, "base-url", "", "Prefix of the endpoint URLs. Defaults to the issuer.")
	rootCmd.AddCommand(discoveryCmd)
}
