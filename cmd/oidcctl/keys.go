package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-oidc/pkg/config"
	"github.com/tendant/simple-oidc/pkg/tokengenerator"
)

// jwkSet is the body served at the jwks_uri.
type jwkSet struct {
	Keys []tokengenerator.JWK `json:"keys"`
}

func init() {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the token signing key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	keysCmd.AddCommand(&cobra.Command{
		Use:   "jwks",
		Short: "Print the public JWK set of the configured signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.EnvFile)
			if err != nil {
				return err
			}
			signer, err := loadSigner(cfg.JWKS)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(jwkSet{Keys: []tokengenerator.JWK{signer.PublicJWK()}})
		},
	})

	var bits int
	var out string
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new RSA signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := tokengenerator.GenerateRSAKeyPair(bits)
			if err != nil {
				return fmt.Errorf("failed to generate key: %w", err)
			}
			encoded := tokengenerator.EncodePrivateKeyToPEM(key)
			if out == "" {
				cmd.Print(encoded)
				return nil
			}
			if err := os.WriteFile(out, []byte(encoded), 0o600); err != nil {
				return fmt.Errorf("failed to write key: %w", err)
			}
			cmd.Printf("Wrote %d-bit RSA key to %s\n", bits, out)
			return nil
		},
	}
	generateCmd.Flags().IntVar(&bits, "bits", 2048, "RSA key size.")
	generateCmd.Flags().StringVar(&out, "out", "", "Write the PEM to this file instead of stdout.")
	keysCmd.AddCommand(generateCmd)

	rootCmd.AddCommand(keysCmd)
}
