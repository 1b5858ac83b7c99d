package main

import "github.com/spf13/cobra"

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired authorization codes and tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			service, err := rt.Service(ctx)
			if err != nil {
				return err
			}
			result, err := service.RemoveExpired(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d authorization code(s), %d access token(s), %d refresh token(s)\n",
				result.AuthCodes, result.AccessTokens, result.RefreshTokens)
			return nil
		},
	})
}
