package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-oidc/pkg/oauth2client"
	"github.com/tendant/simple-oidc/pkg/scope"
)

func withClientService(cmd *cobra.Command, fn func(ctx context.Context, svc *oauth2client.ClientService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.OAuth2Client.IsConfigured() {
		return errMissingEncryptionKey
	}
	ctx := cmd.Context()
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, oauth2client.NewClientService(rt.clients))
}

func init() {
	clientsCmd := &cobra.Command{
		Use:   "clients",
		Short: "Register and manage OAuth2 clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var params oauth2client.CreateClientParams
	var scopes string
	createCmd := &cobra.Command{
		Use:   "create <client-id>",
		Short: "Register a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.ID = args[0]
			params.Scopes = scope.Split(scopes)
			return withClientService(cmd, func(ctx context.Context, svc *oauth2client.ClientService) error {
				client, secret, err := svc.CreateClient(ctx, params)
				if err != nil {
					return err
				}
				cmd.Printf("client_id: %s\n", client.ID)
				if secret != "" {
					cmd.Printf("client_secret: %s\n", secret)
				}
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&params.Name, "name", "", "Display name.")
	createCmd.Flags().StringVar(&params.Description, "description", "", "Description.")
	createCmd.Flags().StringSliceVar(&params.RedirectURIs, "redirect-uri", nil, "Registered redirect URI (repeatable).")
	createCmd.Flags().StringVar(&scopes, "scopes", "openid", "Space separated scopes the client may request.")
	createCmd.Flags().BoolVar(&params.Confidential, "confidential", true, "Whether the client authenticates with a secret.")
	createCmd.Flags().StringVar(&params.ClientSecret, "secret", "", "Client secret; generated when empty.")
	createCmd.Flags().StringVar(&params.Owner, "owner", "", "Owner of the client.")
	clientsCmd.AddCommand(createCmd)

	clientsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClientService(cmd, func(ctx context.Context, svc *oauth2client.ClientService) error {
				clients, err := svc.ListClients(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCONFIDENTIAL\tENABLED\tSCOPES")
				for _, c := range clients {
					fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n", c.ID, c.Name, c.Confidential, c.Enabled, scope.Join(c.Scopes))
				}
				return w.Flush()
			})
		},
	})

	clientsCmd.AddCommand(&cobra.Command{
		Use:   "rotate-secret <client-id>",
		Short: "Generate a new secret for a confidential client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClientService(cmd, func(ctx context.Context, svc *oauth2client.ClientService) error {
				secret, err := svc.RotateSecret(ctx, args[0])
				if err != nil {
					return err
				}
				cmd.Printf("client_secret: %s\n", secret)
				return nil
			})
		},
	})

	for _, enabled := range []bool{true, false} {
		enabled := enabled
		use, short := "enable <client-id>", "Allow a client to obtain tokens"
		if !enabled {
			use, short = "disable <client-id>", "Stop a client from obtaining tokens"
		}
		clientsCmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClientService(cmd, func(ctx context.Context, svc *oauth2client.ClientService) error {
					return svc.SetEnabled(ctx, args[0], enabled)
				})
			},
		})
	}

	rootCmd.AddCommand(clientsCmd)
}
