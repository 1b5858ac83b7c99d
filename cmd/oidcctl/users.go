package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/user"
)

func init() {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the attribute sets of authenticated users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var attrsFile string
	importCmd := &cobra.Command{
		Use:   "import <user-id>",
		Short: "Store or replace the attributes of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := readAttributes(attrsFile)
			if err != nil {
				return err
			}
			u, err := user.New(args[0], attrs)
			if err != nil {
				return err
			}

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
			return upsertUser(ctx, rt.users, u)
		},
	}
	importCmd.Flags().StringVar(&attrsFile, "attrs", "", "JSON file with the identity attributes.")
	_ = importCmd.MarkFlagRequired("attrs")
	usersCmd.AddCommand(importCmd)

	rootCmd.AddCommand(usersCmd)
}

func upsertUser(ctx context.Context, repo user.Repository, u *user.User) error {
	if _, err := repo.FindByID(ctx, u.ID); err != nil {
		if errors.IsNotFound(err) {
			return repo.Add(ctx, u)
		}
		return err
	}
	return repo.Update(ctx, u)
}
