package main

import (
	"context"
	"fmt"
	"time"

	"FIT-CONTRACTS/internal"
	"FIT-CONTRACTS/internal/app"
	"FIT-CONTRACTS/internal/auth"
	"FIT-CONTRACTS/internal/config"
	"FIT-CONTRACTS/internal/services"
	"FIT-CONTRACTS/internal/storage"

	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Upload contracts left in the local fallback directory once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := app.NewObjectStore(ctx, cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("STORAGE_PROVIDER %q has no bucket to sweep to", cfg.Storage.Provider)
			}
			defer store.Close()

			db, err := internal.InitDB(cfg)
			if err != nil {
				return err
			}
			defer internal.CloseDB(db)
			registrations := services.NewRegistrationService(db)

			sweeper := storage.NewFallbackSweeper(store, cfg.Storage.LocalFallbackDir, 0)
			sweeper.OnUploaded = func(ctx context.Context, key, url string) {
				if err := registrations.MarkRemote(ctx, key, url); err != nil {
					fmt.Printf("warning: %s uploaded but not recorded: %v\n", key, err)
				}
			}
			n := sweeper.Sweep(ctx)
			fmt.Printf("%d contracts uploaded from %s\n", n, cfg.Storage.LocalFallbackDir)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var subject, secret string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("ADMIN_JWT_SECRET is not set")
			}
			token, err := auth.GenerateToken(secret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "operator", "Token subject")
	cmd.Flags().StringVar(&secret, "secret", envOr("ADMIN_JWT_SECRET", ""), "Signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
