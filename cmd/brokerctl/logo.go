package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"brokerscope/internal/storage"
	"brokerscope/internal/store"
)

func logoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logo",
		Short: "Manage broker logos",
	}
	cmd.AddCommand(logoSetCmd(a), logoUploadCmd(a))
	return cmd
}

// checkLogoURL accepts absolute http(s) URLs only.
func checkLogoURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("logo URL %q must be an absolute http or https URL", raw)
	}
	return nil
}

// setLogo points the broker at logoURL and records the change.
func (a *app) setLogo(cmd *cobra.Command, slug, logoURL string) error {
	ctx := cmd.Context()
	found, err := store.NewBrokerStore(a.db).SetLogo(ctx, slug, logoURL)
	mlog := a.maintenanceLog()
	switch {
	case err != nil:
		mlog.Log(ctx, "logo", slug, "failure", err.Error())
		return err
	case !found:
		mlog.Log(ctx, "logo", slug, "failure", "not found")
		return fmt.Errorf("no broker with slug %q", slug)
	}
	mlog.Log(ctx, "logo", slug, "success", "")
	a.invalidateCache(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "%s logo set to %s\n", slug, logoURL)
	return nil
}

func logoSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <slug> <url>",
		Short: "Point a broker at an already hosted logo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkLogoURL(args[1]); err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			return a.setLogo(cmd, args[0], args[1])
		},
	}
}

func logoUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <slug> <file>",
		Short: "Upload a logo to object storage and point the broker at it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug, path := args[0], args[1]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open logo: %w", err)
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat logo: %w", err)
			}

			if err := a.open(); err != nil {
				return err
			}
			cfg := a.cfg
			client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("object storage is not configured (S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY)")
			}

			logoURL, err := client.UploadLogo(cmd.Context(), slug, filepath.Base(path), f, info.Size())
			if err != nil {
				return err
			}
			return a.setLogo(cmd, slug, logoURL)
		},
	}
}
