// Command cli is the operational companion to the server: create links,
// inspect stats, purge expired rows and export the link table, all straight
// against the database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/snaplink/snaplink/pkg/adapters/repository/sqlite"
	"github.com/snaplink/snaplink/pkg/cache"
	"github.com/snaplink/snaplink/pkg/config"
	"github.com/snaplink/snaplink/pkg/core/services"
	"github.com/snaplink/snaplink/pkg/shortcode"
)

func main() {
	root := &cobra.Command{
		Use:           "snaplink",
		Short:         "snaplink administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(createCmd(), statsCmd(), purgeCmd(), exportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openRepo() (*config.Config, *sqlite.Repository, error) {
	cfg := config.Load()
	repo, err := sqlite.New(cfg.DatabaseURL)
	return cfg, repo, err
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <url>",
		Short: "Shorten a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			svc := services.NewLinkService(
				repo,
				shortcode.NewGenerator(repo),
				cache.New[string, string](cfg.CacheCapacity, cfg.CacheTTL),
				cache.New[string, string](cfg.CacheCapacity, cfg.CacheTTL),
				logger,
			)

			link, err := svc.Shorten(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			fmt.Printf("%s/%s\n", cfg.BaseURL, link.Code)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <code>",
		Short: "Show stats for a short code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			link, err := repo.GetByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("code:       %s\n", link.Code)
			fmt.Printf("long url:   %s\n", link.LongURL)
			fmt.Printf("clicks:     %d\n", link.Clicks)
			fmt.Printf("created at: %s\n", link.CreatedAt.Format(time.RFC3339))
			if link.Owner != "" {
				fmt.Printf("owner:      %s\n", link.Owner)
			}
			return nil
		},
	}
}

func purgeCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete links older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := repo.DeleteExpired(cmd.Context(), time.Now().UTC().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Printf("purged %d link(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "age threshold for deletion")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Dump all links as JSON to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			links, err := repo.Dump(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(links)
		},
	}
}
