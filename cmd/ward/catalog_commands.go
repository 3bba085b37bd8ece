package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ward/internal/catalog"
	"ward/internal/retry"
	"ward/internal/store"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Remote AI-artist catalog",
	}

	catalogCmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Download the catalog and cache it in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(ctx, func(c *catalog.Catalog) error {
				res, err := c.Refresh(cmd.Context())
				if err != nil {
					return fmt.Errorf("refresh catalog: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Catalog holds %d artists (%s, %d bytes)\n", res.Count, res.Shape, res.Bytes)
				if !res.Changed {
					fmt.Fprintln(out, "Cached copy was already current")
				}
				return nil
			})
		},
	})

	catalogCmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Show how many artists the cached catalog holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(ctx, func(c *catalog.Catalog) error {
				n, err := c.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n)
				return nil
			})
		},
	})

	return catalogCmd
}

func withCatalog(ctx *commandContext, fn func(*catalog.Catalog) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Catalog.Enabled {
		return errors.New("catalog disabled; set catalog.enabled = true")
	}
	return ctx.withStore(func(st *store.Store) error {
		c := catalog.New(catalog.Options{
			URL:     cfg.Catalog.URL,
			Timeout: cfg.CatalogRequestTimeout(),
			Retry:   retry.DefaultPolicy(),
		}, st, ctx.logger())
		return fn(c)
	})
}
