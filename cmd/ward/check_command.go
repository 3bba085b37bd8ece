package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ward/internal/blocklist"
	"ward/internal/match"
	"ward/internal/player"
	"ward/internal/store"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var title, artistLine string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a title and artist line against the blocklists",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				values, err := st.Get(cmd.Context(), blocklist.StorageKeys()...)
				if err != nil {
					return fmt.Errorf("read blocklists: %w", err)
				}
				snap := blocklist.RebuildFromValues(values, time.Now())
				now := player.NowPlaying{Title: title, ArtistLine: artistLine}
				verdict := match.Decide(now, snap, match.Policy{ShortEntryThreshold: cfg.Matching.ShortEntryThreshold})

				if asJSON {
					return writeJSON(cmd, map[string]any{
						"blocked": verdict.Matched,
						"tier":    verdict.Tier.String(),
						"rule":    verdict.Rule,
					})
				}
				out := cmd.OutOrStdout()
				if !verdict.Matched {
					fmt.Fprintln(out, "Allowed")
					return nil
				}
				fmt.Fprintf(out, "Blocked by %s rule %q\n", verdict.Tier, verdict.Rule)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Track title")
	cmd.Flags().StringVar(&artistLine, "artist", "", "Artist line as the player shows it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("artist")
	return cmd
}
