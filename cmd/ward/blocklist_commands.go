package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ward/internal/blocklist"
)

func newBlockCommand(ctx *commandContext) *cobra.Command {
	blockCmd := &cobra.Command{
		Use:   "block",
		Short: "Add an entry to a blocklist",
	}

	blockCmd.AddCommand(&cobra.Command{
		Use:   "artist <name>",
		Short: "Block an artist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return addEntry(cmd, ctx, blocklist.ListArtists, blocklist.Artist(strings.Join(args, " ")))
		},
	})

	blockCmd.AddCommand(&cobra.Command{
		Use:   "keyword <text>",
		Short: "Block titles containing text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return addEntry(cmd, ctx, blocklist.ListKeywords, blocklist.Keyword(strings.Join(args, " ")))
		},
	})

	var trackArtist string
	trackCmd := &cobra.Command{
		Use:   "track <title>",
		Short: "Block a specific track",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return addEntry(cmd, ctx, blocklist.ListTracks, blocklist.TrackEntry(strings.Join(args, " "), trackArtist))
		},
	}
	trackCmd.Flags().StringVar(&trackArtist, "artist", "", "Only block the title when this artist is credited")
	blockCmd.AddCommand(trackCmd)

	blockCmd.AddCommand(&cobra.Command{
		Use:   "current [artists|tracks]",
		Short: "Block whatever the player is showing right now",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := blocklist.ListArtists
			if len(args) == 1 {
				parsed, err := blocklist.ParseList(args[0])
				if err != nil {
					return err
				}
				list = parsed
			}
			client, err := ctx.bridgeClient()
			if err != nil {
				return err
			}
			resp, err := client.BlockCurrent(cmd.Context(), list)
			if err != nil {
				return wrapBridgeError(err)
			}
			printMutation(cmd, "Blocked", "already blocked", blocklist.List(resp.List), resp.Entry, resp.Added)
			return nil
		},
	})

	return blockCmd
}

func newUnblockCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <list> <entry>",
		Short: "Remove an entry from a blocklist",
		Long: "Remove an entry from a blocklist. Tracks are addressed by their " +
			"list text, for example \"Velvet Sundown - Drift\".",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := blocklist.ParseList(args[0])
			if err != nil {
				return err
			}
			display := strings.Join(args[1:], " ")
			return ctx.withLists(func(lists *blocklist.Lists) error {
				removed, err := lists.Remove(cmd.Context(), list, display)
				if err != nil {
					return err
				}
				printMutation(cmd, "Unblocked", "not found", list, display, removed)
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list [artists|keywords|tracks]",
		Short: "Show blocklist entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := blocklist.AllLists()
			if len(args) == 1 {
				list, err := blocklist.ParseList(args[0])
				if err != nil {
					return err
				}
				targets = []blocklist.List{list}
			}

			return ctx.withLists(func(lists *blocklist.Lists) error {
				view := make(map[blocklist.List][]string, len(targets))
				total := 0
				for _, list := range targets {
					entries, err := lists.List(cmd.Context(), list)
					if err != nil {
						return err
					}
					display := make([]string, 0, len(entries))
					for _, e := range entries {
						display = append(display, e.Display())
					}
					view[list] = display
					total += len(display)
				}

				if asJSON {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				if total == 0 {
					fmt.Fprintln(out, "No blocklist entries")
					return nil
				}
				fmt.Fprintln(out, renderBlocklist(targets, view))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func addEntry(cmd *cobra.Command, ctx *commandContext, list blocklist.List, entry blocklist.Entry) error {
	return ctx.withLists(func(lists *blocklist.Lists) error {
		added, err := lists.Add(cmd.Context(), list, entry)
		if errors.Is(err, blocklist.ErrEmptyEntry) {
			return fmt.Errorf("nothing to block: %w", err)
		}
		if err != nil {
			return err
		}
		clean, _ := entry.Clean()
		printMutation(cmd, "Blocked", "already blocked", list, clean.Display(), added)
		return nil
	})
}

func printMutation(cmd *cobra.Command, verb, noop string, list blocklist.List, display string, changed bool) {
	out := cmd.OutOrStdout()
	if changed {
		fmt.Fprintf(out, "%s %q (%s)\n", verb, display, list)
		return
	}
	fmt.Fprintf(out, "%q %s (%s)\n", display, noop, list)
}
