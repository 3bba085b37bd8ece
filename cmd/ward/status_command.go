package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ward/internal/daemon"
	"ward/internal/hostbridge"
	"ward/internal/preflight"
)

type statusView struct {
	DataDir     string             `json:"data_dir"`
	Daemon      *daemon.Status     `json:"daemon"`
	DaemonError string             `json:"daemon_error,omitempty"`
	Checks      []preflight.Result `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and environment status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			view := statusView{
				DataDir: cfg.Paths.DataDir,
				Checks:  preflight.RunAll(cmd.Context(), cfg),
			}
			if client, err := ctx.bridgeClient(); err != nil {
				view.DaemonError = err.Error()
			} else if status, err := fetchDaemonStatus(cmd, client); err != nil {
				if !errors.Is(err, hostbridge.ErrUnavailable) {
					view.DaemonError = err.Error()
				}
			} else {
				view.Daemon = status
			}

			if asJSON {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string
			lines = append(lines, renderSectionHeader("Daemon", colorize)...)
			if view.DaemonError != "" {
				lines = append(lines, renderStatusLine("Daemon", statusError, view.DaemonError, colorize))
			} else {
				lines = append(lines, daemonLines(view.Daemon, colorize)...)
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			lines = append(lines, preflightLines(view.Checks, colorize)...)
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func fetchDaemonStatus(cmd *cobra.Command, client *hostbridge.Client) (*daemon.Status, error) {
	raw, err := client.Status(cmd.Context())
	if err != nil {
		return nil, err
	}
	var status daemon.Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode daemon status: %w", err)
	}
	return &status, nil
}
