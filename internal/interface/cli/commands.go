package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   `ask "<question>"`,
		Short: "Ask a smart-contract question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question cannot be empty")
			}
			answer, err := opts.client().Ask(cmd.Context(), question)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.wantsJSON(out) {
				return writeJSON(out, answer)
			}
			fmt.Fprintln(out, answer.Answer)
			fmt.Fprintf(out, "\n[source=%s model=%s tokens=%d]\n", answer.Source, answer.Model, answer.TokensUsed)
			return nil
		},
	}
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := opts.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.wantsJSON(out) {
				return writeJSON(out, health)
			}
			model := "-"
			if health.Model != nil {
				model = *health.Model
			}
			fmt.Fprintf(out, "%s (%s) provider=%s model=%s at %s\n", health.Status, health.Service, health.Provider, model, health.Timestamp)
			return nil
		},
	}
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show service information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := opts.client().Info(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.wantsJSON(out) {
				return writeJSON(out, info)
			}
			fmt.Fprintf(out, "%s v%s\nprovider: %s\nmodel:    %s\nstatus:   %s\n", info.ServiceName, info.Version, info.Provider, info.Model, info.Status)
			return nil
		},
	}
}
