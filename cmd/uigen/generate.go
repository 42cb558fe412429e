package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lexcodex/uigen/workflow"
)

func newGenerateCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "generate [query...]",
		Short: "Run one generation turn from the command line",
		Long: `Runs a single generation turn and prints the resulting TSX to stdout.
Pass --session to continue refining a previous session; without it a fresh
session id is minted and printed to stderr so the turn can be continued later.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := buildServices(cfg)
			if err != nil {
				return err
			}
			defer svcs.Close()

			if sessionID == "" {
				sessionID = uuid.NewString()
				fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", sessionID)
			}
			query := strings.Join(args, " ")

			code, err := svcs.orchestrator.Run(cmd.Context(), sessionID, query)
			var exhausted *workflow.BudgetExhaustedError
			if errors.As(err, &exhausted) {
				// Print the best candidate anyway; the exit status still
				// reports the failure.
				fmt.Fprintln(cmd.OutOrStdout(), exhausted.Artifact)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to continue")
	return cmd
}
