package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/lexcodex/uigen/catalog"
	"github.com/lexcodex/uigen/validator"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the runtime environment",
		Long: `Verifies everything a generation turn depends on: the node toolchain,
the compiler workspace, the component catalog, the documentation index, and
the model API key. Prints one line per problem and exits non-zero when any
check fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var issues []string

			if _, err := exec.LookPath("npm"); err != nil {
				issues = append(issues, "npm not found on PATH")
			}
			if _, err := exec.LookPath("node"); err != nil {
				issues = append(issues, "node not found on PATH")
			}

			if _, err := catalog.Load(cfg.Catalog); err != nil {
				issues = append(issues, fmt.Sprintf("catalog: %v", err))
			}
			if _, err := os.Stat(cfg.Docs.IndexPath); err != nil {
				issues = append(issues, fmt.Sprintf("documentation index missing at %s (run `uigen index`)", cfg.Docs.IndexPath))
			}
			if cfg.APIKey() == "" {
				issues = append(issues, fmt.Sprintf("model API key not set (export %s)", cfg.Model.APIKeyEnv))
			}

			// Setting up a real workspace exercises npm install and tsc
			// resolution end to end.
			val, err := validator.New(validator.Config{
				BaseDir: cfg.Workspace.BaseDir,
				Manifest: validator.Manifest{
					UILibrary: cfg.Workspace.UILibrary,
					UIVersion: cfg.Workspace.UIVersion,
				},
				SkipInstall: cfg.Workspace.SkipInstall,
			}, nil)
			if err != nil {
				issues = append(issues, fmt.Sprintf("compiler workspace: %v", err))
			} else {
				issues = append(issues, val.CheckEnvironment()...)
			}

			if len(issues) == 0 {
				fmt.Fprintln(out, "environment OK")
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintf(out, "problem: %s\n", issue)
			}
			return fmt.Errorf("%d problem(s) found", len(issues))
		},
	}
}
