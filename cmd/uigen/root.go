package main

import (
	"github.com/spf13/cobra"

	"github.com/lexcodex/uigen/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "uigen",
		Short:         "Catalog-constrained UI code generation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "Path to config file")

	root.AddCommand(
		newServeCmd(),
		newGenerateCmd(),
		newIndexCmd(),
		newDoctorCmd(),
	)
	return root
}
