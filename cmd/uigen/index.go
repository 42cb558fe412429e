package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/uigen/retriever"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build the documentation vector index",
		Long: `Walks the configured documentation directory, embeds every supported
file, and persists the vector index. Run this whenever the documentation
corpus changes; the serve path only reads the index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cfg.NewLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			index, err := retriever.OpenIndex(cfg.Docs.IndexPath, embeddingFunc(cfg), logger)
			if err != nil {
				return err
			}
			n, err := index.BuildFromDir(cmd.Context(), cfg.Docs.Dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents from %s into %s\n",
				n, cfg.Docs.Dir, cfg.Docs.IndexPath)
			return nil
		},
	}
}
