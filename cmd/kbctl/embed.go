package main

import (
	"context"
	"fmt"

	"github.com/hafidzyami/CivilConstructionApp-sub000/app"
	"github.com/hafidzyami/CivilConstructionApp-sub000/ingest"

	"github.com/spf13/cobra"
)

var (
	embedAll       bool
	embedWorkerCnt int
)

// embedCmd represents the embed command
var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Recompute article embeddings already in the graph",
	Long: `Embed fills in missing Article embeddings, for example after an ingestion
ran without a model or hit quota errors. With --all every embedding is
recomputed, which is needed after switching the embedding model.`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().BoolVar(&embedAll, "all", false, "recompute every embedding, not only missing ones")
	embedCmd.Flags().IntVar(&embedWorkerCnt, "workers", ingest.DefaultEmbedConcurrency, "concurrent embedding requests")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	provider := app.InitLLM(ctx, cfg.LLM)
	if provider == nil {
		return ingest.ErrNoEmbedder
	}

	graph, err := app.InitGraph(ctx, cfg.Neo4j)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	loader := ingest.NewLoader(graph, ingest.LoaderWithEmbedder(provider), ingest.LoaderWithConcurrency(embedWorkerCnt))
	embedded, failed, err := loader.Reembed(ctx, !embedAll)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Embedded %d articles, %d failed\n", embedded, failed)
	if failed > 0 {
		fmt.Println("  Run kbctl embed again to retry the failed articles")
	}
	return nil
}
