package main

import (
	"context"
	"fmt"

	"github.com/hafidzyami/CivilConstructionApp-sub000/app"
	"github.com/hafidzyami/CivilConstructionApp-sub000/repository"

	"github.com/spf13/cobra"
)

var skipRelational bool

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create graph constraints, indexes and the compliance tables",
	Long: `Schema creates, if missing:
- a uniqueness constraint on id for every node label
- the article_fulltext full-text index
- the article_embedding vector index (cosine, llm.embedding_dimensions)
- the compliance_results and project_metrics tables in Postgres

Every statement is idempotent; running it twice is safe.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolVar(&skipRelational, "skip-relational", false, "only bootstrap the graph")
}

func runSchema(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	graph, err := app.InitGraph(ctx, cfg.Neo4j)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	if err := repository.BootstrapGraphSchema(ctx, graph, cfg.LLM.EmbeddingDimensions); err != nil {
		return err
	}
	fmt.Println("✓ Graph schema ready")

	if skipRelational {
		return nil
	}

	db, err := app.InitPostgres(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	defer db.Close()

	if err := repository.CreateRelationalSchema(ctx, db); err != nil {
		return err
	}
	fmt.Println("✓ Relational schema ready")
	return nil
}
