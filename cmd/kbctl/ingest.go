package main

import (
	"context"
	"fmt"

	"github.com/hafidzyami/CivilConstructionApp-sub000/app"
	"github.com/hafidzyami/CivilConstructionApp-sub000/ingest"
	"github.com/hafidzyami/CivilConstructionApp-sub000/storage"

	"github.com/spf13/cobra"
)

var (
	nationalFiles  []string
	regionalFiles  []string
	fromStorage    bool
	skipEmbeddings bool
	embedWorkers   int
	validateOnly   bool
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load regulation documents into the knowledge graph",
	Long: `Ingest validates the documents as one corpus, then merges regulations,
provisions and CONTAINS/MENTIONS/RELATED_TO edges, and recomputes article embeddings.
Nothing is written when validation fails.

Example:
  kbctl ingest --national building_act.json --regional seoul.json
  kbctl ingest --from-storage --workers 8`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringSliceVar(&nationalFiles, "national", nil, "national regulation document JSON files")
	ingestCmd.Flags().StringSliceVar(&regionalFiles, "regional", nil, "regional ordinance document JSON files")
	ingestCmd.Flags().BoolVar(&fromStorage, "from-storage", false, "ingest every document under corpus/ in storage")
	ingestCmd.Flags().BoolVar(&skipEmbeddings, "skip-embeddings", false, "do not recompute article embeddings")
	ingestCmd.Flags().IntVar(&embedWorkers, "workers", ingest.DefaultEmbedConcurrency, "concurrent embedding requests")
	ingestCmd.Flags().BoolVar(&validateOnly, "validate-only", false, "check the corpus without writing")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	docs, err := collectDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents given: use --national/--regional or --from-storage")
	}

	if err := ingest.Validate(docs...); err != nil {
		return err
	}
	if validateOnly {
		fmt.Printf("✓ %d documents are consistent\n", len(docs))
		return nil
	}

	graph, err := app.InitGraph(ctx, cfg.Neo4j)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	opts := []ingest.LoaderOption{ingest.LoaderWithConcurrency(embedWorkers)}
	if !skipEmbeddings {
		if embedder := app.InitLLM(ctx, cfg.LLM); embedder != nil {
			opts = append(opts, ingest.LoaderWithEmbedder(embedder))
		}
	}

	stats, err := ingest.NewLoader(graph, opts...).Load(ctx, docs...)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Ingested %d regulations, %d provisions in %s\n", stats.Regulations, stats.Provisions, stats.Duration)
	fmt.Printf("  CONTAINS: %d, MENTIONS: %d, RELATED_TO: %d\n", stats.Contains, stats.Mentions, stats.RelatedTo)
	if stats.EmbeddingsSkipped {
		fmt.Println("  Embeddings skipped; similarity search will return stale or no results")
	} else {
		fmt.Printf("  Embedded: %d, failed: %d\n", stats.Embedded, stats.EmbedFailures)
	}
	return nil
}

func collectDocuments(ctx context.Context) ([]*ingest.RegulationDocument, error) {
	var docs []*ingest.RegulationDocument

	if fromStorage {
		store, err := storage.NewStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		stored, err := ingest.LoadCorpus(ctx, store)
		if err != nil {
			return nil, err
		}
		docs = append(docs, stored...)
	}

	for _, group := range []struct {
		files    []string
		regional bool
	}{{nationalFiles, false}, {regionalFiles, true}} {
		for _, path := range group.files {
			doc, err := ingest.ReadDocumentFile(path)
			if err != nil {
				return nil, err
			}
			if doc.IsRegional() != group.regional {
				return nil, fmt.Errorf("%s: document level %q does not match the flag it was passed with", path, doc.Level)
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
