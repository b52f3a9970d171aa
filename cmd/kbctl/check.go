package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hafidzyami/CivilConstructionApp-sub000/app"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"

	"github.com/spf13/cobra"
)

var (
	metricsFile  string
	checkJSON    bool
	checkTimeout time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <projectId>",
	Short: "Run a compliance check for a project",
	Long: `Check evaluates the project's stored metrics (or the metrics in --metrics)
against the building rules, stores the result and prints the verdict.

Example:
  kbctl check p-1024
  kbctl check p-1024 --metrics metrics.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&metricsFile, "metrics", "", "project metrics JSON to evaluate and store")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the full result as JSON")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	projectID := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	graph, err := app.InitGraph(ctx, cfg.Neo4j)
	if err != nil {
		return err
	}
	defer graph.Close(context.Background())

	db, err := app.InitPostgres(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	defer db.Close()

	provider := app.InitLLM(ctx, cfg.LLM)
	compliance := app.NewComplianceService(db, app.NewKnowledgeRepository(cfg, graph), provider)

	var result *models.ComplianceResult
	if metricsFile != "" {
		data, err := os.ReadFile(metricsFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", metricsFile, err)
		}
		var metrics models.ProjectMetrics
		if err := json.Unmarshal(data, &metrics); err != nil {
			return fmt.Errorf("failed to parse %s: %w", metricsFile, err)
		}
		metrics.ProjectID = projectID
		result, err = compliance.EvaluateMetrics(ctx, &metrics)
		if err != nil {
			return err
		}
	} else {
		result, err = compliance.CheckCompliance(ctx, projectID)
		if err != nil {
			return err
		}
	}

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Project %s: %s (score %d)\n\n", result.ProjectID, result.Status, result.Score)
	for _, c := range result.Checks {
		fmt.Printf("  [%s] %s: %s\n", c.Status, c.Name, c.Message)
	}
	fmt.Printf("\n%s\n", result.Summary)
	if len(result.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range result.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
	return nil
}
