package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hafidzyami/CivilConstructionApp-sub000/app"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
	"github.com/hafidzyami/CivilConstructionApp-sub000/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	askMode    string
	askTimeout time.Duration
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the regulation assistant a question",
	Long: `Ask runs one question through intent classification, the retrieval
fallback chain and answer composition, then prints the answer with its sources.

Example:
  kbctl ask "What does Article 55 say about building coverage?"
  kbctl ask "setback rules for residential zones" --mode similarity`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askMode, "mode", "auto", "search mode (auto, similarity, synthesized-query)")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	mode, err := models.ParseSearchMode(askMode)
	if err != nil {
		return err
	}

	graph, err := app.InitGraph(ctx, cfg.Neo4j)
	if err != nil {
		return err
	}
	defer graph.Close(context.Background())

	provider := app.InitLLM(ctx, cfg.LLM)
	chatbot, err := app.NewChatbotService(cfg, app.NewKnowledgeRepository(cfg, graph), provider)
	if err != nil {
		return err
	}

	resp, err := chatbot.ProcessQuery(ctx, service.ProcessQueryRequest{
		Query:     strings.Join(args, " "),
		SessionID: "kbctl-" + uuid.NewString(),
		Mode:      &mode,
	})
	if err != nil {
		return err
	}

	fmt.Println(resp.Message)
	if len(resp.Sources) > 0 {
		fmt.Printf("\nSources (%s):\n", resp.SearchMethod)
		for _, src := range resp.Sources {
			fmt.Printf("  - %s %s (%s)\n", src.Regulation, src.ArticleID, src.Title)
		}
	}
	if len(resp.SuggestedQuestions) > 0 {
		fmt.Println("\nYou could also ask:")
		for _, q := range resp.SuggestedQuestions {
			fmt.Printf("  - %s\n", q)
		}
	}
	return nil
}
