package main

import (
	"context"
	"log"
	"os"

	"github.com/hafidzyami/CivilConstructionApp-sub000/app"
	"github.com/hafidzyami/CivilConstructionApp-sub000/config"
	"github.com/hafidzyami/CivilConstructionApp-sub000/handlers"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx := context.Background()

	// Initialize database connections
	graph, err := app.InitGraph(ctx, cfg.Neo4j)
	if err != nil {
		log.Fatal("Failed to initialize Neo4j:", err)
	}
	defer graph.Close(context.Background())

	db, err := app.InitPostgres(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to initialize Postgres:", err)
	}
	defer db.Close()

	provider := app.InitLLM(ctx, cfg.LLM)

	// Initialize services
	knowledge := app.NewKnowledgeRepository(cfg, graph)
	chatbotService, err := app.NewChatbotService(cfg, knowledge, provider)
	if err != nil {
		log.Fatalf("Failed to initialize chatbot: %v", err)
	}
	complianceService := app.NewComplianceService(db, knowledge, provider)

	// Initialize handlers
	chatHandler := handlers.NewChatHandler(chatbotService)
	complianceHandler := handlers.NewComplianceHandler(complianceService)

	// Setup Gin router
	r := gin.Default()
	handlers.RegisterRoutes(r, chatHandler, complianceHandler)

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
