// Package app wires configuration into the graph, database, model and service layers.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/hafidzyami/CivilConstructionApp-sub000/config"
	"github.com/hafidzyami/CivilConstructionApp-sub000/graphdb"
	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/repository"
	"github.com/hafidzyami/CivilConstructionApp-sub000/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitGraph connects to Neo4j
func InitGraph(ctx context.Context, cfg graphdb.Config) (*graphdb.Neo4jClient, error) {
	client, err := graphdb.NewNeo4jClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}
	if cfg.HasReadCredential() {
		log.Println("Neo4j connection established (reads use the read-only credential)")
	} else {
		log.Println("Warning: NEO4J_READ_USERNAME not set, synthesized queries run under the writer login in READ sessions")
	}
	return client, nil
}

// InitPostgres opens and pings the connection pool
func InitPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("Postgres connection established")
	return pool, nil
}

// InitLLM creates the configured provider. Any failure leaves the model
// disabled so every component takes its deterministic fallback.
func InitLLM(ctx context.Context, cfg llm.Config) llm.Provider {
	provider, err := llm.NewProvider(ctx, cfg)
	if err != nil {
		log.Printf("Warning: language model disabled: %v", err)
		return nil
	}
	if provider == nil {
		log.Println("Warning: no LLM provider configured, using fallback answers")
		return nil
	}
	log.Printf("LLM provider %s initialized", provider.Name())
	return provider
}

// NewKnowledgeRepository builds the graph read layer with the configured row cap
func NewKnowledgeRepository(cfg *config.Config, graph graphdb.Client) *repository.KnowledgeRepository {
	return repository.NewKnowledgeRepository(graph, repository.KnowledgeWithMaxRows(cfg.Retrieval.QueryRowCap))
}

// NewChatbotService wires intent classification, retrieval, composition and sessions
func NewChatbotService(cfg *config.Config, knowledge service.KnowledgeStore, provider llm.Provider) (*service.ChatbotService, error) {
	schema, err := repository.LoadGraphSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to load graph schema: %w", err)
	}

	similarity := service.NewSimilaritySearcher(provider, knowledge, cfg.Retrieval.TopK)
	synthesizer := service.NewQuerySynthesizer(provider, schema)

	return service.NewChatbotService(
		service.ChatbotWithClassifier(service.NewIntentClassifier(provider)),
		service.ChatbotWithOrchestrator(service.NewKnowledgeRetrieval(knowledge, similarity, synthesizer, cfg.Retrieval.FullTextLimit)),
		service.ChatbotWithComposer(service.NewResponseComposer(provider)),
		service.ChatbotWithSessionStore(service.NewSessionStore(cfg.Session.HistoryLimit, cfg.Session.TTL, cfg.Session.CleanupInterval)),
		service.ChatbotWithKnowledgeStore(knowledge),
	), nil
}

// NewComplianceService wires the rule engine, augmenter and Postgres-backed stores
func NewComplianceService(db *pgxpool.Pool, knowledge service.KnowledgeStore, provider llm.Provider) *service.ComplianceService {
	metricsRepo := repository.NewProjectMetricsRepository(db)

	return service.NewComplianceService(
		service.ComplianceWithRuleEngine(service.NewRuleEngine()),
		service.ComplianceWithAugmenter(service.NewComplianceAugmenter(provider)),
		service.ComplianceWithAggregator(service.NewComplianceAggregator(service.DefaultMaxCitedRegulations)),
		service.ComplianceWithResultStore(repository.NewComplianceResultRepository(db)),
		service.ComplianceWithMetricsSource(metricsRepo),
		service.ComplianceWithMetricsWriter(metricsRepo),
		service.ComplianceWithKnowledgeStore(knowledge),
	)
}
