package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/hafidzyami/CivilConstructionApp-sub000/graphdb"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

// GraphSchemaStatements returns the idempotent constraint and index statements
// for the knowledge graph. dimensions fixes the vector index size.
func GraphSchemaStatements(dimensions int) []string {
	labels := append([]models.NodeType{models.NodeRegulation}, models.ArticleLabels...)

	stmts := make([]string, 0, len(labels)+2)
	for _, label := range labels {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE CONSTRAINT %s_id_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE",
			snakeCase(string(label)), label))
	}

	stmts = append(stmts,
		fmt.Sprintf("CREATE FULLTEXT INDEX %s IF NOT EXISTS "+
			"FOR (n:Article|SubArticle|RegionalArticle|RegionalSubArticle) "+
			"ON EACH [n.name, n.text, n.title, n.articleNumber]", FullTextIndexName),
		fmt.Sprintf("CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:Article) ON (n.embedding) "+
			"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
			VectorIndexName, dimensions),
	)
	return stmts
}

// BootstrapGraphSchema creates constraints and indexes; safe to run repeatedly
func BootstrapGraphSchema(ctx context.Context, client graphdb.Client, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("vector dimensions must be positive, got %d", dimensions)
	}
	for _, stmt := range GraphSchemaStatements(dimensions) {
		if _, err := client.Write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("schema statement failed (%s): %w", stmt, err)
		}
	}
	log.Printf("✓ Graph constraints and indexes ready (vector dimensions %d)", dimensions)
	return nil
}

func snakeCase(s string) string {
	out := make([]byte, 0, len(s)+4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
