package repository

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateReadOnlyQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{name: "simple match", query: "MATCH (n:Article) RETURN n.id AS articleId LIMIT 5"},
		{name: "keyword inside literal", query: "MATCH (n) WHERE n.text CONTAINS 'DELETE the SET' RETURN n"},
		{name: "fulltext procedure", query: "CALL db.index.fulltext.queryNodes('article_fulltext', 'parking') YIELD node RETURN node"},
		{name: "vector procedure", query: "CALL db.index.vector.queryNodes('article_embedding', 5, $v) YIELD node RETURN node"},
		{name: "starts with operator", query: "MATCH (n) WHERE n.id STARTS WITH 'article_5' RETURN n"},
		{name: "trailing semicolon", query: "MATCH (n) RETURN n;"},
		{name: "property named created", query: "MATCH (n) RETURN n.created AS c"},
		{name: "keyword inside backtick identifier", query: "MATCH (n) RETURN n.id AS `Delete Me`"},
		{name: "escaped quote in literal", query: "MATCH (n) WHERE n.title = 'Owner\\'s SET' RETURN n"},
		{name: "double quoted literal with apostrophe", query: `MATCH (n) WHERE n.title = "Owner's duty" RETURN n`},
		{name: "create", query: "CREATE (n:Article {id: 'x'}) RETURN n", wantErr: true},
		{name: "merge lowercase", query: "merge (n:Article {id: 'x'}) return n", wantErr: true},
		{name: "detach delete", query: "MATCH (n) DETACH DELETE n RETURN 1", wantErr: true},
		{name: "set property", query: "MATCH (n) SET n.text = '' RETURN n", wantErr: true},
		{name: "remove label", query: "MATCH (n) REMOVE n:Article RETURN n", wantErr: true},
		{name: "drop index", query: "DROP INDEX article_fulltext", wantErr: true},
		{name: "load csv", query: "LOAD CSV FROM 'file:///x' AS row RETURN row", wantErr: true},
		{name: "foreach", query: "MATCH (n) FOREACH (x IN [1] | CREATE ()) RETURN n", wantErr: true},
		{name: "two statements", query: "MATCH (n) RETURN n; MATCH (m) DETACH DELETE m", wantErr: true},
		{name: "second statement read only", query: "MATCH (n) RETURN n; MATCH (m) RETURN m", wantErr: true},
		{name: "other procedure", query: "CALL dbms.security.listUsers() YIELD username RETURN username", wantErr: true},
		{name: "subquery call", query: "CALL { MATCH (n) RETURN n } RETURN n", wantErr: true},
		{name: "apoc function", query: "RETURN apoc.cypher.runFirstColumnSingle('MATCH (n) RETURN n', {})", wantErr: true},
		{name: "write hidden after comment", query: "MATCH (n) // harmless\nDELETE n RETURN 1", wantErr: true},
		{name: "quote inside backtick label", query: "MATCH (n:`it's`) DETACH DELETE n WITH '`' AS x RETURN x", wantErr: true},
		{name: "quote inside line comment", query: "MATCH (n) RETURN n.id AS articleId // don't\nCREATE (m:Evil) RETURN 'x'", wantErr: true},
		{name: "unterminated literal", query: "MATCH (n) WHERE n.id = 'article_5 RETURN n", wantErr: true},
		{name: "unterminated block comment", query: "MATCH (n) RETURN n /* SET", wantErr: true},
		{name: "no return", query: "MATCH (n)", wantErr: true},
		{name: "empty", query: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReadOnlyQuery(tt.query)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnsafeQuery), "expected ErrUnsafeQuery, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEnforceRowCap(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "appends when missing",
			query:    "MATCH (n) RETURN n",
			expected: "MATCH (n) RETURN n\nLIMIT 50",
		},
		{
			name:     "keeps smaller limit",
			query:    "MATCH (n) RETURN n LIMIT 10",
			expected: "MATCH (n) RETURN n LIMIT 10",
		},
		{
			name:     "clamps larger limit",
			query:    "MATCH (n) RETURN n LIMIT 5000",
			expected: "MATCH (n) RETURN n LIMIT 50",
		},
		{
			name:     "replaces parameter limit",
			query:    "MATCH (n) RETURN n LIMIT $limit",
			expected: "MATCH (n) RETURN n LIMIT 50",
		},
		{
			name:     "strips trailing semicolon",
			query:    "MATCH (n) RETURN n;",
			expected: "MATCH (n) RETURN n\nLIMIT 50",
		},
		{
			name:     "inner limit does not bound final return",
			query:    "MATCH (n) WITH n LIMIT 10 MATCH (n)-[:MENTIONS]->(m) RETURN m",
			expected: "MATCH (n) WITH n LIMIT 10 MATCH (n)-[:MENTIONS]->(m) RETURN m\nLIMIT 50",
		},
		{
			name:     "limit inside literal ignored",
			query:    "MATCH (n) WHERE n.text CONTAINS 'LIMIT 9999' RETURN n",
			expected: "MATCH (n) WHERE n.text CONTAINS 'LIMIT 9999' RETURN n\nLIMIT 50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnforceRowCap(tt.query, MaxQueryRows))
		})
	}
}

func TestBlankLiterals_PreservesOffsets(t *testing.T) {
	q := `MATCH (n) WHERE n.name = "Article 5; DROP" RETURN n /* SET */`
	blanked, ok := blankLiterals(q)
	assert.True(t, ok)
	assert.Equal(t, len(q), len(blanked))
	assert.False(t, strings.Contains(blanked, "DROP"))
	assert.False(t, strings.Contains(blanked, "SET"))
	assert.True(t, strings.HasPrefix(blanked, "MATCH (n) WHERE n.name = \""))
}

func TestBlankLiterals_TracksEachConstruct(t *testing.T) {
	q := "MATCH (n:`it's`) // it's\nDETACH DELETE n RETURN '`'"
	blanked, ok := blankLiterals(q)
	assert.True(t, ok)
	assert.Equal(t, len(q), len(blanked))
	assert.Contains(t, blanked, "DETACH DELETE n RETURN")
	assert.NotContains(t, blanked, "it's")

	_, ok = blankLiterals("RETURN `open")
	assert.False(t, ok)
}
