package repository

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed schema/graph_schema.yaml
var graphSchemaYAML []byte

// GraphSchema is the versioned description of the knowledge graph handed to the query synthesizer
type GraphSchema struct {
	Version       int                 `yaml:"version"`
	Description   string              `yaml:"description"`
	Nodes         []GraphNodeSpec     `yaml:"nodes"`
	Relationships []GraphRelationSpec `yaml:"relationships"`
	Indexes       GraphIndexSpec      `yaml:"indexes"`
	Conventions   []string            `yaml:"conventions"`
}

// GraphNodeSpec describes one node label
type GraphNodeSpec struct {
	Label       string   `yaml:"label"`
	Description string   `yaml:"description"`
	Properties  []string `yaml:"properties"`
}

// GraphRelationSpec describes one relationship type
type GraphRelationSpec struct {
	Type        string   `yaml:"type"`
	From        []string `yaml:"from"`
	To          []string `yaml:"to"`
	Description string   `yaml:"description"`
}

// GraphIndexSpec names the search indexes
type GraphIndexSpec struct {
	FullText string `yaml:"fulltext"`
	Vector   string `yaml:"vector"`
}

// LoadGraphSchema parses the embedded schema description
func LoadGraphSchema() (*GraphSchema, error) {
	return ParseGraphSchema(graphSchemaYAML)
}

// ParseGraphSchema parses a schema description
func ParseGraphSchema(data []byte) (*GraphSchema, error) {
	var s GraphSchema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse graph schema: %w", err)
	}
	if s.Version == 0 || len(s.Nodes) == 0 {
		return nil, fmt.Errorf("graph schema is missing version or nodes")
	}
	return &s, nil
}

// PromptText renders the schema as plain text for a model prompt
func (s *GraphSchema) PromptText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Graph schema v%d: %s\n\nNode labels:\n", s.Version, s.Description)
	for _, n := range s.Nodes {
		fmt.Fprintf(&b, "- %s {%s}: %s\n", n.Label, strings.Join(n.Properties, ", "), n.Description)
	}
	b.WriteString("\nRelationships:\n")
	for _, r := range s.Relationships {
		fmt.Fprintf(&b, "- (%s)-[:%s]->(%s): %s\n",
			strings.Join(r.From, "|"), r.Type, strings.Join(r.To, "|"), r.Description)
	}
	if len(s.Conventions) > 0 {
		b.WriteString("\nConventions:\n")
		for _, c := range s.Conventions {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}
