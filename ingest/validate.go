package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCorpus is returned when the documents would produce an inconsistent graph
var ErrInvalidCorpus = errors.New("invalid regulation corpus")

// ValidationError lists every integrity violation found in a corpus
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d violation(s):\n  - %s",
		ErrInvalidCorpus, len(e.Violations), strings.Join(e.Violations, "\n  - "))
}

// Unwrap lets errors.Is match ErrInvalidCorpus
func (e *ValidationError) Unwrap() error {
	return ErrInvalidCorpus
}

// Validate checks the corpus before anything is written:
//   - node ids are unique across all documents (after regional prefixing)
//   - every sub-article's parent, given or implied by its number, exists in the same document
//   - relatedTo only appears on regional provisions
//   - relatedTo targets an existing national provision
func Validate(docs ...*RegulationDocument) error {
	var violations []string
	seen := make(map[string]string)
	national := make(map[string]bool)

	for _, doc := range docs {
		for _, a := range doc.AllArticles() {
			id := doc.NodeID(a.ID)
			if owner, dup := seen[id]; dup {
				violations = append(violations, fmt.Sprintf("duplicate id %s in %s (first seen in %s)", id, doc.Name, owner))
				continue
			}
			seen[id] = doc.Name
			if !doc.IsRegional() {
				national[id] = true
			}
		}
	}

	for _, doc := range docs {
		local := make(map[string]bool)
		for _, a := range doc.AllArticles() {
			local[a.ID] = true
		}

		for _, a := range doc.AllArticles() {
			if a.ID == "" {
				violations = append(violations, fmt.Sprintf("provision without id in %s", doc.Name))
				continue
			}
			if parent := a.Parent(); a.Level > 0 || parent != "" {
				switch {
				case parent == "":
					violations = append(violations, fmt.Sprintf("%s in %s has level %d but no parent", a.ID, doc.Name, a.Level))
				case !local[parent]:
					violations = append(violations, fmt.Sprintf("%s in %s has missing parent %s", a.ID, doc.Name, parent))
				}
			}

			if len(a.RelatedTo) == 0 {
				continue
			}
			if !doc.IsRegional() {
				violations = append(violations, fmt.Sprintf("national provision %s in %s declares relatedTo", a.ID, doc.Name))
				continue
			}
			for _, target := range a.RelatedTo {
				if !national[target] {
					violations = append(violations, fmt.Sprintf("%s in %s is related to %s, which is not a national provision", a.ID, doc.Name, target))
				}
			}
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
