package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/hafidzyami/CivilConstructionApp-sub000/storage"
)

// StoreSource copies a source PDF or text file into store and returns its key
func StoreSource(ctx context.Context, store storage.Storage, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	key := storage.SourceKey(filepath.Base(filePath))
	if err := store.Put(ctx, key, f); err != nil {
		return "", err
	}
	return key, nil
}

// SaveDocument stores doc as corpus JSON keyed by its regulation code
func SaveDocument(ctx context.Context, store storage.Storage, doc *RegulationDocument) (string, error) {
	code := doc.RegulationCode()
	if code == "" {
		return "", fmt.Errorf("regulation document has no name or code")
	}

	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", doc.Name, err)
	}

	key := storage.CorpusKey(code)
	if err := store.Put(ctx, key, &buf); err != nil {
		return "", err
	}
	return key, nil
}

// LoadDocument reads one corpus document from store
func LoadDocument(ctx context.Context, store storage.Storage, key string) (*RegulationDocument, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	doc, err := ReadDocument(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return doc, nil
}

// LoadCorpus reads every corpus document in store, national documents first
func LoadCorpus(ctx context.Context, store storage.Storage) ([]*RegulationDocument, error) {
	keys, err := store.List(ctx, storage.CorpusPrefix)
	if err != nil {
		return nil, err
	}

	var docs []*RegulationDocument
	for _, key := range keys {
		if path.Ext(key) != ".json" {
			continue
		}
		doc, err := LoadDocument(ctx, store, key)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return !docs[i].IsRegional() && docs[j].IsRegional()
	})
	return docs, nil
}
