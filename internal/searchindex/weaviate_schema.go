package searchindex

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// ChunkClass is the Weaviate class holding travel knowledge.
const ChunkClass = "TravelChunk"

func chunkClass() *models.Class {
	return &models.Class{
		Class:      ChunkClass,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "chunkId", DataType: []string{"text"}},
			{Name: "contentType", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "metadata", DataType: []string{"text"}},
		},
	}
}

// BootstrapWeaviate ensures the TravelChunk class exists.
func BootstrapWeaviate(ctx context.Context, baseURL string) error {
	cl, err := weaviate.NewClient(weaviate.Config{Scheme: "http", Host: baseURL})
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := ensureClass(cctx, cl, chunkClass()); err != nil {
		return fmt.Errorf("bootstrap %s: %w", ChunkClass, err)
	}
	return nil
}

func ensureClass(ctx context.Context, cl *weaviate.Client, desired *models.Class) error {
	ex, err := cl.Schema().ClassGetter().WithClassName(desired.Class).Do(ctx)
	if err == nil && ex != nil {
		return ensureProperties(ctx, cl, ex, desired)
	}
	if err := cl.Schema().ClassCreator().WithClass(desired).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", desired.Class, err)
	}
	return nil
}

// ensureProperties adds properties missing from an older class definition.
func ensureProperties(ctx context.Context, cl *weaviate.Client, existing, desired *models.Class) error {
	have := make(map[string]bool, len(existing.Properties))
	for _, p := range existing.Properties {
		have[p.Name] = true
	}
	for _, p := range desired.Properties {
		if have[p.Name] {
			continue
		}
		if err := cl.Schema().PropertyCreator().WithClassName(desired.Class).WithProperty(p).Do(ctx); err != nil {
			return fmt.Errorf("add property %s: %w", p.Name, err)
		}
	}
	return nil
}
