package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	filters "github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/tripplanner/itinerary-service/internal/model"
)

// chunkNamespace derives stable object UUIDs from caller chunk ids.
var chunkNamespace = uuid.MustParse("6f1c1f7e-2b5a-4d0e-9a57-3c0b8f3d2a11")

// weaviateIndex implements Index using the Weaviate Go client.
type weaviateIndex struct {
	client  *weaviate.Client
	baseURL string
}

// NewWeaviateIndex constructs an Index backed by Weaviate at baseURL.
// baseURL should be host:port (without scheme), e.g., "localhost:8082".
func NewWeaviateIndex(baseURL string) (Index, error) {
	cl, err := weaviate.NewClient(weaviate.Config{Scheme: "http", Host: baseURL})
	if err != nil {
		return nil, err
	}
	return &weaviateIndex{client: cl, baseURL: baseURL}, nil
}

// objectID maps a chunk id onto a UUID, keeping ids that already are one.
func objectID(chunkID string) string {
	if id, err := uuid.Parse(chunkID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(chunkNamespace, []byte(chunkID)).String()
}

func (w *weaviateIndex) Query(ctx context.Context, vec []float32, topK int, types []model.ContentType) ([]model.RetrievedChunk, error) {
	nv := w.client.GraphQL().NearVectorArgBuilder().WithVector(vec)
	req := w.client.GraphQL().Get().
		WithClassName(ChunkClass).
		WithNearVector(nv).
		WithLimit(topK).
		WithFields(
			gql.Field{Name: "chunkId"},
			gql.Field{Name: "contentType"},
			gql.Field{Name: "content"},
			gql.Field{Name: "metadata"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "distance"}}},
		)
	if where := typeFilter(types); where != nil {
		req = req.WithWhere(where)
	}

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}
	getData, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	raw, ok := getData[ChunkClass].([]interface{})
	if !ok {
		return nil, nil
	}
	out := make([]model.RetrievedChunk, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, decodeChunk(ctx, m))
	}
	return out, nil
}

func typeFilter(types []model.ContentType) *filters.WhereBuilder {
	names := typeStrings(types)
	switch len(names) {
	case 0:
		return nil
	case 1:
		return filters.Where().WithPath([]string{"contentType"}).WithOperator(filters.Equal).WithValueText(names[0])
	}
	operands := make([]*filters.WhereBuilder, len(names))
	for i, n := range names {
		operands[i] = filters.Where().WithPath([]string{"contentType"}).WithOperator(filters.Equal).WithValueText(n)
	}
	return filters.Where().WithOperator(filters.Or).WithOperands(operands)
}

func decodeChunk(ctx context.Context, m map[string]interface{}) model.RetrievedChunk {
	c := model.RetrievedChunk{}
	c.ID, _ = m["chunkId"].(string)
	ct, _ := m["contentType"].(string)
	c.ContentType = model.ContentType(ct)
	c.Content, _ = m["content"].(string)
	if meta, ok := m["metadata"].(string); ok {
		c.Metadata = decodeMetadata(ctx, c.ID, []byte(meta))
	}
	return c
}

// Upsert writes the chunk through the batch endpoint, which replaces an
// object with the same id.
func (w *weaviateIndex) Upsert(ctx context.Context, chunk model.RetrievedChunk, vec []float32) error {
	props := map[string]interface{}{
		"chunkId":     chunk.ID,
		"contentType": string(chunk.ContentType),
		"content":     chunk.Content,
		"metadata":    "",
	}
	if len(chunk.Metadata) > 0 {
		b, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		props["metadata"] = string(b)
	}
	obj := &models.Object{
		Class:      ChunkClass,
		ID:         strfmt.UUID(objectID(chunk.ID)),
		Properties: props,
		Vector:     vec,
	}
	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(obj).Do(ctx)
	if err != nil {
		return err
	}
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("upsert %s: %s", obj.ID.String(), r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// HealthPing implements health.HealthPinger for the weaviate index.
// It calls GET http://<baseURL>/v1/meta and expects 200 OK.
func (w *weaviateIndex) HealthPing(ctx context.Context) error {
	if w == nil || w.baseURL == "" {
		return fmt.Errorf("weaviate baseURL missing")
	}
	url := w.baseURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/v1/meta", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weaviate status %d", resp.StatusCode)
	}
	return nil
}

// formatGraphQLErrors returns compact string with messages extracted for logging.
func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
