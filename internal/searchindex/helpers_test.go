package searchindex

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/tripplanner/itinerary-service/internal/model"
)

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[]", vectorLiteral(nil))
	assert.Equal(t, "[0.5,-1,2.25]", vectorLiteral([]float32{0.5, -1, 2.25}))
}

func TestObjectID(t *testing.T) {
	id := uuid.NewString()
	assert.Equal(t, id, objectID(id))

	a := objectID("lisbon-city")
	assert.Equal(t, a, objectID("lisbon-city"))
	assert.NotEqual(t, a, objectID("porto-city"))
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestTypeFilter(t *testing.T) {
	assert.Nil(t, typeFilter(nil))
	assert.NotNil(t, typeFilter([]model.ContentType{model.ContentCity}))
	assert.NotNil(t, typeFilter([]model.ContentType{model.ContentCity, model.ContentVisaRule}))
}

func TestDecodeChunk(t *testing.T) {
	c := decodeChunk(context.Background(), map[string]interface{}{
		"chunkId":     "lisbon",
		"contentType": "city",
		"content":     "Capital of Portugal",
		"metadata":    `{"country":"PT"}`,
	})
	assert.Equal(t, "lisbon", c.ID)
	assert.Equal(t, model.ContentCity, c.ContentType)
	assert.Equal(t, "Capital of Portugal", c.Content)
	assert.Equal(t, map[string]interface{}{"country": "PT"}, c.Metadata)

	bare := decodeChunk(context.Background(), map[string]interface{}{"chunkId": "x"})
	assert.Nil(t, bare.Metadata)
}

func TestDecodeMetadata_MalformedIsLogged(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	c := decodeChunk(ctx, map[string]interface{}{
		"chunkId":  "porto",
		"content":  "Port wine cellars",
		"metadata": `{"country":`,
	})
	assert.Equal(t, "Port wine cellars", c.Content)
	assert.Nil(t, c.Metadata)
	assert.Contains(t, buf.String(), "Dropping unreadable chunk metadata")
	assert.Contains(t, buf.String(), `"chunk_id":"porto"`)

	assert.Nil(t, decodeMetadata(ctx, "empty", nil))
	assert.Equal(t, map[string]interface{}{"a": 1.0}, decodeMetadata(ctx, "ok", []byte(`{"a":1}`)))
}
