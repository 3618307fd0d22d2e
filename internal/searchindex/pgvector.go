package searchindex

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tripplanner/itinerary-service/internal/model"
)

//go:embed pgvector_schema.sql
var pgvectorSchema string

// pgvectorIndex queries travel_embeddings through match_travel_embeddings.
type pgvectorIndex struct{ db *sql.DB }

// OpenPostgres opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewPgvectorIndex wraps an open database holding the travel_embeddings table.
func NewPgvectorIndex(db *sql.DB) Index { return &pgvectorIndex{db: db} }

// EnsurePgvectorSchema creates the extension, table and match function if missing.
func EnsurePgvectorSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, pgvectorSchema)
	return err
}

// vectorLiteral renders vec in pgvector's text input format.
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.Grow(len(vec) * 8)
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func (p *pgvectorIndex) Query(ctx context.Context, vec []float32, topK int, types []model.ContentType) ([]model.RetrievedChunk, error) {
	var filter interface{}
	if names := typeStrings(types); names != nil {
		filter = names
	}
	rows, err := p.db.QueryContext(ctx, `
        SELECT id, content_type, content, metadata
        FROM match_travel_embeddings($1::vector, $2, $3::text[])
    `, vectorLiteral(vec), topK, filter)
	if err != nil {
		return nil, fmt.Errorf("match_travel_embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.RetrievedChunk
	for rows.Next() {
		var (
			c    model.RetrievedChunk
			ct   string
			meta []byte
		)
		if err := rows.Scan(&c.ID, &ct, &c.Content, &meta); err != nil {
			return nil, err
		}
		c.ContentType = model.ContentType(ct)
		c.Metadata = decodeMetadata(ctx, c.ID, meta)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *pgvectorIndex) Upsert(ctx context.Context, chunk model.RetrievedChunk, vec []float32) error {
	meta := []byte("{}")
	if len(chunk.Metadata) > 0 {
		b, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta = b
	}
	_, err := p.db.ExecContext(ctx, `
        INSERT INTO travel_embeddings (id, content_type, content, metadata, embedding)
        VALUES ($1, $2, $3, $4::jsonb, $5::vector)
        ON CONFLICT (id) DO UPDATE
        SET content_type = EXCLUDED.content_type,
            content = EXCLUDED.content,
            metadata = EXCLUDED.metadata,
            embedding = EXCLUDED.embedding
    `, chunk.ID, string(chunk.ContentType), chunk.Content, string(meta), vectorLiteral(vec))
	return err
}

// HealthPing implements health.HealthPinger for the Postgres-backed index.
func (p *pgvectorIndex) HealthPing(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
