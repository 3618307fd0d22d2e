// Package cloudspanner stores usage rows in Cloud Spanner.
package cloudspanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/spanner"
	database "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tripplanner/itinerary-service/internal/model"
)

// DDL creates the usage table and its lookup index.
var DDL = []string{
	`CREATE TABLE AIUsage (
		UsageId      STRING(36)  NOT NULL,
		UserId       STRING(64)  NOT NULL,
		Provider     STRING(32)  NOT NULL,
		Model        STRING(128) NOT NULL,
		InputTokens  INT64       NOT NULL,
		OutputTokens INT64       NOT NULL,
		RequestId    STRING(64)  NOT NULL,
		CreatedAt    TIMESTAMP   NOT NULL,
	) PRIMARY KEY (UserId, UsageId)`,
	`CREATE INDEX AIUsageByUserCreated ON AIUsage (UserId, CreatedAt)`,
}

var columns = []string{"UsageId", "UserId", "Provider", "Model", "InputTokens", "OutputTokens", "RequestId", "CreatedAt"}

// Open connects to a database path such as projects/p/instances/i/databases/d.
// SPANNER_EMULATOR_HOST is honoured by the client library.
func Open(ctx context.Context, databasePath string, opts ...option.ClientOption) (*spanner.Client, error) {
	if databasePath == "" {
		return nil, fmt.Errorf("spanner database path is empty")
	}
	return spanner.NewClient(ctx, databasePath, opts...)
}

// EnsureSchema applies DDL, ignoring tables and indexes that already exist.
func EnsureSchema(ctx context.Context, databasePath string, opts ...option.ClientOption) error {
	admin, err := database.NewDatabaseAdminClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("database admin client: %w", err)
	}
	defer admin.Close()

	for _, stmt := range DDL {
		op, err := admin.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
			Database:   databasePath,
			Statements: []string{stmt},
		})
		if err == nil {
			err = op.Wait(ctx)
		}
		if err != nil && !alreadyExists(err) {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}
	return nil
}

func alreadyExists(err error) bool {
	if status.Code(err) == codes.AlreadyExists {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate name") || strings.Contains(msg, "already exists")
}

type Store struct {
	client *spanner.Client
	newID  func() string
}

// New wraps client; newID keys records that arrive without an ID.
func New(client *spanner.Client, newID func() string) *Store {
	return &Store{client: client, newID: newID}
}

// Insert writes the row keyed on rec.ID; rewriting an existing key stores the
// same values again.
func (s *Store) Insert(ctx context.Context, rec model.UsageRecord) error {
	id := rec.ID
	if id == "" {
		id = s.newID()
	}
	m := spanner.InsertOrUpdate("AIUsage", columns, []interface{}{
		id, rec.UserID, rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens, rec.RequestID, rec.CreatedAt,
	})
	if _, err := s.client.Apply(ctx, []*spanner.Mutation{m}); err != nil {
		return fmt.Errorf("insert usage: %w", err)
	}
	return nil
}

func (s *Store) SumTokens(ctx context.Context, userID string, since time.Time) (int64, error) {
	stmt := spanner.Statement{
		SQL: `SELECT COALESCE(SUM(InputTokens + OutputTokens), 0) FROM AIUsage
			  WHERE UserId = @userId AND CreatedAt >= @since`,
		Params: map[string]interface{}{"userId": userID, "since": since},
	}
	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sum usage: %w", err)
	}
	var total int64
	if err := row.Columns(&total); err != nil {
		return 0, fmt.Errorf("scan usage: %w", err)
	}
	return total, nil
}

func (s *Store) HealthPing(ctx context.Context) error {
	iter := s.client.Single().Query(ctx, spanner.Statement{SQL: "SELECT 1"})
	defer iter.Stop()
	_, err := iter.Next()
	return err
}

func (s *Store) Close() error {
	s.client.Close()
	return nil
}
