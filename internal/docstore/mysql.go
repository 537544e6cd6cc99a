package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MySQLStore keeps every collection in a single documents table with a JSON
// payload column.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}

	id := uuid.NewString()
	query := `INSERT INTO documents (id, collection, data) VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, id, collection, payload); err != nil {
		return "", fmt.Errorf("inserting document: %w", err)
	}

	return id, nil
}

func (s *MySQLStore) List(ctx context.Context, collection string) ([]Record, error) {
	query := `
		SELECT id, data
		FROM documents
		WHERE collection = ?
		ORDER BY createdAt, id
	`

	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}

		data := map[string]any{}
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("decoding document %s: %w", id, err)
		}
		records = append(records, Record{ID: id, Data: data})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}

	return records, nil
}
