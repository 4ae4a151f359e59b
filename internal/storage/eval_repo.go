package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_eval_store.go -package=mocks ragchat/internal/storage EvalStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ragchat/internal/eval"
)

// EvalRecord is one persisted evaluation: the input, the computed scores
// and the evaluation timestamp.
type EvalRecord struct {
	ID          string      `json:"id"`
	Question    string      `json:"question"`
	Answer      string      `json:"answer"`
	Contexts    []string    `json:"contexts"`
	GroundTruth string      `json:"ground_truth,omitempty"`
	Scores      eval.Result `json:"scores"`
	CreatedAt   time.Time   `json:"created_at"`
}

// EvalStore defines the interface for evaluation log persistence.
type EvalStore interface {
	// Insert writes one evaluation record. A missing ID is filled in.
	Insert(ctx context.Context, rec *EvalRecord) error
	// ListRecent returns the n most recent records, newest first.
	ListRecent(ctx context.Context, n int) ([]EvalRecord, error)
}

// EvalRepo implements EvalStore on SQLite. Contexts and scores are stored
// as JSON, so each row is a self-contained evaluation log object.
type EvalRepo struct {
	db *sql.DB
}

// NewEvalRepo creates a new EvalRepo.
func NewEvalRepo(db *sql.DB) *EvalRepo {
	return &EvalRepo{db: db}
}

// Insert writes one evaluation record.
func (r *EvalRepo) Insert(ctx context.Context, rec *EvalRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	contexts, err := json.Marshal(rec.Contexts)
	if err != nil {
		return fmt.Errorf("failed to marshal contexts: %w", err)
	}
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, question, answer, contexts, ground_truth, scores, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Question, rec.Answer, string(contexts), rec.GroundTruth, string(scores), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return nil
}

// ListRecent returns the n most recent evaluation records, newest first.
func (r *EvalRepo) ListRecent(ctx context.Context, n int) ([]EvalRecord, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, question, answer, contexts, ground_truth, scores, created_at
		 FROM evaluations ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []EvalRecord
	for rows.Next() {
		var rec EvalRecord
		var contexts, scores string
		var groundTruth sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Answer, &contexts, &groundTruth, &scores, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		if err := json.Unmarshal([]byte(contexts), &rec.Contexts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contexts: %w", err)
		}
		if err := json.Unmarshal([]byte(scores), &rec.Scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
		}
		rec.GroundTruth = groundTruth.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
