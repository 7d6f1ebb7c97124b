package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/harsh-s15/iitj-coder/internal/common/db"
	"github.com/harsh-s15/iitj-coder/internal/judge/model"
	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
)

// SubmissionRepository persists submissions in MySQL.
type SubmissionRepository struct {
	db db.Database
}

func NewSubmissionRepository(database db.Database) *SubmissionRepository {
	return &SubmissionRepository{db: database}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	if sub == nil || sub.ID == "" {
		return appErr.Newf(appErr.InvalidParams, "submission requires an id")
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	query := `INSERT INTO submissions (id, question_id, code, language, status, submitted_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(ctx, query,
		sub.ID, sub.QuestionID, sub.Code, sub.Language, string(sub.Status), sub.SubmittedAt)
	if err != nil {
		if key, dup := db.UniqueViolation(err); dup {
			return appErr.Newf(appErr.InvalidParams, "duplicate submission on %s", key)
		}
		return appErr.Wrapf(err, appErr.DatabaseError, "insert submission")
	}
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	if id == "" {
		return nil, appErr.Newf(appErr.InvalidParams, "submission id is required")
	}
	query := `SELECT id, question_id, code, language, status, COALESCE(result_metadata, ''), submitted_at
	          FROM submissions WHERE id = ?`
	row := r.db.QueryRow(ctx, query, id)

	var sub model.Submission
	var status string
	err := row.Scan(&sub.ID, &sub.QuestionID, &sub.Code, &sub.Language,
		&status, &sub.ResultMetadata, &sub.SubmittedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, appErr.Newf(appErr.SubmissionNotFound, "submission %s not found", id)
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "query submission")
	}
	sub.Status = model.Status(status)
	return &sub, nil
}

// UpdateResult records a status transition and its result payload. An
// empty metadata string leaves the column NULL.
func (r *SubmissionRepository) UpdateResult(ctx context.Context, id string, status model.Status, resultMetadata string) error {
	if id == "" {
		return appErr.Newf(appErr.InvalidParams, "submission id is required")
	}
	var meta sql.NullString
	if resultMetadata != "" {
		meta = sql.NullString{String: resultMetadata, Valid: true}
	}
	query := `UPDATE submissions SET status = ?, result_metadata = ? WHERE id = ?`
	res, err := r.db.Exec(ctx, query, string(status), meta, id)
	if err != nil {
		return appErr.Wrapf(err, appErr.DatabaseError, "update submission")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return appErr.Wrapf(err, appErr.DatabaseError, "rows affected")
	}
	if affected == 0 {
		return appErr.Newf(appErr.SubmissionNotFound, "submission %s not found", id)
	}
	return nil
}
