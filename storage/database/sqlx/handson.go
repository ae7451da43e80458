package sqlxrepos

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/learntocloud/ltc-backend/core/handson"
)

type submissionRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Phase       int       `db:"phase"`
	RepoURL     string    `db:"repo_url"`
	Status      string    `db:"status"`
	Checks      null.JSON `db:"checks"`
	SubmittedAt null.Time `db:"submitted_at"`
	VerifiedAt  null.Time `db:"verified_at"`
}

func (r submissionRow) toSubmission() (handson.Submission, error) {
	sub := handson.Submission{
		ID:          r.ID,
		UserID:      r.UserID,
		Phase:       r.Phase,
		RepoURL:     r.RepoURL,
		Status:      r.Status,
		SubmittedAt: r.SubmittedAt.Time,
		VerifiedAt:  r.VerifiedAt.Time,
	}
	if r.Checks.Valid {
		if err := json.Unmarshal(r.Checks.JSON, &sub.Checks); err != nil {
			return handson.Submission{}, errors.Wrap(err, "decoding submission checks")
		}
	}
	return sub, nil
}

type handsOnRepository struct {
	db *sqlx.DB
}

var _ handson.Repository = (*handsOnRepository)(nil) // interface compliance check

func NewHandsOnRepository(db *sqlx.DB) *handsOnRepository {
	return &handsOnRepository{db: db}
}

func (repo handsOnRepository) UpsertSubmission(sub handson.Submission) (handson.Submission, error) {
	checks := null.JSON{}
	if sub.Checks != nil {
		raw, err := json.Marshal(sub.Checks)
		if err != nil {
			return handson.Submission{}, errors.Wrap(err, "encoding submission checks")
		}
		checks = null.JSONFrom(raw)
	}

	var saved submissionRow
	err := repo.db.Get(&saved, `
		INSERT INTO submission (id, user_id, phase, repo_url, status, checks, submitted_at, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, phase)
		DO UPDATE SET repo_url = EXCLUDED.repo_url, status = EXCLUDED.status, checks = EXCLUDED.checks,
			submitted_at = EXCLUDED.submitted_at, verified_at = EXCLUDED.verified_at
		RETURNING *`,
		uuid.New().String(), sub.UserID, sub.Phase, sub.RepoURL, sub.Status, checks,
		null.NewTime(sub.SubmittedAt.UTC(), !sub.SubmittedAt.IsZero()),
		null.NewTime(sub.VerifiedAt.UTC(), !sub.VerifiedAt.IsZero()),
	)
	if err != nil {
		return handson.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return saved.toSubmission()
}

func (repo handsOnRepository) GetSubmission(userID string, phase int) (handson.Submission, error) {
	var row submissionRow
	err := repo.db.Get(&row, `SELECT * FROM submission WHERE user_id = $1 AND phase = $2`, userID, phase)
	if err != nil {
		if err == sql.ErrNoRows {
			return handson.Submission{}, handson.ErrNotFound
		}
		return handson.Submission{}, errors.Wrap(err, "getting submission")
	}
	return row.toSubmission()
}

func (repo handsOnRepository) QueryUserSubmissions(userID string) ([]handson.Submission, error) {
	var rows []submissionRow
	err := repo.db.Select(&rows, `SELECT * FROM submission WHERE user_id = $1 ORDER BY phase`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user submissions")
	}
	subs := make([]handson.Submission, 0, len(rows))
	for _, r := range rows {
		sub, err := r.toSubmission()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
