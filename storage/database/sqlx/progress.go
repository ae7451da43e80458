package sqlxrepos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/learntocloud/ltc-backend/core/progress"
)

type recordRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Phase       int       `db:"phase"`
	TopicSlug   string    `db:"topic_slug"`
	Kind        string    `db:"kind"`
	ItemID      string    `db:"item_id"`
	Done        bool      `db:"done"`
	CompletedAt null.Time `db:"completed_at"`
	UpdatedAt   null.Time `db:"updated_at"`
}

func (r recordRow) toRecord() progress.Record {
	return progress.Record{
		ID:          r.ID,
		UserID:      r.UserID,
		Phase:       r.Phase,
		TopicSlug:   r.TopicSlug,
		Kind:        r.Kind,
		ItemID:      r.ItemID,
		Done:        r.Done,
		CompletedAt: r.CompletedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func toRecords(rows []recordRow) []progress.Record {
	recs := make([]progress.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.toRecord())
	}
	return recs
}

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo progressRepository) UpsertRecord(rec progress.Record) (progress.Record, error) {
	row := recordRow{
		ID:          uuid.New().String(),
		UserID:      rec.UserID,
		Phase:       rec.Phase,
		TopicSlug:   rec.TopicSlug,
		Kind:        rec.Kind,
		ItemID:      rec.ItemID,
		Done:        rec.Done,
		CompletedAt: null.NewTime(rec.CompletedAt.UTC(), !rec.CompletedAt.IsZero()),
		UpdatedAt:   null.NewTime(rec.UpdatedAt.UTC(), !rec.UpdatedAt.IsZero()),
	}

	var saved recordRow
	err := repo.db.Get(&saved, `
		INSERT INTO progress_record (id, user_id, phase, topic_slug, kind, item_id, done, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, phase, topic_slug, kind, item_id)
		DO UPDATE SET done = EXCLUDED.done, completed_at = EXCLUDED.completed_at, updated_at = EXCLUDED.updated_at
		RETURNING *`,
		row.ID, row.UserID, row.Phase, row.TopicSlug, row.Kind, row.ItemID, row.Done, row.CompletedAt, row.UpdatedAt,
	)
	if err != nil {
		return progress.Record{}, errors.Wrap(err, "upserting progress record")
	}
	return saved.toRecord(), nil
}

func (repo progressRepository) GetPhaseRecords(userID string, phase int) ([]progress.Record, error) {
	var rows []recordRow
	err := repo.db.Select(&rows,
		`SELECT * FROM progress_record WHERE user_id = $1 AND phase = $2`, userID, phase)
	if err != nil {
		return nil, errors.Wrap(err, "querying phase records")
	}
	return toRecords(rows), nil
}

func (repo progressRepository) GetTopicRecords(userID string, phase int, topicSlug string) ([]progress.Record, error) {
	var rows []recordRow
	err := repo.db.Select(&rows,
		`SELECT * FROM progress_record WHERE user_id = $1 AND phase = $2 AND topic_slug = $3`,
		userID, phase, topicSlug)
	if err != nil {
		return nil, errors.Wrap(err, "querying topic records")
	}
	return toRecords(rows), nil
}

func (repo progressRepository) QueryUserRecords(userID string) ([]progress.Record, error) {
	var rows []recordRow
	err := repo.db.Select(&rows,
		`SELECT * FROM progress_record WHERE user_id = $1 ORDER BY phase, topic_slug`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user records")
	}
	return toRecords(rows), nil
}

func (repo progressRepository) DeleteUserRecords(userID string) error {
	if _, err := repo.db.Exec(`DELETE FROM progress_record WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "deleting user records")
	}
	return nil
}
