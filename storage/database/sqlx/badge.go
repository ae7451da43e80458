package sqlxrepos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/learntocloud/ltc-backend/core/badge"
)

// uniqueViolation is the pq error code for unique constraint violations.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

type badgeRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Phase     int       `db:"phase"`
	PhaseSlug string    `db:"phase_slug"`
	PhaseName string    `db:"phase_name"`
	AwardedAt null.Time `db:"awarded_at"`
}

func (r badgeRow) toBadge() badge.Badge {
	return badge.Badge{
		ID:        r.ID,
		UserID:    r.UserID,
		Phase:     r.Phase,
		PhaseSlug: r.PhaseSlug,
		PhaseName: r.PhaseName,
		AwardedAt: r.AwardedAt.Time,
	}
}

type certificateRow struct {
	ID                string    `db:"id"`
	UserID            string    `db:"user_id"`
	Code              string    `db:"code"`
	HolderName        string    `db:"holder_name"`
	CurriculumVersion string    `db:"curriculum_version"`
	IssuedAt          null.Time `db:"issued_at"`
}

func (r certificateRow) toCertificate() badge.Certificate {
	return badge.Certificate{
		ID:                r.ID,
		UserID:            r.UserID,
		Code:              r.Code,
		HolderName:        r.HolderName,
		CurriculumVersion: r.CurriculumVersion,
		IssuedAt:          r.IssuedAt.Time,
	}
}

type badgeRepository struct {
	db *sqlx.DB
}

var _ badge.Repository = (*badgeRepository)(nil) // interface compliance check

func NewBadgeRepository(db *sqlx.DB) *badgeRepository {
	return &badgeRepository{db: db}
}

func (repo badgeRepository) CreateBadge(b badge.Badge) (badge.Badge, error) {
	var saved badgeRow
	err := repo.db.Get(&saved, `
		INSERT INTO badge (id, user_id, phase, phase_slug, phase_name, awarded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`,
		uuid.New().String(), b.UserID, b.Phase, b.PhaseSlug, b.PhaseName,
		null.NewTime(b.AwardedAt.UTC(), !b.AwardedAt.IsZero()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return badge.Badge{}, badge.ErrBadgeExists
		}
		return badge.Badge{}, errors.Wrap(err, "inserting badge")
	}
	return saved.toBadge(), nil
}

func (repo badgeRepository) GetBadge(userID string, phase int) (badge.Badge, error) {
	var row badgeRow
	err := repo.db.Get(&row, `SELECT * FROM badge WHERE user_id = $1 AND phase = $2`, userID, phase)
	if err != nil {
		if err == sql.ErrNoRows {
			return badge.Badge{}, badge.ErrBadgeNotFound
		}
		return badge.Badge{}, errors.Wrap(err, "getting badge")
	}
	return row.toBadge(), nil
}

func (repo badgeRepository) QueryUserBadges(userID string) ([]badge.Badge, error) {
	var rows []badgeRow
	err := repo.db.Select(&rows, `SELECT * FROM badge WHERE user_id = $1 ORDER BY phase`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user badges")
	}
	badges := make([]badge.Badge, 0, len(rows))
	for _, r := range rows {
		badges = append(badges, r.toBadge())
	}
	return badges, nil
}

func (repo badgeRepository) CreateCertificate(c badge.Certificate) (badge.Certificate, error) {
	var saved certificateRow
	err := repo.db.Get(&saved, `
		INSERT INTO certificate (id, user_id, code, holder_name, curriculum_version, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`,
		uuid.New().String(), c.UserID, c.Code, c.HolderName, c.CurriculumVersion,
		null.NewTime(c.IssuedAt.UTC(), !c.IssuedAt.IsZero()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return badge.Certificate{}, badge.ErrCertificateExists
		}
		return badge.Certificate{}, errors.Wrap(err, "inserting certificate")
	}
	return saved.toCertificate(), nil
}

func (repo badgeRepository) GetUserCertificate(userID string) (badge.Certificate, error) {
	var row certificateRow
	err := repo.db.Get(&row, `SELECT * FROM certificate WHERE user_id = $1`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return badge.Certificate{}, badge.ErrCertificateNotFound
		}
		return badge.Certificate{}, errors.Wrap(err, "getting certificate")
	}
	return row.toCertificate(), nil
}

func (repo badgeRepository) GetCertificateByCode(code string) (badge.Certificate, error) {
	var row certificateRow
	err := repo.db.Get(&row, `SELECT * FROM certificate WHERE code = $1`, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return badge.Certificate{}, badge.ErrCertificateNotFound
		}
		return badge.Certificate{}, errors.Wrap(err, "getting certificate by code")
	}
	return row.toCertificate(), nil
}
