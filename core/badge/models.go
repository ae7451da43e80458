package badge

import "time"

type (
	// Badge is the award granted the first time a phase reaches completion
	// (all steps, all questions, hands-on verified). Once awarded it is
	// never revoked, even if the learner later unchecks items.
	Badge struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user_id"`
		Phase     int       `json:"phase"`
		PhaseSlug string    `json:"phase_slug"`
		PhaseName string    `json:"phase_name"`
		AwardedAt time.Time `json:"awarded_at"` // UTC
	}

	// Certificate is issued once the whole curriculum is complete. Code is
	// the public verification code.
	Certificate struct {
		ID                string    `json:"id"`
		UserID            string    `json:"-"`
		Code              string    `json:"code"`
		HolderName        string    `json:"holder_name"`
		CurriculumVersion string    `json:"curriculum_version"`
		IssuedAt          time.Time `json:"issued_at"` // UTC
	}
)
