package handson

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/learntocloud/ltc-backend/core"
)

// Submission statuses.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

type (
	// CheckResult is the outcome of one verification check.
	CheckResult struct {
		Name   string `json:"name"`
		OK     bool   `json:"ok"`
		Detail string `json:"detail,omitempty"`
	}

	// Submission is a learner's hands-on project submission for a phase.
	// A learner has at most one active submission per phase; resubmitting
	// replaces it.
	Submission struct {
		ID          string        `json:"id"`
		UserID      string        `json:"user_id"`
		Phase       int           `json:"phase"`
		RepoURL     string        `json:"repo_url"`
		Status      string        `json:"status"`
		Checks      []CheckResult `json:"checks,omitempty"`
		SubmittedAt time.Time     `json:"submitted_at"` // UTC
		VerifiedAt  time.Time     `json:"verified_at"`  // UTC; zero unless verified
	}

	// NewSubmission contains information needed to submit a hands-on project.
	NewSubmission struct {
		Phase   int    `json:"phase" validate:"gte=0"`
		RepoURL string `json:"repo_url" validate:"required,url"`
	}
)

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.RepoURL = core.CleanString(ns.RepoURL)
	return validate.Struct(ns)
}

// Verified reports whether every check passed.
func Verified(checks []CheckResult) bool {
	for _, c := range checks {
		if !c.OK {
			return false
		}
	}
	return len(checks) > 0
}
