package progress

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/learntocloud/ltc-backend/core"
)

// Item kinds a learner can check off.
const (
	KindStep      = "step"
	KindQuestion  = "question"
	KindChecklist = "checklist"
)

// Phase statuses. Phases unlock sequentially: phase 0 is always unlocked,
// phase N unlocks once phase N-1 is completed.
const (
	StatusLocked     = "locked"
	StatusUnlocked   = "unlocked"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type (
	// Record is one learner's completion state for one curriculum item.
	Record struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user_id"`
		Phase       int       `json:"phase"`
		TopicSlug   string    `json:"topic"`
		Kind        string    `json:"kind"`
		ItemID      string    `json:"item_id"`
		Done        bool      `json:"done"`
		CompletedAt time.Time `json:"completed_at"` // UTC; zero when not done
		UpdatedAt   time.Time `json:"updated_at"`   // UTC
	}

	// ToggleItem is the payload for checking/unchecking a curriculum item.
	ToggleItem struct {
		Phase     int    `json:"phase" validate:"gte=0"`
		TopicSlug string `json:"topic" validate:"required,slug"`
		Kind      string `json:"kind" validate:"required,oneof=step question checklist"`
		ItemID    string `json:"item_id" validate:"required,slug"`
		Done      bool   `json:"done"`
	}

	// KindProgress aggregates completion for one item kind.
	KindProgress struct {
		Done    int     `json:"done"`
		Total   int     `json:"total"`
		Percent float64 `json:"percent"`
	}

	// TopicProgress is the per-topic payload merged into topic detail responses.
	TopicProgress struct {
		Phase       int          `json:"phase"`
		TopicSlug   string       `json:"topic"`
		Steps       KindProgress `json:"steps"`
		Questions   KindProgress `json:"questions"`
		Checklist   KindProgress `json:"checklist"`
		DoneItemIDs []string     `json:"done_item_ids"`
	}

	// PhaseProgress is the per-phase aggregate: item kind percentages,
	// hands-on state and the resulting status.
	PhaseProgress struct {
		Phase           int          `json:"phase"`
		Slug            string       `json:"slug"`
		Name            string       `json:"name"`
		Status          string       `json:"status"`
		Steps           KindProgress `json:"steps"`
		Questions       KindProgress `json:"questions"`
		Checklist       KindProgress `json:"checklist"`
		HandsOnRequired bool         `json:"hands_on_required"`
		HandsOnVerified bool         `json:"hands_on_verified"`
		Percent         float64      `json:"percent"`
	}

	// Dashboard is the all-phases payload backing the learner dashboard.
	Dashboard struct {
		UserID            string          `json:"user_id"`
		CurriculumVersion string          `json:"curriculum_version"`
		Phases            []PhaseProgress `json:"phases"`
		CompletedPhases   int             `json:"completed_phases"`
		TotalPhases       int             `json:"total_phases"`
		Percent           float64         `json:"percent"`
	}
)

func (ti *ToggleItem) Validate(validate *validator.Validate) error {
	ti.TopicSlug = core.CleanString(ti.TopicSlug, true /* lower */)
	ti.Kind = core.CleanString(ti.Kind, true /* lower */)
	ti.ItemID = core.CleanString(ti.ItemID, true /* lower */)
	return validate.Struct(ti)
}

// Complete reports whether every item of the kind is done. A kind with no
// items counts as complete.
func (kp KindProgress) Complete() bool {
	return kp.Done >= kp.Total
}

// Completed reports whether the phase meets the completion rule:
// all steps done, all questions answered and the hands-on requirement
// verified (when the phase has one). Checklist items do not gate completion.
func (pp PhaseProgress) Completed() bool {
	if !pp.Steps.Complete() || !pp.Questions.Complete() {
		return false
	}
	if pp.HandsOnRequired && !pp.HandsOnVerified {
		return false
	}
	return true
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
