package progress

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/learntocloud/ltc-backend/core"
	"github.com/learntocloud/ltc-backend/core/curriculum"
)

var (
	// errors
	ErrPhaseLocked = errors.New("phase is locked; complete the previous phase first")
)

type (
	Repository interface {
		// UpsertRecord creates or replaces the record identified by
		// (UserID, Phase, TopicSlug, Kind, ItemID).
		UpsertRecord(rec Record) (Record, error)
		GetPhaseRecords(userID string, phase int) ([]Record, error)
		GetTopicRecords(userID string, phase int, topicSlug string) ([]Record, error)
		QueryUserRecords(userID string) ([]Record, error)
		DeleteUserRecords(userID string) error
	}

	// SubmissionChecker reports hands-on verification state; implemented by
	// the hands-on service.
	SubmissionChecker interface {
		IsPhaseVerified(userID string, phase int) (bool, error)
	}

	// DashboardCache is an optional read-through cache for dashboard
	// payloads. Implementations must treat it as best-effort: a miss or a
	// backend outage only costs a recomputation.
	DashboardCache interface {
		GetDashboard(userID string) (Dashboard, bool)
		SetDashboard(userID string, d Dashboard)
		Invalidate(userID string)
	}

	Service interface {
		ToggleItem(userID string, ti ToggleItem) (Record, error)
		TopicProgress(userID string, phase int, topicSlug string) (TopicProgress, error)
		PhaseProgress(userID string, phase int) (PhaseProgress, error)
		Dashboard(userID string) (Dashboard, error)
		PhaseCompleted(userID string, phase int) (bool, error)
		PhaseUnlocked(userID string, phase int) (bool, error)
		ResetUser(userID string) error
	}

	service struct {
		catalog *curriculum.Catalog
		repo    Repository
		subs    SubmissionChecker
		cache   DashboardCache
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(catalog *curriculum.Catalog, repo Repository, subs SubmissionChecker, cache DashboardCache, conf *core.Config) Service {
	return &service{
		catalog: catalog,
		repo:    repo,
		subs:    subs,
		cache:   cache,
		conf:    conf,
	}
}

func (svc *service) ToggleItem(userID string, ti ToggleItem) (Record, error) {
	topic, err := svc.catalog.Topic(ti.Phase, ti.TopicSlug)
	if err != nil {
		switch errors.Cause(err) {
		case curriculum.ErrPhaseNotFound:
			return Record{}, core.NewValidationError(err, core.FieldError{Field: "phase", Error: err.Error()})
		case curriculum.ErrTopicNotFound:
			return Record{}, core.NewValidationError(err, core.FieldError{Field: "topic", Error: err.Error()})
		default:
			return Record{}, err
		}
	}

	var known bool
	switch ti.Kind {
	case KindStep:
		_, known = topic.Step(ti.ItemID)
	case KindQuestion:
		_, known = topic.Question(ti.ItemID)
	case KindChecklist:
		_, known = topic.ChecklistEntry(ti.ItemID)
	}
	if !known {
		return Record{}, core.NewValidationError(nil, core.FieldError{
			Field: "item_id",
			Error: fmt.Sprintf("unknown %s %q in topic %q", ti.Kind, ti.ItemID, ti.TopicSlug),
		})
	}

	unlocked, err := svc.PhaseUnlocked(userID, ti.Phase)
	if err != nil {
		return Record{}, errors.Wrap(err, "checking phase unlock")
	}
	if !unlocked {
		return Record{}, ErrPhaseLocked
	}

	now := time.Now().UTC()
	rec := Record{
		UserID:    userID,
		Phase:     ti.Phase,
		TopicSlug: ti.TopicSlug,
		Kind:      ti.Kind,
		ItemID:    ti.ItemID,
		Done:      ti.Done,
		UpdatedAt: now,
	}
	if ti.Done {
		rec.CompletedAt = now
	}
	rec, err = svc.repo.UpsertRecord(rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "upserting progress record")
	}

	if svc.cache != nil {
		svc.cache.Invalidate(userID)
	}
	return rec, nil
}

func (svc *service) TopicProgress(userID string, phase int, topicSlug string) (TopicProgress, error) {
	topic, err := svc.catalog.Topic(phase, topicSlug)
	if err != nil {
		return TopicProgress{}, err
	}
	recs, err := svc.repo.GetTopicRecords(userID, phase, topicSlug)
	if err != nil {
		return TopicProgress{}, errors.Wrap(err, "querying topic records")
	}

	tp := TopicProgress{
		Phase:       phase,
		TopicSlug:   topicSlug,
		DoneItemIDs: make([]string, 0, len(recs)),
	}
	var doneSteps, doneQuestions, doneChecklist int
	for _, rec := range recs {
		if !rec.Done {
			continue
		}
		// stale records for items removed from the content are ignored
		switch rec.Kind {
		case KindStep:
			if _, ok := topic.Step(rec.ItemID); ok {
				doneSteps++
				tp.DoneItemIDs = append(tp.DoneItemIDs, rec.ItemID)
			}
		case KindQuestion:
			if _, ok := topic.Question(rec.ItemID); ok {
				doneQuestions++
				tp.DoneItemIDs = append(tp.DoneItemIDs, rec.ItemID)
			}
		case KindChecklist:
			if _, ok := topic.ChecklistEntry(rec.ItemID); ok {
				doneChecklist++
				tp.DoneItemIDs = append(tp.DoneItemIDs, rec.ItemID)
			}
		}
	}

	tp.Steps = KindProgress{Done: doneSteps, Total: len(topic.Steps), Percent: percent(doneSteps, len(topic.Steps))}
	tp.Questions = KindProgress{Done: doneQuestions, Total: len(topic.Questions), Percent: percent(doneQuestions, len(topic.Questions))}
	tp.Checklist = KindProgress{Done: doneChecklist, Total: len(topic.Checklist), Percent: percent(doneChecklist, len(topic.Checklist))}
	return tp, nil
}

func (svc *service) PhaseProgress(userID string, phase int) (PhaseProgress, error) {
	pp, err := svc.phaseProgress(userID, phase)
	if err != nil {
		return PhaseProgress{}, err
	}

	unlocked, err := svc.PhaseUnlocked(userID, phase)
	if err != nil {
		return PhaseProgress{}, err
	}
	pp.Status = svc.status(pp, unlocked)
	return pp, nil
}

// phaseProgress computes aggregates without the unlock check (status is left
// empty); Dashboard fills statuses in a single sequential pass instead.
func (svc *service) phaseProgress(userID string, phase int) (PhaseProgress, error) {
	ph, err := svc.catalog.Phase(phase)
	if err != nil {
		return PhaseProgress{}, err
	}
	recs, err := svc.repo.GetPhaseRecords(userID, phase)
	if err != nil {
		return PhaseProgress{}, errors.Wrap(err, "querying phase records")
	}

	var doneSteps, doneQuestions, doneChecklist int
	for _, rec := range recs {
		if !rec.Done {
			continue
		}
		topic, ok := ph.Topic(rec.TopicSlug)
		if !ok {
			continue
		}
		switch rec.Kind {
		case KindStep:
			if _, ok = topic.Step(rec.ItemID); ok {
				doneSteps++
			}
		case KindQuestion:
			if _, ok = topic.Question(rec.ItemID); ok {
				doneQuestions++
			}
		case KindChecklist:
			if _, ok = topic.ChecklistEntry(rec.ItemID); ok {
				doneChecklist++
			}
		}
	}

	pp := PhaseProgress{
		Phase:           ph.Number,
		Slug:            ph.Slug,
		Name:            ph.Name,
		Steps:           KindProgress{Done: doneSteps, Total: ph.StepCount(), Percent: percent(doneSteps, ph.StepCount())},
		Questions:       KindProgress{Done: doneQuestions, Total: ph.QuestionCount(), Percent: percent(doneQuestions, ph.QuestionCount())},
		Checklist:       KindProgress{Done: doneChecklist, Total: ph.ChecklistCount(), Percent: percent(doneChecklist, ph.ChecklistCount())},
		HandsOnRequired: ph.RequiresHandsOn(),
	}

	if pp.HandsOnRequired {
		verified, err := svc.subs.IsPhaseVerified(userID, phase)
		if err != nil {
			return PhaseProgress{}, errors.Wrap(err, "checking hands-on verification")
		}
		pp.HandsOnVerified = verified
	}

	// overall percent counts steps, questions and the hands-on requirement
	// as one unit each; checklist items are informational only
	units := pp.Steps.Total + pp.Questions.Total
	doneUnits := pp.Steps.Done + pp.Questions.Done
	if pp.HandsOnRequired {
		units++
		if pp.HandsOnVerified {
			doneUnits++
		}
	}
	pp.Percent = percent(doneUnits, units)
	return pp, nil
}

func (svc *service) status(pp PhaseProgress, unlocked bool) string {
	switch {
	case !unlocked:
		return StatusLocked
	case pp.Completed():
		return StatusCompleted
	case pp.Steps.Done > 0 || pp.Questions.Done > 0 || pp.Checklist.Done > 0 || pp.HandsOnVerified:
		return StatusInProgress
	default:
		return StatusUnlocked
	}
}

func (svc *service) Dashboard(userID string) (Dashboard, error) {
	if svc.cache != nil {
		if d, ok := svc.cache.GetDashboard(userID); ok {
			return d, nil
		}
	}

	phases := svc.catalog.Phases()
	d := Dashboard{
		UserID:            userID,
		CurriculumVersion: svc.conf.CurriculumVersion,
		Phases:            make([]PhaseProgress, 0, len(phases)),
		TotalPhases:       len(phases),
	}

	prevCompleted := true // phase 0 is always unlocked
	for _, ph := range phases {
		pp, err := svc.phaseProgress(userID, ph.Number)
		if err != nil {
			return Dashboard{}, err
		}
		pp.Status = svc.status(pp, prevCompleted)
		if pp.Status == StatusCompleted {
			d.CompletedPhases++
		}
		prevCompleted = pp.Completed()
		d.Phases = append(d.Phases, pp)
	}
	d.Percent = percent(d.CompletedPhases, d.TotalPhases)

	if svc.cache != nil {
		svc.cache.SetDashboard(userID, d)
	}
	return d, nil
}

func (svc *service) PhaseCompleted(userID string, phase int) (bool, error) {
	pp, err := svc.phaseProgress(userID, phase)
	if err != nil {
		return false, err
	}
	return pp.Completed(), nil
}

// PhaseUnlocked applies the sequential unlocking rule: phase 0 is always
// unlocked, phase N requires phase N-1 completed.
func (svc *service) PhaseUnlocked(userID string, phase int) (bool, error) {
	if _, err := svc.catalog.Phase(phase); err != nil {
		return false, err
	}
	if phase == 0 {
		return true, nil
	}
	return svc.PhaseCompleted(userID, phase-1)
}

// ResetUser wipes all progress records for a user. Admin repair tool.
func (svc *service) ResetUser(userID string) error {
	if err := svc.repo.DeleteUserRecords(userID); err != nil {
		return errors.Wrap(err, "deleting user records")
	}
	if svc.cache != nil {
		svc.cache.Invalidate(userID)
	}
	return nil
}
