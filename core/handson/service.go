package handson

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/learntocloud/ltc-backend/core/curriculum"
)

var (
	// errors
	ErrNotFound          = errors.New("submission not found")
	ErrNoHandsOnRequired = errors.New("this phase has no hands-on requirement")
)

type (
	Repository interface {
		// UpsertSubmission creates or replaces the submission identified by
		// (UserID, Phase).
		UpsertSubmission(sub Submission) (Submission, error)
		GetSubmission(userID string, phase int) (Submission, error)
		QueryUserSubmissions(userID string) ([]Submission, error)
	}

	// Verifier runs the verification checks for a submission against the
	// phase's hands-on requirement.
	Verifier interface {
		Verify(ctx context.Context, repoURL string, req curriculum.HandsOn) []CheckResult
	}

	// CacheInvalidator drops a user's cached dashboard after a submission
	// write; satisfied by the progress dashboard cache. Optional.
	CacheInvalidator interface {
		Invalidate(userID string)
	}

	Service interface {
		Submit(ctx context.Context, userID string, ns NewSubmission) (Submission, error)
		Get(userID string, phase int) (Submission, error)
		QueryAll(userID string) ([]Submission, error)
		// IsPhaseVerified implements progress.SubmissionChecker.
		IsPhaseVerified(userID string, phase int) (bool, error)
	}

	service struct {
		catalog  *curriculum.Catalog
		repo     Repository
		verifier Verifier
		cache    CacheInvalidator
	}
)

var _ Service = (*service)(nil)

func NewService(catalog *curriculum.Catalog, repo Repository, verifier Verifier, cache CacheInvalidator) Service {
	return &service{
		catalog:  catalog,
		repo:     repo,
		verifier: verifier,
		cache:    cache,
	}
}

// Submit runs the verification checks synchronously and stores the outcome,
// replacing any previous submission for the phase.
func (svc *service) Submit(ctx context.Context, userID string, ns NewSubmission) (Submission, error) {
	phase, err := svc.catalog.Phase(ns.Phase)
	if err != nil {
		return Submission{}, err
	}
	if !phase.RequiresHandsOn() {
		return Submission{}, ErrNoHandsOnRequired
	}

	now := time.Now().UTC()
	sub := Submission{
		UserID:      userID,
		Phase:       ns.Phase,
		RepoURL:     ns.RepoURL,
		Status:      StatusPending,
		SubmittedAt: now,
	}

	sub.Checks = svc.verifier.Verify(ctx, ns.RepoURL, *phase.HandsOn)
	if Verified(sub.Checks) {
		sub.Status = StatusVerified
		sub.VerifiedAt = now
	} else {
		sub.Status = StatusRejected
	}

	sub, err = svc.repo.UpsertSubmission(sub)
	if err != nil {
		return Submission{}, errors.Wrap(err, "upserting submission")
	}

	// a submission changes the dashboard's hands-on state either way
	if svc.cache != nil {
		svc.cache.Invalidate(userID)
	}
	return sub, nil
}

func (svc *service) Get(userID string, phase int) (Submission, error) {
	return svc.repo.GetSubmission(userID, phase)
}

func (svc *service) QueryAll(userID string) ([]Submission, error) {
	return svc.repo.QueryUserSubmissions(userID)
}

func (svc *service) IsPhaseVerified(userID string, phase int) (bool, error) {
	sub, err := svc.repo.GetSubmission(userID, phase)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return sub.Status == StatusVerified, nil
}
