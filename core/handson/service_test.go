package handson

import (
	"context"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/learntocloud/ltc-backend/core/curriculum"
)

// fakeRepo is a map-backed Repository.
type fakeRepo struct {
	subs map[string]Submission
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subs: make(map[string]Submission)}
}

func (r *fakeRepo) key(userID string, phase int) string {
	return fmt.Sprintf("%s|%d", userID, phase)
}

func (r *fakeRepo) UpsertSubmission(sub Submission) (Submission, error) {
	key := r.key(sub.UserID, sub.Phase)
	if existing, ok := r.subs[key]; ok {
		sub.ID = existing.ID
	} else {
		sub.ID = uuid.New().String()
	}
	r.subs[key] = sub
	return sub, nil
}

func (r *fakeRepo) GetSubmission(userID string, phase int) (Submission, error) {
	sub, ok := r.subs[r.key(userID, phase)]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return sub, nil
}

func (r *fakeRepo) QueryUserSubmissions(userID string) ([]Submission, error) {
	var out []Submission
	for _, sub := range r.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

var testContent = fstest.MapFS{
	"content/phase0.yml": &fstest.MapFile{Data: []byte(`
number: 0
slug: orientation
name: Orientation
topics:
  - slug: basics
    name: Basics
    steps:
      - id: s1
        title: First step
`)},
	"content/phase1.yml": &fstest.MapFile{Data: []byte(`
number: 1
slug: linux
name: Linux
topics:
  - slug: shell
    name: The Shell
    steps:
      - id: s1
        title: Open a terminal
hands_on:
  project: journal
  artifacts:
    - README.md
    - setup.sh
`)},
}

// fakeInvalidator records dashboard cache drops per user.
type fakeInvalidator struct {
	dropped map[string]int
}

func (c *fakeInvalidator) Invalidate(userID string) {
	if c.dropped == nil {
		c.dropped = make(map[string]int)
	}
	c.dropped[userID]++
}

func newTestService(t *testing.T, verifier Verifier, cache CacheInvalidator) (Service, *fakeRepo) {
	t.Helper()

	catalog, err := curriculum.LoadFS(testContent, "content")
	if err != nil {
		t.Fatalf("loading test catalog: %v", err)
	}
	repo := newFakeRepo()
	return NewService(catalog, repo, verifier, cache), repo
}

func Test_service_Submit(t *testing.T) {
	stub := &VerifierStub{Pass: true}
	svc, _ := newTestService(t, stub, nil)
	ctx := context.Background()

	t.Run("unknown phase", func(t *testing.T) {
		_, err := svc.Submit(ctx, "u1", NewSubmission{Phase: 9, RepoURL: "https://github.com/u1/journal"})
		if errors.Cause(err) != curriculum.ErrPhaseNotFound {
			t.Errorf("Submit() error = %v; want ErrPhaseNotFound", err)
		}
	})

	t.Run("phase without hands-on", func(t *testing.T) {
		_, err := svc.Submit(ctx, "u1", NewSubmission{Phase: 0, RepoURL: "https://github.com/u1/journal"})
		if errors.Cause(err) != ErrNoHandsOnRequired {
			t.Errorf("Submit() error = %v; want ErrNoHandsOnRequired", err)
		}
	})

	t.Run("verified submission", func(t *testing.T) {
		sub, err := svc.Submit(ctx, "u1", NewSubmission{Phase: 1, RepoURL: "https://github.com/u1/journal"})
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		if sub.Status != StatusVerified || sub.VerifiedAt.IsZero() {
			t.Errorf("unexpected submission: %+v", sub)
		}
		if len(sub.Checks) != 3 { // repo-url + 2 artifacts
			t.Errorf("unexpected checks: %+v", sub.Checks)
		}

		if verified, err := svc.IsPhaseVerified("u1", 1); err != nil || !verified {
			t.Errorf("IsPhaseVerified() = %v, %v; want true", verified, err)
		}
	})

	t.Run("rejected resubmission replaces the previous one", func(t *testing.T) {
		stub.Pass = false
		sub, err := svc.Submit(ctx, "u1", NewSubmission{Phase: 1, RepoURL: "https://github.com/u1/journal-v2"})
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		if sub.Status != StatusRejected || !sub.VerifiedAt.IsZero() {
			t.Errorf("unexpected submission: %+v", sub)
		}

		subs, err := svc.QueryAll("u1")
		if err != nil {
			t.Fatalf("QueryAll() failed: %v", err)
		}
		if len(subs) != 1 || subs[0].RepoURL != "https://github.com/u1/journal-v2" {
			t.Errorf("expected a single replaced submission; got %+v", subs)
		}

		// a rejected resubmission withdraws the earlier verification
		if verified, _ := svc.IsPhaseVerified("u1", 1); verified {
			t.Error("IsPhaseVerified() must follow the latest submission")
		}
	})
}

func Test_service_Submit_invalidatesDashboardCache(t *testing.T) {
	stub := &VerifierStub{Pass: true}
	cache := &fakeInvalidator{}
	svc, _ := newTestService(t, stub, cache)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "u1", NewSubmission{Phase: 1, RepoURL: "https://github.com/u1/journal"}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if cache.dropped["u1"] != 1 {
		t.Errorf("cache.dropped[u1] = %d; want 1", cache.dropped["u1"])
	}

	// a rejected resubmission also changes the dashboard's hands-on state
	stub.Pass = false
	if _, err := svc.Submit(ctx, "u1", NewSubmission{Phase: 1, RepoURL: "https://github.com/u1/journal-v2"}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if cache.dropped["u1"] != 2 {
		t.Errorf("cache.dropped[u1] = %d; want 2", cache.dropped["u1"])
	}

	// a failed submission must not touch the cache
	if _, err := svc.Submit(ctx, "u2", NewSubmission{Phase: 0, RepoURL: "https://github.com/u2/journal"}); errors.Cause(err) != ErrNoHandsOnRequired {
		t.Fatalf("Submit() error = %v; want ErrNoHandsOnRequired", err)
	}
	if cache.dropped["u2"] != 0 {
		t.Errorf("cache.dropped[u2] = %d; want 0", cache.dropped["u2"])
	}
}

func Test_service_Get(t *testing.T) {
	svc, _ := newTestService(t, &VerifierStub{Pass: true}, nil)

	if _, err := svc.Get("u1", 1); errors.Cause(err) != ErrNotFound {
		t.Errorf("Get() error = %v; want ErrNotFound", err)
	}
	if verified, err := svc.IsPhaseVerified("u1", 1); err != nil || verified {
		t.Errorf("IsPhaseVerified() = %v, %v; want false without a submission", verified, err)
	}

	if _, err := svc.Submit(context.Background(), "u1", NewSubmission{Phase: 1, RepoURL: "https://github.com/u1/journal"}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	sub, err := svc.Get("u1", 1)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if sub.Phase != 1 || sub.UserID != "u1" {
		t.Errorf("unexpected submission: %+v", sub)
	}
}
