package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/learntocloud/ltc-backend/apps/api/echo"
	"github.com/learntocloud/ltc-backend/core/handson"
	"github.com/learntocloud/ltc-backend/core/progress"
	testutil "github.com/learntocloud/ltc-backend/tests"
)

func submitHandsOn(t *testing.T, env *testEnv, token string, phase int, repoURL string) SubmitResponse {
	t.Helper()

	body := marchallObj(t, handson.NewSubmission{Phase: phase, RepoURL: repoURL})
	req, rec := newAuthRequest(http.MethodPost, "/v1/handson/submissions", token, body)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("submit failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var res SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshalling SubmitResponse: %v", err)
	}
	return res
}

func Test_handsOnApi_submit(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Hans On", "hanson", "hans@test.ltc", "Password#1", nil, true)
	token := getToken(t, env.conf, usr)

	tests := []httpTest{
		{
			name: "Auth required", body: []byte(`{}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "required fields", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"repo_url": "this field is required"}),
		},
		{
			name: "invalid repo url", token: token,
			body:     []byte(`{"phase": 1, "repo_url": "not a url"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown phase", token: token,
			body:     []byte(`{"phase": 42, "repo_url": "https://github.com/hanson/journal"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "phase without hands-on", token: token,
			body:     []byte(`{"phase": 0, "repo_url": "https://github.com/hanson/journal"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"phase": "phase has no hands-on project"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/handson/submissions", tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			if tt.wantData == nil {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("rejected then verified", func(t *testing.T) {
		env.verifier.Pass = false
		res := submitHandsOn(t, env, token, 1, "https://github.com/hanson/journal")
		if res.Submission.Status != handson.StatusRejected {
			t.Errorf("status = %q; want %q", res.Submission.Status, handson.StatusRejected)
		}
		if len(res.Submission.Checks) != 2 { // repo-url + README.md
			t.Errorf("unexpected checks: %+v", res.Submission.Checks)
		}
		if !res.Submission.VerifiedAt.IsZero() {
			t.Error("VerifiedAt must stay zero on a rejected submission")
		}

		// resubmitting replaces the previous attempt
		env.verifier.Pass = true
		res = submitHandsOn(t, env, token, 1, "https://github.com/hanson/journal-v2")
		if res.Submission.Status != handson.StatusVerified {
			t.Errorf("status = %q; want %q", res.Submission.Status, handson.StatusVerified)
		}
		if res.Submission.RepoURL != "https://github.com/hanson/journal-v2" {
			t.Errorf("unexpected repo url: %q", res.Submission.RepoURL)
		}
		if res.Submission.VerifiedAt.IsZero() {
			t.Error("expected VerifiedAt to be set")
		}

		subs, err := env.handsOnSvc.QueryAll(usr.ID)
		if err != nil {
			t.Fatalf("QueryAll() failed: %v", err)
		}
		if len(subs) != 1 {
			t.Errorf("expected a single submission per phase; got %+v", subs)
		}
	})
}

func Test_handsOnApi_submitCompletesCurriculum(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Grad Uate", "graduate", "grad@test.ltc", "Password#1", nil, true)
	token := getToken(t, env.conf, usr)

	// finish phase 0, then every phase 1 item; the phase still isn't complete
	// because its hands-on project is unverified
	toggleItem(t, env, token, 0, "basics", progress.KindStep, "s1", true)
	toggleItem(t, env, token, 0, "basics", progress.KindStep, "s2", true)
	toggleItem(t, env, token, 0, "basics", progress.KindQuestion, "q1", true)
	toggleItem(t, env, token, 1, "shell", progress.KindStep, "s1", true)
	res := toggleItem(t, env, token, 1, "shell", progress.KindQuestion, "q1", true)
	if len(res.AwardedBadges) != 0 || res.Certificate != nil {
		t.Fatalf("phase 1 must stay incomplete without hands-on; got %+v", res)
	}

	d := getDashboard(t, env, token)
	if got := d.Phases[1].Status; got != progress.StatusInProgress {
		t.Fatalf("phase 1 status = %q; want %q", got, progress.StatusInProgress)
	}

	// a verified submission completes the phase and, with it, the curriculum
	sres := submitHandsOn(t, env, token, 1, "https://github.com/graduate/journal")
	if sres.Submission.Status != handson.StatusVerified {
		t.Fatalf("status = %q; want %q", sres.Submission.Status, handson.StatusVerified)
	}
	if len(sres.AwardedBadges) != 1 || sres.AwardedBadges[0].Phase != 1 {
		t.Errorf("expected the phase 1 badge; got %+v", sres.AwardedBadges)
	}
	if sres.Certificate == nil {
		t.Fatal("expected a certificate on full completion")
	}
	if sres.Certificate.Code == "" || sres.Certificate.HolderName != "Grad Uate" {
		t.Errorf("unexpected certificate: %+v", sres.Certificate)
	}

	d = getDashboard(t, env, token)
	if d.CompletedPhases != 2 || d.Percent != 100 {
		t.Errorf("unexpected dashboard aggregates: %+v", d.Dashboard)
	}
	if d.Certificate == nil {
		t.Error("expected the certificate on the dashboard")
	}
}

func Test_handsOnApi_retrieveAndQuery(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Sub Mitter", "subret", "subret@test.ltc", "Password#1", nil, true)
	token := getToken(t, env.conf, usr)

	t.Run("no submission yet", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/handson/phases/1", token)
		env.app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("empty list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/handson/submissions", token)
		env.app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}
		checkCodeAndData(t, tt, rec)
	})

	submitHandsOn(t, env, token, 1, "https://github.com/subret/journal")

	t.Run("retrieve after submit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/handson/phases/1", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var sub handson.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
			t.Fatalf("unmarshalling Submission: %v", err)
		}
		if sub.Phase != 1 || sub.Status != handson.StatusVerified {
			t.Errorf("unexpected submission: %+v", sub)
		}
	})

	t.Run("list after submit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/handson/submissions", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var subs []handson.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &subs); err != nil {
			t.Fatalf("unmarshalling submissions: %v", err)
		}
		if len(subs) != 1 {
			t.Errorf("expected 1 submission; got %+v", subs)
		}
	})
}
