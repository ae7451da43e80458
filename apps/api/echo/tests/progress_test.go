package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	. "github.com/learntocloud/ltc-backend/apps/api/echo"
	"github.com/learntocloud/ltc-backend/core/progress"
	testutil "github.com/learntocloud/ltc-backend/tests"
)

func toggleItem(t *testing.T, env *testEnv, token string, phase int, topic, kind, itemID string, done bool) ToggleResponse {
	t.Helper()

	body := []byte(fmt.Sprintf(
		`{"phase": %d, "topic": %q, "kind": %q, "item_id": %q, "done": %t}`,
		phase, topic, kind, itemID, done,
	))
	req, rec := newAuthRequest(http.MethodPost, "/v1/progress/toggle", token, body)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("toggle %s/%s failed! code = %v; body = %s", kind, itemID, rec.Code, rec.Body.String())
	}
	var res ToggleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshalling ToggleResponse: %v", err)
	}
	return res
}

func getDashboard(t *testing.T, env *testEnv, token string) DashboardResponse {
	t.Helper()

	req, rec := newAuthRequest(http.MethodGet, "/v1/progress/dashboard", token)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var res DashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshalling DashboardResponse: %v", err)
	}
	return res
}

func Test_progressApi_toggle(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Lone Learner", "learner", "learner@test.ltc", "Password#1", nil, true)
	token := getToken(t, env.conf, usr)

	tests := []httpTest{
		{
			name: "Auth required", body: []byte(`{}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "required fields", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"topic":   "this field is required",
				"kind":    "this field is required",
				"item_id": "this field is required",
			}),
		},
		{
			name: "invalid kind", token: token,
			body:     []byte(`{"phase": 0, "topic": "basics", "kind": "chore", "item_id": "s1", "done": true}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown phase", token: token,
			body:     []byte(`{"phase": 42, "topic": "basics", "kind": "step", "item_id": "s1", "done": true}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"phase": "phase not found"}),
		},
		{
			name: "unknown topic", token: token,
			body:     []byte(`{"phase": 0, "topic": "nope", "kind": "step", "item_id": "s1", "done": true}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"topic": "topic not found"}),
		},
		{
			name: "unknown item", token: token,
			body:     []byte(`{"phase": 0, "topic": "basics", "kind": "step", "item_id": "nope", "done": true}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"item_id": `unknown step "nope" in topic "basics"`}),
		},
		{
			name: "locked phase", token: token,
			body:     []byte(`{"phase": 1, "topic": "shell", "kind": "step", "item_id": "s1", "done": true}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "phase is locked"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/progress/toggle", tt.token, tt.body)
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

	t.Run("check and uncheck a step", func(t *testing.T) {
		res := toggleItem(t, env, token, 0, "basics", progress.KindStep, "s1", true)
		if !res.Record.Done || res.Record.ItemID != "s1" || res.Record.Kind != progress.KindStep {
			t.Errorf("unexpected record: %+v", res.Record)
		}
		if res.Record.CompletedAt.IsZero() {
			t.Error("expected CompletedAt to be set")
		}
		if len(res.AwardedBadges) > 0 || res.Certificate != nil {
			t.Errorf("no awards expected yet; got %+v", res)
		}

		res = toggleItem(t, env, token, 0, "basics", progress.KindStep, "s1", false)
		if res.Record.Done {
			t.Errorf("expected record unchecked; got %+v", res.Record)
		}
		if !res.Record.CompletedAt.IsZero() {
			t.Error("expected CompletedAt cleared on uncheck")
		}
	})
}

func Test_progressApi_completion(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Keen Learner", "keen", "keen@test.ltc", "Password#1", nil, true)
	token := getToken(t, env.conf, usr)

	// phase 0 has two steps and one question; completing the last one must
	// award the phase badge in the same response
	toggleItem(t, env, token, 0, "basics", progress.KindStep, "s1", true)
	res := toggleItem(t, env, token, 0, "basics", progress.KindStep, "s2", true)
	if len(res.AwardedBadges) > 0 {
		t.Errorf("phase not complete yet; got badges %+v", res.AwardedBadges)
	}

	res = toggleItem(t, env, token, 0, "basics", progress.KindQuestion, "q1", true)
	if len(res.AwardedBadges) != 1 {
		t.Fatalf("expected 1 awarded badge; got %+v", res.AwardedBadges)
	}
	if b := res.AwardedBadges[0]; b.Phase != 0 || b.PhaseSlug != "orientation" {
		t.Errorf("unexpected badge: %+v", b)
	}
	if res.Certificate != nil {
		t.Errorf("curriculum not complete; got certificate %+v", res.Certificate)
	}

	// badges are idempotent and never revoked
	toggleItem(t, env, token, 0, "basics", progress.KindQuestion, "q1", false)
	res = toggleItem(t, env, token, 0, "basics", progress.KindQuestion, "q1", true)
	if len(res.AwardedBadges) != 0 {
		t.Errorf("badge must not be re-awarded; got %+v", res.AwardedBadges)
	}

	t.Run("completed phase unlocks the next", func(t *testing.T) {
		d := getDashboard(t, env, token)
		if d.CompletedPhases != 1 || d.TotalPhases != 2 || d.Percent != 50 {
			t.Errorf("unexpected dashboard aggregates: %+v", d.Dashboard)
		}
		if got := d.Phases[0].Status; got != progress.StatusCompleted {
			t.Errorf("phase 0 status = %q; want %q", got, progress.StatusCompleted)
		}
		if got := d.Phases[1].Status; got != progress.StatusUnlocked {
			t.Errorf("phase 1 status = %q; want %q", got, progress.StatusUnlocked)
		}
		if len(d.Badges) != 1 {
			t.Errorf("expected 1 badge on dashboard; got %+v", d.Badges)
		}
		if d.Certificate != nil {
			t.Errorf("no certificate expected; got %+v", d.Certificate)
		}
	})

	t.Run("phase 1 accepts toggles once unlocked", func(t *testing.T) {
		res := toggleItem(t, env, token, 1, "shell", progress.KindChecklist, "c1", true)
		if !res.Record.Done {
			t.Errorf("unexpected record: %+v", res.Record)
		}

		d := getDashboard(t, env, token)
		if got := d.Phases[1].Status; got != progress.StatusInProgress {
			t.Errorf("phase 1 status = %q; want %q", got, progress.StatusInProgress)
		}
	})
}

func Test_progressApi_retrieve(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Ret Riever", "retriever", "ret@test.ltc", "Password#1", nil, true)
	token := getToken(t, env.conf, usr)

	toggleItem(t, env, token, 0, "basics", progress.KindStep, "s1", true)

	t.Run("phase progress", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/progress/phases/0", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}

		var pp progress.PhaseProgress
		if err := json.Unmarshal(rec.Body.Bytes(), &pp); err != nil {
			t.Fatalf("unmarshalling PhaseProgress: %v", err)
		}
		if pp.Status != progress.StatusInProgress {
			t.Errorf("status = %q; want %q", pp.Status, progress.StatusInProgress)
		}
		if pp.Steps.Done != 1 || pp.Steps.Total != 2 {
			t.Errorf("unexpected steps aggregate: %+v", pp.Steps)
		}
		if pp.HandsOnRequired {
			t.Error("phase 0 has no hands-on requirement")
		}
	})

	t.Run("topic progress", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/progress/phases/0/topics/basics", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}

		var tp progress.TopicProgress
		if err := json.Unmarshal(rec.Body.Bytes(), &tp); err != nil {
			t.Fatalf("unmarshalling TopicProgress: %v", err)
		}
		if tp.Steps.Done != 1 || tp.Questions.Done != 0 {
			t.Errorf("unexpected aggregates: steps %+v questions %+v", tp.Steps, tp.Questions)
		}
		if len(tp.DoneItemIDs) != 1 || tp.DoneItemIDs[0] != "s1" {
			t.Errorf("unexpected done items: %v", tp.DoneItemIDs)
		}
	})

	tests := []httpTest{
		{name: "Auth required", path: "/v1/progress/phases/0", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "unknown phase", path: "/v1/progress/phases/42", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "phase not a number", path: "/v1/progress/phases/one", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "unknown topic", path: "/v1/progress/phases/0/topics/nope", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_progressApi_reset(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Fresh Start", "fresh", "fresh@test.ltc", "Password#1", nil, true)
	token := getToken(t, env.conf, usr)

	// complete phase 0 to earn the badge
	toggleItem(t, env, token, 0, "basics", progress.KindStep, "s1", true)
	toggleItem(t, env, token, 0, "basics", progress.KindStep, "s2", true)
	toggleItem(t, env, token, 0, "basics", progress.KindQuestion, "q1", true)

	req, rec := newAuthRequest(http.MethodDelete, "/v1/progress", token)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}

	// records are gone but the badge survives
	d := getDashboard(t, env, token)
	if d.CompletedPhases != 0 {
		t.Errorf("expected no completed phases after reset; got %d", d.CompletedPhases)
	}
	if got := d.Phases[0].Steps.Done; got != 0 {
		t.Errorf("expected 0 done steps after reset; got %d", got)
	}
	if len(d.Badges) != 1 {
		t.Errorf("badges must survive a reset; got %+v", d.Badges)
	}
}
