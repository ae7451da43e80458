package tests

import (
	"net/http"
	"testing"

	. "github.com/learntocloud/ltc-backend/apps/api/echo"
	"github.com/learntocloud/ltc-backend/core/user"
	testutil "github.com/learntocloud/ltc-backend/tests"
)

func Test_curriculumApi_queryPhases(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Lean Learner", "learner1", "learner@test.ltc", "Password#1", nil, true)

	wantData := marchallObj(t, []PhaseSummary{
		{Number: 0, Slug: "orientation", Name: "Orientation", TopicCount: 1, StepCount: 2, QuestionCount: 1},
		{Number: 1, Slug: "linux", Name: "Linux", TopicCount: 1, StepCount: 1, QuestionCount: 1, HandsOnRequired: true},
	})

	tests := []httpTest{
		{name: "requires auth", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "lists all phases", token: getToken(t, env.conf, usr), wantCode: http.StatusOK, wantData: wantData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/curriculum/phases", tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_curriculumApi_retrievePhase(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Lean Learner", "learner1", "learner@test.ltc", "Password#1", nil, true)
	admin := testutil.CreateUser(t, env.usrRepo, "Adah Min", "adahmin", "admin@test.ltc", "Password#1", user.AllRoles, true)

	tests := []httpTest{
		{name: "unknown phase", path: "/v1/curriculum/phases/9", token: getToken(t, env.conf, usr),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "non-numeric phase", path: "/v1/curriculum/phases/lol", token: getToken(t, env.conf, usr),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "phase 0 always unlocked", path: "/v1/curriculum/phases/0", token: getToken(t, env.conf, usr),
			wantCode: http.StatusOK},
		{name: "locked phase is hidden", path: "/v1/curriculum/phases/1", token: getToken(t, env.conf, usr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "phase is locked"})},
		{name: "admin bypasses the lock", path: "/v1/curriculum/phases/1", token: getToken(t, env.conf, admin),
			wantCode: http.StatusOK},
		{name: "topic in locked phase is hidden", path: "/v1/curriculum/phases/1/topics/shell", token: getToken(t, env.conf, usr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "phase is locked"})},
		{name: "unknown topic", path: "/v1/curriculum/phases/0/topics/lol", token: getToken(t, env.conf, usr),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "topic detail", path: "/v1/curriculum/phases/0/topics/basics", token: getToken(t, env.conf, usr),
			wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
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
}
