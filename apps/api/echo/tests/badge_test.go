package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/learntocloud/ltc-backend/core/badge"
	"github.com/learntocloud/ltc-backend/core/progress"
	testutil "github.com/learntocloud/ltc-backend/tests"
)

func Test_badgeApi_queryBadges(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Col Lector", "collector", "col@test.ltc", "Password#1", nil, true)
	token := getToken(t, env.conf, usr)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/badges")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("no badges yet", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/badges", token)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)
	})

	// earn the phase 0 badge
	toggleItem(t, env, token, 0, "basics", progress.KindStep, "s1", true)
	toggleItem(t, env, token, 0, "basics", progress.KindStep, "s2", true)
	toggleItem(t, env, token, 0, "basics", progress.KindQuestion, "q1", true)

	t.Run("earned badge listed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/badges", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var badges []badge.Badge
		if err := json.Unmarshal(rec.Body.Bytes(), &badges); err != nil {
			t.Fatalf("unmarshalling badges: %v", err)
		}
		if len(badges) != 1 || badges[0].Phase != 0 || badges[0].PhaseName != "Orientation" {
			t.Errorf("unexpected badges: %+v", badges)
		}
	})
}

func Test_badgeApi_certificate(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Ada Lovelace", "ada", "ada@test.ltc", "Password#1", nil, true)
	token := getToken(t, env.conf, usr)

	t.Run("none issued", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/badges/certificate", token)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("unknown verification code", func(t *testing.T) {
		// public endpoint, no token needed
		req, rec := newRequest(http.MethodGet, "/v1/certificates/verify/no-such-code")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	// complete the whole curriculum
	toggleItem(t, env, token, 0, "basics", progress.KindStep, "s1", true)
	toggleItem(t, env, token, 0, "basics", progress.KindStep, "s2", true)
	toggleItem(t, env, token, 0, "basics", progress.KindQuestion, "q1", true)
	toggleItem(t, env, token, 1, "shell", progress.KindStep, "s1", true)
	toggleItem(t, env, token, 1, "shell", progress.KindQuestion, "q1", true)
	res := submitHandsOn(t, env, token, 1, "https://github.com/ada/journal")
	if res.Certificate == nil {
		t.Fatal("expected a certificate on full completion")
	}

	t.Run("issued certificate retrieved", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/badges/certificate", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var cert badge.Certificate
		if err := json.Unmarshal(rec.Body.Bytes(), &cert); err != nil {
			t.Fatalf("unmarshalling certificate: %v", err)
		}
		if cert.Code != res.Certificate.Code || cert.HolderName != "Ada Lovelace" {
			t.Errorf("unexpected certificate: %+v", cert)
		}
	})

	t.Run("public verification resolves the code", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/certificates/verify/"+res.Certificate.Code)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var cert badge.Certificate
		if err := json.Unmarshal(rec.Body.Bytes(), &cert); err != nil {
			t.Fatalf("unmarshalling certificate: %v", err)
		}
		if cert.HolderName != "Ada Lovelace" || cert.CurriculumVersion != env.conf.CurriculumVersion {
			t.Errorf("unexpected certificate: %+v", cert)
		}
	})
}
