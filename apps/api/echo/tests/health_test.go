package tests

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"

	. "github.com/learntocloud/ltc-backend/apps/api/echo"
)

type pingerStub struct {
	err error
}

func (p pingerStub) Ping() error { return p.err }

func Test_health(t *testing.T) {
	okData := func(env *testEnv) []byte {
		return marchallObj(t, HealthResponse{Status: "ok", Env: env.conf.Env, Build: env.conf.Build})
	}

	t.Run("no DB configured", func(t *testing.T) {
		env := setup(t)
		req, rec := newRequest(http.MethodGet, "/health")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: okData(env)}, rec)
	})

	t.Run("DB up", func(t *testing.T) {
		env := setup(t, pingerStub{})
		req, rec := newRequest(http.MethodGet, "/health")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: okData(env)}, rec)
	})

	t.Run("DB down", func(t *testing.T) {
		env := setup(t, pingerStub{err: errors.New("connection refused")})
		req, rec := newRequest(http.MethodGet, "/health")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusServiceUnavailable,
			wantData: marchallObj(t, HealthResponse{Status: "db down", Env: env.conf.Env, Build: env.conf.Build}),
		}, rec)
	})

	t.Run("DB and redis up", func(t *testing.T) {
		env := setup(t, pingerStub{}, pingerStub{})
		req, rec := newRequest(http.MethodGet, "/health")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, HealthResponse{Status: "ok", Redis: "ok", Env: env.conf.Env, Build: env.conf.Build}),
		}, rec)
	})

	t.Run("redis down", func(t *testing.T) {
		env := setup(t, pingerStub{}, pingerStub{err: errors.New("connection refused")})
		req, rec := newRequest(http.MethodGet, "/health")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusServiceUnavailable,
			wantData: marchallObj(t, HealthResponse{Status: "redis down", Redis: "down", Env: env.conf.Env, Build: env.conf.Build}),
		}, rec)
	})

	t.Run("DB down reported over redis down", func(t *testing.T) {
		env := setup(t, pingerStub{err: errors.New("connection refused")}, pingerStub{err: errors.New("connection refused")})
		req, rec := newRequest(http.MethodGet, "/health")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusServiceUnavailable,
			wantData: marchallObj(t, HealthResponse{Status: "db down", Redis: "down", Env: env.conf.Env, Build: env.conf.Build}),
		}, rec)
	})
}
