package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/learntocloud/ltc-backend/apps/api/echo"
	"github.com/learntocloud/ltc-backend/core"
	"github.com/learntocloud/ltc-backend/core/badge"
	"github.com/learntocloud/ltc-backend/core/curriculum"
	"github.com/learntocloud/ltc-backend/core/handson"
	"github.com/learntocloud/ltc-backend/core/progress"
	"github.com/learntocloud/ltc-backend/core/user"
	emailsvc "github.com/learntocloud/ltc-backend/services/email"
	inmemdb "github.com/learntocloud/ltc-backend/storage/database/inmem"
	testutil "github.com/learntocloud/ltc-backend/tests"
)

var (
	initOnce sync.Once

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

// phase 0: two steps + one question, no hands-on.
// phase 1: one step + one question + one checklist item, hands-on required.
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
      - id: s2
        title: Second step
    questions:
      - id: q1
        prompt: Why the cloud?
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
    questions:
      - id: q1
        prompt: What does chmod do?
    checklist:
      - id: c1
        title: SSH key generated
hands_on:
  project: journal
  artifacts:
    - README.md
`)},
}

type testEnv struct {
	app     Server
	conf    *core.Config
	usrRepo user.Repository

	usrSvc      user.Service
	progressSvc progress.Service
	handsOnSvc  handson.Service
	badgeSvc    badge.Service

	verifier *handson.VerifierStub
}

// setup builds a fresh test environment; optional pingers are the DB and
// the Redis cache, in that order.
func setup(t *testing.T, pingers ...Pinger) *testEnv {
	conf := testutil.NewTestConfig()

	initOnce.Do(func() {
		validate, translator := newValidator()
		core.InitValidators(validate, translator)
		user.InitValidators(validate, translator)
		core.ParseEmailTemplates(conf, testutil.NopLogger{})
		user.LoadCommonPasswords(testutil.NopLogger{})
	})

	catalog, err := curriculum.LoadFS(testContent, "content")
	if err != nil {
		t.Fatalf("loading test catalog: %v", err)
	}

	// fresh in-memory repos per test
	usrRepo := inmemdb.NewUserRepository()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)

	verifier := &handson.VerifierStub{Pass: true}
	handsOnSvc := handson.NewService(catalog, inmemdb.NewHandsOnRepository(), verifier, nil)
	progressSvc := progress.NewService(catalog, inmemdb.NewProgressRepository(), handsOnSvc, nil, conf)
	badgeSvc := badge.NewService(catalog, inmemdb.NewBadgeRepository(), progressSvc, mailSvc, conf)

	validate, translator := newValidator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	var dbPinger, cachePinger Pinger
	if len(pingers) > 0 {
		dbPinger = pingers[0]
	}
	if len(pingers) > 1 {
		cachePinger = pingers[1]
	}

	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testutil.NopLogger{},
		DB:             dbPinger,
		Cache:          cachePinger,
		Catalog:        catalog,
		UserSvc:        usrSvc,
		ProgressSvc:    progressSvc,
		HandsOnSvc:     handsOnSvc,
		BadgeSvc:       badgeSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	return &testEnv{
		app:         app,
		conf:        conf,
		usrRepo:     usrRepo,
		usrSvc:      usrSvc,
		progressSvc: progressSvc,
		handsOnSvc:  handsOnSvc,
		badgeSvc:    badgeSvc,
		verifier:    verifier,
	}
}

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return validator.New(), translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
