package handson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/learntocloud/ltc-backend/core/curriculum"
)

func Test_parseRepoURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantOwner  string
		wantRepo   string
		wantOK     bool
		wantDetail string
	}{
		{name: "plain repo", url: "https://github.com/ada/journal", wantOwner: "ada", wantRepo: "journal", wantOK: true},
		{name: "www host", url: "https://www.github.com/ada/journal", wantOwner: "ada", wantRepo: "journal", wantOK: true},
		{name: "trailing slash", url: "https://github.com/ada/journal/", wantOwner: "ada", wantRepo: "journal", wantOK: true},
		{name: ".git suffix stripped", url: "https://github.com/ada/journal.git", wantOwner: "ada", wantRepo: "journal", wantOK: true},
		{name: "deep link still resolves the repo", url: "https://github.com/ada/journal/tree/main/app", wantOwner: "ada", wantRepo: "journal", wantOK: true},
		{name: "http rejected", url: "http://github.com/ada/journal", wantDetail: "repository URL must use https"},
		{name: "other host rejected", url: "https://gitlab.com/ada/journal", wantDetail: "repository must be hosted on github.com"},
		{name: "missing repo", url: "https://github.com/ada", wantDetail: "URL path must be of the form /<owner>/<repository>"},
		{name: "empty path", url: "https://github.com/", wantDetail: "URL path must be of the form /<owner>/<repository>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, check := parseRepoURL(tt.url)
			if check.OK != tt.wantOK {
				t.Fatalf("ok = %v; want %v (detail: %s)", check.OK, tt.wantOK, check.Detail)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("owner/repo = %s/%s; want %s/%s", owner, repo, tt.wantOwner, tt.wantRepo)
			}
			if !tt.wantOK && check.Detail != tt.wantDetail {
				t.Errorf("detail = %q; want %q", check.Detail, tt.wantDetail)
			}
		})
	}
}

func Test_GithubVerifier_Verify(t *testing.T) {
	// serves /ada/journal on branch "master" with README.md and setup.sh only
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served := map[string]bool{
			"/ada/journal/master/README.md": true,
			"/ada/journal/master/setup.sh":  true,
		}
		if !served[r.URL.Path] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewGithubVerifier()
	v.rawHost = srv.URL

	req := curriculum.HandsOn{Project: "journal", Artifacts: []string{"README.md", "setup.sh", "Dockerfile"}}

	t.Run("probes artifacts on the resolved branch", func(t *testing.T) {
		checks := v.Verify(context.Background(), "https://github.com/ada/journal", req)
		if len(checks) != 4 { // repo-url + 3 artifacts
			t.Fatalf("unexpected checks: %+v", checks)
		}
		if !checks[0].OK || !checks[1].OK || !checks[2].OK {
			t.Errorf("expected url, README.md and setup.sh checks to pass: %+v", checks)
		}
		if checks[3].OK {
			t.Errorf("Dockerfile is not served; check must fail: %+v", checks[3])
		}
		if Verified(checks) {
			t.Error("Verified() must be false with a failing check")
		}
	})

	t.Run("resolves the branch without a root README", func(t *testing.T) {
		// a master-branch repo whose artifacts do not include README.md
		noReadme := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/ada/scripts/master/setup.sh" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer noReadme.Close()

		nv := NewGithubVerifier()
		nv.rawHost = noReadme.URL

		checks := nv.Verify(context.Background(), "https://github.com/ada/scripts", curriculum.HandsOn{
			Project:   "scripts",
			Artifacts: []string{"setup.sh"},
		})
		if len(checks) != 2 || !checks[0].OK || !checks[1].OK {
			t.Errorf("expected setup.sh to resolve on master: %+v", checks)
		}
		if !Verified(checks) {
			t.Error("Verified() must be true with all checks passing")
		}
	})

	t.Run("bad URL short-circuits", func(t *testing.T) {
		checks := v.Verify(context.Background(), "https://gitlab.com/ada/journal", req)
		if len(checks) != 1 || checks[0].OK {
			t.Errorf("expected a single failed repo-url check; got %+v", checks)
		}
	})

	t.Run("unreachable host fails every probe", func(t *testing.T) {
		down := NewGithubVerifier()
		down.rawHost = "http://127.0.0.1:1"

		checks := down.Verify(context.Background(), "https://github.com/ada/journal", req)
		for _, check := range checks[1:] {
			if check.OK {
				t.Errorf("probe against a dead host must fail: %+v", check)
			}
		}
	})
}

func TestVerified(t *testing.T) {
	if Verified(nil) {
		t.Error("no checks must not verify")
	}
	if Verified([]CheckResult{{OK: true}, {OK: false}}) {
		t.Error("one failing check must not verify")
	}
	if !Verified([]CheckResult{{OK: true}, {OK: true}}) {
		t.Error("all passing checks must verify")
	}
}
