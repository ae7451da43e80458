package handson

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/learntocloud/ltc-backend/core/curriculum"
)

var defaultBranches = []string{"main", "master"}

// GithubVerifier checks a submission by probing for the required artifacts
// in the learner's public GitHub repository.
type GithubVerifier struct {
	client  *http.Client
	rawHost string
}

var _ Verifier = (*GithubVerifier)(nil)

func NewGithubVerifier() *GithubVerifier {
	return &GithubVerifier{
		client:  &http.Client{Timeout: 10 * time.Second},
		rawHost: "https://raw.githubusercontent.com",
	}
}

func (v *GithubVerifier) Verify(ctx context.Context, repoURL string, req curriculum.HandsOn) []CheckResult {
	checks := make([]CheckResult, 0, len(req.Artifacts)+1)

	owner, repo, urlCheck := parseRepoURL(repoURL)
	checks = append(checks, urlCheck)
	if !urlCheck.OK {
		return checks
	}

	branch := v.resolveBranch(ctx, owner, repo, req.Artifacts)
	for _, artifact := range req.Artifacts {
		checks = append(checks, v.probeArtifact(ctx, owner, repo, branch, artifact))
	}
	return checks
}

// parseRepoURL validates the shape of the submitted URL: https, github.com
// host, owner/repo path.
func parseRepoURL(repoURL string) (owner, repo string, check CheckResult) {
	check = CheckResult{Name: "repo-url"}

	u, err := url.Parse(repoURL)
	if err != nil {
		check.Detail = "not a valid URL"
		return "", "", check
	}
	if u.Scheme != "https" {
		check.Detail = "repository URL must use https"
		return "", "", check
	}
	if u.Host != "github.com" && u.Host != "www.github.com" {
		check.Detail = "repository must be hosted on github.com"
		return "", "", check
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		check.Detail = "URL path must be of the form /<owner>/<repository>"
		return "", "", check
	}
	check.OK = true
	return parts[0], strings.TrimSuffix(parts[1], ".git"), check
}

// resolveBranch picks the default branch that serves the first required
// artifact, so detection never depends on files the project may not have;
// falls back to "main" when none respond.
func (v *GithubVerifier) resolveBranch(ctx context.Context, owner, repo string, artifacts []string) string {
	if len(artifacts) == 0 {
		return defaultBranches[0]
	}
	first := strings.TrimPrefix(artifacts[0], "/")
	for _, branch := range defaultBranches {
		rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", v.rawHost, owner, repo, branch, first)
		if v.probe(ctx, rawURL) {
			return branch
		}
	}
	return defaultBranches[0]
}

func (v *GithubVerifier) probeArtifact(ctx context.Context, owner, repo, branch, artifact string) CheckResult {
	check := CheckResult{Name: "artifact:" + artifact}

	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", v.rawHost, owner, repo, branch, strings.TrimPrefix(artifact, "/"))
	if !v.probe(ctx, rawURL) {
		check.Detail = fmt.Sprintf("%s not found on branch %q", artifact, branch)
		return check
	}
	check.OK = true
	return check
}

// probe reports whether the URL serves content. Network failures count as a
// failed probe, not an error: the learner can simply resubmit.
func (v *GithubVerifier) probe(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	res, err := v.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = res.Body.Close() }()
	return res.StatusCode == http.StatusOK
}
