package handson

import (
	"context"

	"github.com/learntocloud/ltc-backend/core/curriculum"
)

// VerifierStub passes or fails every check; backs tests and the local
// console environment where outbound probes are unwanted.
type VerifierStub struct {
	Pass bool
}

var _ Verifier = (*VerifierStub)(nil)

func (v *VerifierStub) Verify(_ context.Context, _ string, req curriculum.HandsOn) []CheckResult {
	checks := make([]CheckResult, 0, len(req.Artifacts)+1)
	checks = append(checks, CheckResult{Name: "repo-url", OK: v.Pass})
	for _, artifact := range req.Artifacts {
		check := CheckResult{Name: "artifact:" + artifact, OK: v.Pass}
		if !v.Pass {
			check.Detail = "stubbed failure"
		}
		checks = append(checks, check)
	}
	return checks
}
