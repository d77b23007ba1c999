// api/audit/model.go
package audit

import (
	"time"
)

// Decision records one terminal gate outcome for a request. The raw token is
// deliberately not recorded.
type Decision struct {
	Timestamp       time.Time `json:"timestamp"`
	Outcome         string    `json:"outcome"` // allow, reject_missing, reject_invalid
	ClientIP        string    `json:"client_ip,omitempty"`
	Method          string    `json:"method"`
	Path            string    `json:"path"`
	CacheResult     string    `json:"cache_result,omitempty"`
	VerifierOutcome string    `json:"verifier_outcome,omitempty"`
}

const (
	OutcomeAllow         = "allow"
	OutcomeRejectMissing = "reject_missing"
	OutcomeRejectInvalid = "reject_invalid"
)
