package domain

import (
	"strings"
	"time"
)

// Network is a single blockchain deployment target with its own RPC endpoint
// and the contracts queried on it. Built once at startup and never mutated.
type Network struct {
	Name                 string `json:"name" yaml:"name"`
	RPCURL               string `json:"rpc_url" yaml:"rpc_url"`
	ReferralContract     string `json:"referral_contract" yaml:"referral_contract"`
	SubscriptionContract string `json:"subscription_contract,omitempty" yaml:"subscription_contract,omitempty"`
}

// CheckType selects which on-chain read is performed on every network.
type CheckType string

const (
	CheckReferral     CheckType = "referral"
	CheckSubscription CheckType = "subscription"
)

// ParseCheckType maps the raw "type" query value onto a CheckType.
// Absent or unknown values fall back to CheckReferral; ok reports whether
// raw was recognized.
func ParseCheckType(raw string) (CheckType, bool) {
	switch CheckType(strings.ToLower(strings.TrimSpace(raw))) {
	case CheckReferral:
		return CheckReferral, true
	case CheckSubscription:
		return CheckSubscription, true
	default:
		return CheckReferral, false
	}
}

// Reduction folds per-network results into a score.
type Reduction string

const (
	// ReduceCount counts the networks reporting a positive result.
	ReduceCount Reduction = "count"
	// ReduceAny is 1 when at least one network reports a positive result.
	ReduceAny Reduction = "any"
)

// Query pairs a check with the reduction applied to its results.
type Query struct {
	Check  CheckType
	Reduce Reduction
}

// LegacyQuery is the single-purpose check: any registered referral code scores 1.
var LegacyQuery = Query{Check: CheckReferral, Reduce: ReduceAny}

// QueryFor returns the reduction each check type uses on the multi-purpose endpoint.
func QueryFor(check CheckType) Query {
	if check == CheckSubscription {
		return Query{Check: CheckSubscription, Reduce: ReduceAny}
	}
	return Query{Check: CheckReferral, Reduce: ReduceCount}
}

// CheckResult is the outcome of one network call for one request.
// A failed call always has Present == false.
type CheckResult struct {
	Network string
	Present bool
	Err     error
}

// ScoreResponse is the body returned to the quest platform.
type ScoreResponse struct {
	Score int `json:"score"`
}

// ScoreEvent records a computed score for downstream analytics.
type ScoreEvent struct {
	RequestID  string          `json:"request_id"`
	Address    string          `json:"address"`
	Check      CheckType       `json:"check"`
	Reduction  Reduction       `json:"reduction"`
	Score      int             `json:"score"`
	Networks   map[string]bool `json:"networks"`
	Failures   []string        `json:"failures,omitempty"`
	Cached     bool            `json:"cached"`
	ComputedAt time.Time       `json:"computed_at"`
}
