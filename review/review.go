// Package review tallies reviewer decisions and decides merge readiness.
package review

import "github.com/xcaliber/xcaliber-bot/scm"

// Review states as reported by the remote service.
const (
	StateApproved         = "APPROVED"
	StateChangesRequested = "CHANGES_REQUESTED"
)

// Tally counts reviewer decisions, one per reviewer.
type Tally struct {
	Approved int
	Rejected int
}

// Count folds the review list into a Tally. Only each reviewer's latest
// state counts; states other than approved/changes-requested (e.g. a plain
// comment) count toward neither side.
func Count(reviews []scm.Review) Tally {
	latest := make(map[string]string, len(reviews))
	for _, r := range reviews {
		latest[r.Reviewer] = r.State
	}

	var tally Tally
	for _, state := range latest {
		switch state {
		case StateApproved:
			tally.Approved++
		case StateChangesRequested:
			tally.Rejected++
		}
	}

	return tally
}

// Ready reports merge readiness: no outstanding change requests and at
// least the required number of approvals.
func (t Tally) Ready(required int) bool {
	return t.Rejected == 0 && t.Approved >= required
}
