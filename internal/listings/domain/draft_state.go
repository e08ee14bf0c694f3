// Package domain provides core business rules for the listings bounded context.
package domain

import (
	"fmt"
	"time"
)

// DraftStatus is the lifecycle state of a listing draft.
type DraftStatus string

const (
	DraftCreated    DraftStatus = "created"
	DraftAnalyzing  DraftStatus = "analyzing"
	DraftAnalyzed   DraftStatus = "analyzed"
	DraftOverridden DraftStatus = "overridden"
	DraftPublished  DraftStatus = "published"
)

// draftTransitions lists the allowed next states per state. Re-analysis is
// allowed from analyzed and overridden; published is terminal.
var draftTransitions = map[DraftStatus][]DraftStatus{
	DraftCreated:    {DraftAnalyzing},
	DraftAnalyzing:  {DraftAnalyzed},
	DraftAnalyzed:   {DraftAnalyzing, DraftOverridden, DraftPublished},
	DraftOverridden: {DraftAnalyzing, DraftOverridden, DraftPublished},
	DraftPublished:  {},
}

// AnalysisLease is how long an analyzing draft stays claimed by its run. It
// outlasts the background task timeout, so a draft still analyzing past it
// belongs to a run that died without restoring the status.
const AnalysisLease = 20 * time.Minute

// IsAnalysisAbandoned reports whether an analyzing draft last touched at
// updatedAt has outlived its lease and may be claimed by a new run.
func IsAnalysisAbandoned(status DraftStatus, updatedAt, now time.Time) bool {
	return status == DraftAnalyzing && now.Sub(updatedAt) > AnalysisLease
}

// IsTerminalDraftStatus reports whether no further transitions are allowed.
func IsTerminalDraftStatus(status DraftStatus) bool {
	return status == DraftPublished
}

// ValidateDraftTransition returns an error when from -> to is not allowed.
// Rolling back a failed analysis restores the previous status directly and
// does not go through this check.
func ValidateDraftTransition(from, to DraftStatus) error {
	next, ok := draftTransitions[from]
	if !ok {
		return fmt.Errorf("unknown draft status %q", from)
	}
	for _, allowed := range next {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("draft cannot move from %s to %s", from, to)
}
