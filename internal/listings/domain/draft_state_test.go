package domain

import (
	"testing"
	"time"
)

func TestValidateDraftTransition(t *testing.T) {
	cases := []struct {
		from DraftStatus
		to   DraftStatus
		ok   bool
	}{
		{DraftCreated, DraftAnalyzing, true},
		{DraftAnalyzing, DraftAnalyzed, true},
		{DraftAnalyzing, DraftCreated, false},
		{DraftAnalyzed, DraftAnalyzing, true},
		{DraftAnalyzed, DraftOverridden, true},
		{DraftOverridden, DraftOverridden, true},
		{DraftOverridden, DraftAnalyzing, true},
		{DraftAnalyzed, DraftPublished, true},
		{DraftCreated, DraftAnalyzed, false},
		{DraftCreated, DraftOverridden, false},
		{DraftPublished, DraftAnalyzing, false},
		{DraftStatus("bogus"), DraftAnalyzing, false},
	}

	for _, tc := range cases {
		err := ValidateDraftTransition(tc.from, tc.to)
		if tc.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s -> %s: expected error", tc.from, tc.to)
		}
	}
}

func TestIsTerminalDraftStatus(t *testing.T) {
	if !IsTerminalDraftStatus(DraftPublished) {
		t.Fatalf("published must be terminal")
	}
	if IsTerminalDraftStatus(DraftAnalyzed) {
		t.Fatalf("analyzed must not be terminal")
	}
}

func TestIsAnalysisAbandoned(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if IsAnalysisAbandoned(DraftAnalyzing, now.Add(-time.Minute), now) {
		t.Fatalf("a recent run must keep its claim")
	}
	if !IsAnalysisAbandoned(DraftAnalyzing, now.Add(-AnalysisLease-time.Second), now) {
		t.Fatalf("a run past its lease must be claimable")
	}
	if IsAnalysisAbandoned(DraftAnalyzed, now.Add(-24*time.Hour), now) {
		t.Fatalf("only analyzing drafts can be abandoned")
	}
}
