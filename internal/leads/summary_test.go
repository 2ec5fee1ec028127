package leads

import (
	"strings"
	"testing"
	"time"
)

func TestSummarize_AllStatusesPresent(t *testing.T) {
	s := Summarize(nil, SummaryOptions{Now: time.Now(), RecentLimit: 5})
	if s.TotalCount != 0 || s.TotalEstimatedRevenue != 0 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	for _, status := range Statuses {
		if count, ok := s.ByStatus[status]; !ok || count != 0 {
			t.Fatalf("expected zero entry for %s", status)
		}
	}
	if s.RecentLeads == nil {
		t.Fatal("recent leads should encode as an empty list")
	}
}

func TestSummarize_WindowAndRecentOrder(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	all := []*Lead{
		{ID: "old", CreatedAt: now.Add(-48 * time.Hour), Status: StatusBooked, EstimatedRevenue: 500},
		{ID: "a", CreatedAt: now.Add(-3 * time.Hour), Status: StatusBooked, EstimatedRevenue: 150},
		{ID: "b", CreatedAt: now.Add(-2 * time.Hour), Status: StatusEscalate},
		{ID: "c", CreatedAt: now.Add(-1 * time.Hour), Status: StatusNew, EstimatedRevenue: 55},
	}

	s := Summarize(all, SummaryOptions{Now: now, Window: 24 * time.Hour, RecentLimit: 2})
	if s.TotalCount != 3 {
		t.Fatalf("expected 3 leads in window, got %d", s.TotalCount)
	}
	if s.TotalEstimatedRevenue != 205 {
		t.Fatalf("expected revenue 205, got %v", s.TotalEstimatedRevenue)
	}
	if s.ByStatus[StatusBooked] != 1 || s.ByStatus[StatusEscalate] != 1 || s.ByStatus[StatusNew] != 1 {
		t.Fatalf("unexpected status counts: %v", s.ByStatus)
	}
	if len(s.RecentLeads) != 2 || s.RecentLeads[0].ID != "c" || s.RecentLeads[1].ID != "b" {
		t.Fatalf("expected newest first, got %+v", s.RecentLeads)
	}

	all5 := Summarize(all, SummaryOptions{Now: now, RecentLimit: 5})
	if all5.TotalCount != 4 {
		t.Fatalf("zero window should include every lead, got %d", all5.TotalCount)
	}
}

func TestLastMessageSnippet(t *testing.T) {
	if got := LastMessageSnippet(&Lead{}); got != "No messages yet." {
		t.Fatalf("unexpected empty snippet %q", got)
	}
	short := &Lead{Messages: []Message{{Body: "first"}, {Body: "Saturday works"}}}
	if got := LastMessageSnippet(short); got != "Saturday works" {
		t.Fatalf("expected last message, got %q", got)
	}
	long := &Lead{Messages: []Message{{Body: strings.Repeat("é", 130)}}}
	got := LastMessageSnippet(long)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) != 121 {
		t.Fatalf("expected 120 runes plus ellipsis, got %d runes", len([]rune(got)))
	}
}
