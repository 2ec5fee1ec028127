package leads

import (
	"sort"
	"time"
	"unicode/utf8"
)

const (
	snippetLength  = 120
	noMessagesText = "No messages yet."
)

// Summary aggregates a set of leads for the owner dashboard.
type Summary struct {
	TotalCount            int            `json:"totalCount"`
	TotalEstimatedRevenue float64        `json:"totalEstimatedRevenue"`
	ByStatus              map[Status]int `json:"byStatus"`
	RecentLeads           []*Lead        `json:"recentLeads"`
}

// SummaryOptions bounds an aggregation. A zero Window covers every lead.
type SummaryOptions struct {
	Now         time.Time
	Window      time.Duration
	RecentLimit int
}

// Summarize counts leads per status, totals estimated revenue, and keeps the
// newest RecentLimit leads, newest first. Every status key is present in
// ByStatus even when its count is zero.
func Summarize(all []*Lead, opts SummaryOptions) Summary {
	out := Summary{
		ByStatus:    make(map[Status]int, len(Statuses)),
		RecentLeads: []*Lead{},
	}
	for _, s := range Statuses {
		out.ByStatus[s] = 0
	}

	var cutoff time.Time
	if opts.Window > 0 {
		cutoff = opts.Now.Add(-opts.Window)
	}
	inWindow := make([]*Lead, 0, len(all))
	for _, lead := range all {
		if !cutoff.IsZero() && lead.CreatedAt.Before(cutoff) {
			continue
		}
		inWindow = append(inWindow, lead)
		out.TotalCount++
		out.TotalEstimatedRevenue += lead.EstimatedRevenue
		if _, ok := out.ByStatus[lead.Status]; ok {
			out.ByStatus[lead.Status]++
		}
	}

	sort.SliceStable(inWindow, func(i, j int) bool {
		return inWindow[i].CreatedAt.After(inWindow[j].CreatedAt)
	})
	if opts.RecentLimit > 0 && len(inWindow) > opts.RecentLimit {
		inWindow = inWindow[:opts.RecentLimit]
	}
	out.RecentLeads = inWindow
	return out
}

// LastMessageSnippet returns the first 120 characters of the lead's latest
// message, with an ellipsis when the body was cut.
func LastMessageSnippet(lead *Lead) string {
	msg, ok := lead.LastMessage()
	if !ok {
		return noMessagesText
	}
	if utf8.RuneCountInString(msg.Body) <= snippetLength {
		return msg.Body
	}
	runes := []rune(msg.Body)
	return string(runes[:snippetLength]) + "…"
}
