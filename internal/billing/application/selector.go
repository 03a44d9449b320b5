package application

import (
	"strings"
	"time"

	billing "sensei-backoffice/internal/billing/domain"
	finance "sensei-backoffice/internal/finance/domain"
	"sensei-backoffice/internal/messaging/evolution"
	"sensei-backoffice/internal/observability/metrics"
)

// Selector picks the receivables that get a reminder today.
type Selector struct {
	messages *Messages
	loc      *time.Location
}

// NewSelector constructs a Selector. Entry days are computed in loc.
func NewSelector(messages *Messages, loc *time.Location) *Selector {
	if loc == nil {
		loc = time.UTC
	}
	return &Selector{messages: messages, loc: loc}
}

// Select classifies pending income entries with a usable phone against
// today. Entries are visited in input order; the result keeps that order.
func (s *Selector) Select(entries []finance.Entry, today time.Time) ([]billing.Candidate, error) {
	today = finance.Date(today.Year(), today.Month(), today.Day())
	var (
		out    []billing.Candidate
		counts = map[billing.Kind]int{}
	)
	for _, entry := range entries {
		if !entry.IsIncome() || entry.Status != finance.EntryStatusPending {
			continue
		}
		phone := strings.TrimSpace(entry.Phone)
		if evolution.NormalizePhone(phone, "") == "" {
			continue
		}
		due := finance.EntryDay(entry, s.loc)
		diff := finance.DaysBetween(due, today)
		kind, ok := billing.Classify(diff)
		if !ok {
			continue
		}
		days := diff
		if days < 0 {
			days = -days
		}
		name := entry.PartyName()
		message, err := s.messages.Candidate(kind, MessageData{
			Name:  name,
			Value: finance.FormatBRL(entry.Amount),
			Days:  days,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, billing.Candidate{
			EntryID:   entry.ID,
			StudentID: entry.RelatedPartyID,
			Name:      name,
			Phone:     phone,
			Amount:    entry.Amount,
			DueDate:   due,
			Projected: entry.Projected,
			Kind:      kind,
			DaysDiff:  days,
			Message:   message,
			Selected:  true,
			Status:    billing.StatusPending,
		})
		counts[kind]++
	}
	for kind, n := range counts {
		metrics.AddBillingCandidates(string(kind), n)
	}
	return out, nil
}
