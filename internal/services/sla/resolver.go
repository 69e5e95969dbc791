package sla

import (
	"errors"
	"sort"

	"github.com/deskhive/slacore/internal/models"
)

// ErrPolicyNotFound indicates that no active policy applies to the
// ticket. Callers decide whether that is "no SLA applies" or a
// configuration problem; it is a distinct result, not a crash.
var ErrPolicyNotFound = errors.New("no applicable SLA policy")

// Resolve picks the single most applicable policy for the ticket from
// the candidates. Only active policies scoped to the ticket's
// organization (or global, nil organization) whose conditions all
// match are considered. Ranking is by specificity: more conditions
// wins; ties prefer the stricter (smaller) response time, then name
// order, so the result is total and deterministic regardless of the
// candidates' storage order.
func Resolve(ticket models.TicketSnapshot, candidates []models.SLAPolicy) (*models.SLAPolicy, error) {
	var matched []models.SLAPolicy
	for _, p := range candidates {
		if !p.IsActive {
			continue
		}
		if p.OrganizationID != nil {
			if ticket.OrganizationID == nil || *p.OrganizationID != *ticket.OrganizationID {
				continue
			}
		}
		if !EvaluateAll(ticket, p.Conditions) {
			continue
		}
		matched = append(matched, p)
	}

	if len(matched) == 0 {
		return nil, ErrPolicyNotFound
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if len(a.Conditions) != len(b.Conditions) {
			return len(a.Conditions) > len(b.Conditions)
		}
		if a.ResponseTimeMinutes != b.ResponseTimeMinutes {
			return a.ResponseTimeMinutes < b.ResponseTimeMinutes
		}
		return a.Name < b.Name
	})

	best := matched[0]
	return &best, nil
}
