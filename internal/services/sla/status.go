package sla

import (
	"errors"
	"time"

	"github.com/deskhive/slacore/internal/models"
)

// AtRiskThresholdMinutes is the fixed warning window before a due
// date. Callers needing a per-organization threshold wrap the
// reporter; the core does not make it configurable.
const AtRiskThresholdMinutes = 60

// Status resolves the ticket's policy against the candidates and
// classifies it relative to the clock. Absence of an applicable policy
// is the no_policy status with no due date, never an error; the status
// is recomputed from scratch on every call, so two calls with the same
// now return identical results.
func Status(ticket models.TicketSnapshot, candidates []models.SLAPolicy, sched *Schedule, now time.Time) (models.SLAStatus, error) {
	policy, err := Resolve(ticket, candidates)
	if err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			return models.SLAStatus{Status: models.StatusNoPolicy}, nil
		}
		return models.SLAStatus{}, err
	}

	breach, err := CheckBreach(ticket.CreatedAt, *policy, now, sched)
	if err != nil {
		return models.SLAStatus{}, err
	}

	remaining := int(breach.DueDate.Sub(now).Minutes())
	result := models.SLAStatus{
		PolicyName:           policy.Name,
		DueDate:              &breach.DueDate,
		TimeRemainingMinutes: remaining,
	}
	switch {
	case remaining < 0:
		result.Status = models.StatusBreached
	case remaining < AtRiskThresholdMinutes:
		result.Status = models.StatusAtRisk
	default:
		result.Status = models.StatusOnTrack
	}
	return result, nil
}
