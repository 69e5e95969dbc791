package sla

import (
	"fmt"
	"time"

	"github.com/deskhive/slacore/internal/models"
)

// CheckBreach evaluates a ticket's position against a resolved policy
// at the given instant. The governing deadline is the earlier of the
// response and resolution due dates; both are also reported
// independently for callers that track them separately. The function
// only computes a result value and never mutates its inputs.
func CheckBreach(createdAt time.Time, policy models.SLAPolicy, now time.Time, sched *Schedule) (models.BreachResult, error) {
	responseDue, err := sched.AddBusinessMinutes(createdAt, policy.ResponseTimeMinutes)
	if err != nil {
		return models.BreachResult{}, fmt.Errorf("response due date: %w", err)
	}
	resolutionDue, err := sched.AddBusinessMinutes(createdAt, policy.ResolutionTimeMinutes)
	if err != nil {
		return models.BreachResult{}, fmt.Errorf("resolution due date: %w", err)
	}

	due := responseDue
	if resolutionDue.Before(due) {
		due = resolutionDue
	}

	result := models.BreachResult{
		DueDate:       due,
		ResponseDue:   responseDue,
		ResolutionDue: resolutionDue,
		PolicyName:    policy.Name,
	}
	if now.After(due) {
		result.IsBreached = true
		result.OverdueMinutes = int(now.Sub(due).Minutes())
		result.Reason = fmt.Sprintf("due %s, %d minutes overdue",
			due.Format(time.RFC3339), result.OverdueMinutes)
	}
	return result, nil
}
