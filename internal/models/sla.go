package models

import (
	"time"

	"github.com/google/uuid"
)

// SLAPolicy represents a response/resolution commitment applied to
// tickets that match its conditions
type SLAPolicy struct {
	ID                    uuid.UUID   `json:"id"`
	Name                  string      `json:"name" binding:"required"`
	Description           string      `json:"description"`
	OrganizationID        *uuid.UUID  `json:"organization_id,omitempty"` // nil = global policy
	ResponseTimeMinutes   int         `json:"response_time_minutes"`     // business minutes
	ResolutionTimeMinutes int         `json:"resolution_time_minutes"`   // business minutes
	Conditions            []Condition `json:"conditions,omitempty"`
	IsActive              bool        `json:"is_active"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

// Condition is a single field predicate. A policy applies only when
// every one of its conditions matches.
type Condition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// BusinessCalendar defines working hours and holidays
type BusinessCalendar struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name" binding:"required"`
	OrganizationID *uuid.UUID     `json:"organization_id,omitempty"`
	TimeZone       string         `json:"time_zone"`
	WorkingHours   []WorkingHours `json:"working_hours"`
	Holidays       []Holiday      `json:"holidays,omitempty"`
	IsDefault      bool           `json:"is_default"`
}

// WorkingHours defines the business window for one day of the week.
// The window is half-open: a timestamp exactly at EndTime is outside
// business hours.
type WorkingHours struct {
	DayOfWeek    int    `json:"day_of_week"` // 0=Sunday, 6=Saturday
	StartTime    string `json:"start_time"`  // HH:MM format
	EndTime      string `json:"end_time"`    // HH:MM format
	IsWorkingDay bool   `json:"is_working_day"`
}

// Holiday represents a non-working date. Recurring holidays repeat
// every year on the same month and day.
type Holiday struct {
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	IsRecurring bool      `json:"is_recurring"`
}

// BreachResult is the outcome of a breach check. It is computed fresh
// on every call and never persisted by the engine; callers decide
// whether to store or act on it.
type BreachResult struct {
	IsBreached     bool      `json:"is_breached"`
	DueDate        time.Time `json:"due_date"`
	ResponseDue    time.Time `json:"response_due"`
	ResolutionDue  time.Time `json:"resolution_due"`
	OverdueMinutes int       `json:"overdue_minutes"`
	PolicyName     string    `json:"policy_name"`
	Reason         string    `json:"reason,omitempty"`
}

// Status values reported for a ticket's SLA position.
const (
	StatusOnTrack  = "on_track"
	StatusAtRisk   = "at_risk"
	StatusBreached = "breached"
	StatusNoPolicy = "no_policy"
)

// SLAStatus summarizes where a ticket stands against its resolved
// policy at a given instant. DueDate is nil when no policy applies.
type SLAStatus struct {
	Status               string     `json:"status"`
	PolicyName           string     `json:"policy_name,omitempty"`
	DueDate              *time.Time `json:"due_date,omitempty"`
	TimeRemainingMinutes int        `json:"time_remaining_minutes"`
}
