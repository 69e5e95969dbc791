package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketSnapshot is the read-only view of a ticket the SLA engine
// consumes. The engine has no concept of ticket identity, status
// transitions, or persistence; Fields carries any custom attributes
// referenced by policy conditions.
type TicketSnapshot struct {
	CreatedAt      time.Time              `json:"created_at"`
	Priority       string                 `json:"priority"`
	Category       string                 `json:"category"`
	OrganizationID *uuid.UUID             `json:"organization_id,omitempty"`
	Fields         map[string]interface{} `json:"fields,omitempty"`
}

// Field returns the named attribute, checking the well-known fields
// before the custom field map. Unknown names yield nil.
func (t TicketSnapshot) Field(name string) interface{} {
	switch name {
	case "priority":
		return t.Priority
	case "category":
		return t.Category
	case "created_at":
		return t.CreatedAt
	case "organization_id":
		if t.OrganizationID == nil {
			return nil
		}
		return t.OrganizationID.String()
	}
	if t.Fields == nil {
		return nil
	}
	return t.Fields[name]
}
