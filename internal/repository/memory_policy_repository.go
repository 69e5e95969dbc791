package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deskhive/slacore/internal/models"
)

// PolicyStore is the lookup interface the SLA engine's callers supply.
// The engine itself never caches or invalidates; it consumes the
// snapshots a store hands out.
type PolicyStore interface {
	CreatePolicy(ctx context.Context, policy *models.SLAPolicy) error
	GetPolicy(ctx context.Context, id uuid.UUID) (*models.SLAPolicy, error)
	ListPolicies(ctx context.Context, activeOnly bool) ([]models.SLAPolicy, error)
	// ListPoliciesForOrganization returns the active policies scoped to
	// the organization plus the global (nil organization) ones.
	ListPoliciesForOrganization(ctx context.Context, orgID *uuid.UUID) ([]models.SLAPolicy, error)
	UpdatePolicy(ctx context.Context, policy *models.SLAPolicy) error
	DeletePolicy(ctx context.Context, id uuid.UUID) error
}

// CalendarStore resolves the business calendar for an organization.
type CalendarStore interface {
	SaveCalendar(ctx context.Context, calendar *models.BusinessCalendar) error
	GetCalendar(ctx context.Context, id uuid.UUID) (*models.BusinessCalendar, error)
	// CalendarForOrganization returns the organization's calendar,
	// falling back to the default calendar when none is assigned.
	CalendarForOrganization(ctx context.Context, orgID *uuid.UUID) (*models.BusinessCalendar, error)
}

// MemoryPolicyRepository is a thread-safe in-memory implementation of
// PolicyStore and CalendarStore. It hands out copies, so callers can
// treat every returned value as an immutable snapshot for the duration
// of an engine call.
type MemoryPolicyRepository struct {
	mu        sync.RWMutex
	policies  map[uuid.UUID]*models.SLAPolicy
	calendars map[uuid.UUID]*models.BusinessCalendar
}

// NewMemoryPolicyRepository creates an empty repository.
func NewMemoryPolicyRepository() *MemoryPolicyRepository {
	return &MemoryPolicyRepository{
		policies:  make(map[uuid.UUID]*models.SLAPolicy),
		calendars: make(map[uuid.UUID]*models.BusinessCalendar),
	}
}

// CreatePolicy stores a new policy, assigning an ID when absent.
func (r *MemoryPolicyRepository) CreatePolicy(ctx context.Context, policy *models.SLAPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if policy.ID == uuid.Nil {
		policy.ID = uuid.New()
	}
	if _, exists := r.policies[policy.ID]; exists {
		return fmt.Errorf("policy %s already exists", policy.ID)
	}
	policy.CreatedAt = time.Now()
	policy.UpdatedAt = policy.CreatedAt

	stored := copyPolicy(*policy)
	r.policies[policy.ID] = &stored
	return nil
}

// GetPolicy retrieves a policy by ID.
func (r *MemoryPolicyRepository) GetPolicy(ctx context.Context, id uuid.UUID) (*models.SLAPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policy, exists := r.policies[id]
	if !exists {
		return nil, fmt.Errorf("policy %s not found", id)
	}
	result := copyPolicy(*policy)
	return &result, nil
}

// ListPolicies returns all policies, optionally only active ones.
func (r *MemoryPolicyRepository) ListPolicies(ctx context.Context, activeOnly bool) ([]models.SLAPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var policies []models.SLAPolicy
	for _, p := range r.policies {
		if !activeOnly || p.IsActive {
			policies = append(policies, copyPolicy(*p))
		}
	}
	return policies, nil
}

// ListPoliciesForOrganization returns the active policies visible to
// an organization: its own plus the global ones.
func (r *MemoryPolicyRepository) ListPoliciesForOrganization(ctx context.Context, orgID *uuid.UUID) ([]models.SLAPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var policies []models.SLAPolicy
	for _, p := range r.policies {
		if !p.IsActive {
			continue
		}
		if p.OrganizationID != nil {
			if orgID == nil || *p.OrganizationID != *orgID {
				continue
			}
		}
		policies = append(policies, copyPolicy(*p))
	}
	return policies, nil
}

// UpdatePolicy replaces an existing policy.
func (r *MemoryPolicyRepository) UpdatePolicy(ctx context.Context, policy *models.SLAPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[policy.ID]; !exists {
		return fmt.Errorf("policy %s not found", policy.ID)
	}
	policy.UpdatedAt = time.Now()
	stored := copyPolicy(*policy)
	r.policies[policy.ID] = &stored
	return nil
}

// DeletePolicy removes a policy.
func (r *MemoryPolicyRepository) DeletePolicy(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[id]; !exists {
		return fmt.Errorf("policy %s not found", id)
	}
	delete(r.policies, id)
	return nil
}

// SaveCalendar stores or replaces a calendar, assigning an ID when
// absent.
func (r *MemoryPolicyRepository) SaveCalendar(ctx context.Context, calendar *models.BusinessCalendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if calendar.ID == uuid.Nil {
		calendar.ID = uuid.New()
	}
	stored := copyCalendar(*calendar)
	r.calendars[calendar.ID] = &stored
	return nil
}

// GetCalendar retrieves a calendar by ID.
func (r *MemoryPolicyRepository) GetCalendar(ctx context.Context, id uuid.UUID) (*models.BusinessCalendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calendar, exists := r.calendars[id]
	if !exists {
		return nil, fmt.Errorf("calendar %s not found", id)
	}
	result := copyCalendar(*calendar)
	return &result, nil
}

// CalendarForOrganization returns the organization's calendar or the
// default one when the organization has none of its own.
func (r *MemoryPolicyRepository) CalendarForOrganization(ctx context.Context, orgID *uuid.UUID) (*models.BusinessCalendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var fallback *models.BusinessCalendar
	for _, c := range r.calendars {
		if orgID != nil && c.OrganizationID != nil && *c.OrganizationID == *orgID {
			result := copyCalendar(*c)
			return &result, nil
		}
		if c.IsDefault {
			fallback = c
		}
	}
	if fallback != nil {
		result := copyCalendar(*fallback)
		return &result, nil
	}
	return nil, fmt.Errorf("no calendar configured for organization")
}

func copyPolicy(p models.SLAPolicy) models.SLAPolicy {
	if p.Conditions != nil {
		conditions := make([]models.Condition, len(p.Conditions))
		copy(conditions, p.Conditions)
		p.Conditions = conditions
	}
	if p.OrganizationID != nil {
		id := *p.OrganizationID
		p.OrganizationID = &id
	}
	return p
}

func copyCalendar(c models.BusinessCalendar) models.BusinessCalendar {
	if c.WorkingHours != nil {
		hours := make([]models.WorkingHours, len(c.WorkingHours))
		copy(hours, c.WorkingHours)
		c.WorkingHours = hours
	}
	if c.Holidays != nil {
		holidays := make([]models.Holiday, len(c.Holidays))
		copy(holidays, c.Holidays)
		c.Holidays = holidays
	}
	if c.OrganizationID != nil {
		id := *c.OrganizationID
		c.OrganizationID = &id
	}
	return c
}
