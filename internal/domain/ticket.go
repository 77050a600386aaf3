package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// TicketPriorities lists every priority from lowest to highest.
var TicketPriorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh}

// TicketCategory routes a ticket to the kind of help it needs.
type TicketCategory string

const (
	TicketCategoryGeneral        TicketCategory = "general"
	TicketCategoryTechnical      TicketCategory = "technical"
	TicketCategoryBilling        TicketCategory = "billing"
	TicketCategoryAccount        TicketCategory = "account"
	TicketCategoryFeatureRequest TicketCategory = "feature_request"
)

// TicketCategories lists every category.
var TicketCategories = []TicketCategory{
	TicketCategoryGeneral,
	TicketCategoryTechnical,
	TicketCategoryBilling,
	TicketCategoryAccount,
	TicketCategoryFeatureRequest,
}

// DefaultCategory is used when a ticket is submitted without a category.
const DefaultCategory = TicketCategoryGeneral

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if p == candidate {
			return true
		}
	}
	return false
}

// ParseTicketStatus converts raw input into a TicketStatus.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	status := TicketStatus(raw)
	if !status.Valid() {
		allowed := make([]string, len(TicketStatuses))
		for i, s := range TicketStatuses {
			allowed[i] = string(s)
		}
		return "", &EnumError{Field: "status", Value: raw, Allowed: allowed}
	}
	return status, nil
}

// ParseTicketPriority converts raw input into a TicketPriority.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	priority := TicketPriority(raw)
	if !priority.Valid() {
		allowed := make([]string, len(TicketPriorities))
		for i, p := range TicketPriorities {
			allowed[i] = string(p)
		}
		return "", &EnumError{Field: "priority", Value: raw, Allowed: allowed}
	}
	return priority, nil
}

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	for _, candidate := range TicketCategories {
		if c == candidate {
			return true
		}
	}
	return false
}

// ParseTicketCategory converts raw input into a TicketCategory.
func ParseTicketCategory(raw string) (TicketCategory, error) {
	category := TicketCategory(raw)
	if !category.Valid() {
		allowed := make([]string, len(TicketCategories))
		for i, c := range TicketCategories {
			allowed[i] = string(c)
		}
		return "", &EnumError{Field: "category", Value: raw, Allowed: allowed}
	}
	return category, nil
}

// EnumError reports a value outside a closed set.
type EnumError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("invalid %s %q (allowed: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string
	ClientID        string
	Title           string
	Description     string
	Priority        TicketPriority
	Category        TicketCategory
	Status          TicketStatus
	AssignedTo      *string
	ResolutionNotes *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time

	// Display names resolved from users at read time.
	ClientName   string
	AssigneeName *string
}

// TicketStats holds ticket counts grouped by status.
type TicketStats struct {
	Open       int
	InProgress int
	Closed     int
	Total      int
}

// Add counts a single ticket with the given status.
func (s *TicketStats) Add(status TicketStatus) {
	switch status {
	case TicketStatusOpen:
		s.Open++
	case TicketStatusInProgress:
		s.InProgress++
	case TicketStatusClosed:
		s.Closed++
	}
	s.Total++
}
