package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority is the closed set of subject priority levels. The same parse and
// serialize pair is used for input validation and storage.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates and canonicalizes a priority level value.
func ParsePriority(value string) (Priority, error) {
	switch Priority(value) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(value), nil
	default:
		return "", fmt.Errorf("invalid priority level %q: must be one of low, medium, high", value)
	}
}

// SubjectStatus is the closed set of subject lifecycle states. All three
// states are freely settable by the owner; no transition graph is enforced.
type SubjectStatus string

const (
	StatusActive    SubjectStatus = "active"
	StatusCompleted SubjectStatus = "completed"
	StatusArchived  SubjectStatus = "archived"
)

// ParseSubjectStatus validates and canonicalizes a subject status value.
func ParseSubjectStatus(value string) (SubjectStatus, error) {
	switch SubjectStatus(value) {
	case StatusActive, StatusCompleted, StatusArchived:
		return SubjectStatus(value), nil
	default:
		return "", fmt.Errorf("invalid status %q: must be one of active, completed, archived", value)
	}
}

// User is the API representation of a registered account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Subject models a course of study owned by exactly one user.
type Subject struct {
	ID                  uuid.UUID     `json:"id"`
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	TotalHoursGoal      int           `json:"total_hours_goal"`
	TotalHoursCompleted int           `json:"total_hours_completed"`
	PriorityLevel       Priority      `json:"priority_level"`
	Status              SubjectStatus `json:"status"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// StudySession models a single logged study interval against a subject.
// DurationMinutes is always derived from the time range, never client-set.
type StudySession struct {
	ID              uuid.UUID `json:"id"`
	SubjectID       uuid.UUID `json:"subject_id"`
	SubjectName     string    `json:"subject_name,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}
