package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	WindowID       ID
	SubscriptionID ID
	ExportID       ID
)

// NewWindowID creates a window handle identifier
func NewWindowID() WindowID { return WindowID(NewID()) }

// NewSubscriptionID creates an event subscription identifier
func NewSubscriptionID() SubscriptionID { return SubscriptionID(NewID()) }

// NewExportID creates an export record identifier
func NewExportID() ExportID { return ExportID(NewID()) }

func (id WindowID) String() string       { return string(id) }
func (id SubscriptionID) String() string { return string(id) }
func (id ExportID) String() string       { return string(id) }

// ParseExportID validates and parses an export ID
func ParseExportID(s string) (ExportID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("export ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid export ID %q: %w", s, err)
	}
	return ExportID(s), nil
}
