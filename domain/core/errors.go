package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrFileNotFound     = fmt.Errorf("%w: file", ErrNotFound)
	ErrSheetNotFound    = fmt.Errorf("%w: sheet", ErrNotFound)
	ErrVariableNotFound = fmt.Errorf("%w: variable", ErrNotFound)
	ErrWindowNotFound   = fmt.Errorf("%w: window", ErrNotFound)

	// Dataset errors
	ErrEmptyPath        = errors.New("file path is empty")
	ErrEmptySheet       = errors.New("sheet name is empty")
	ErrNoSheets         = errors.New("workbook has no sheets")
	ErrEmptySheetData   = errors.New("sheet has no data")
	ErrDuplicateHeader  = errors.New("duplicate column headers")
	ErrNoVariables      = errors.New("no variables selected")
	ErrNoNumericData    = errors.New("no selected column could be read as numeric")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrUnsupportedModel = errors.New("unsupported reliability model")
)

// Error constructors with context
func NewSheetNotFoundError(sheet string) error {
	return fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
}

func NewVariableNotFoundError(name string) error {
	return fmt.Errorf("%w: '%s'", ErrVariableNotFound, name)
}

func NewDuplicateHeaderError(names []string) error {
	return fmt.Errorf("%w: %v", ErrDuplicateHeader, names)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDatasetError(err error) bool {
	return errors.Is(err, ErrEmptySheetData) ||
		errors.Is(err, ErrDuplicateHeader) ||
		errors.Is(err, ErrNoNumericData) ||
		errors.Is(err, ErrInsufficientData)
}
