// Package settings models the clinic-settings key/value store: one record per
// clinic and key, each value serialized as a string with a declared type.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a setting id does not exist.
var ErrNotFound = errors.New("settings: not found")

// ValueType declares how a setting's string value should be interpreted.
type ValueType string

const (
	TypeString ValueType = "STRING"
	TypeInt    ValueType = "INT"
	TypeBool   ValueType = "BOOL"
	TypeJSON   ValueType = "JSON"
)

// Valid reports whether t is a known value type.
func (t ValueType) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeBool, TypeJSON:
		return true
	}
	return false
}

// Setting is one stored key/value row for a clinic.
type Setting struct {
	ID          string    `json:"id,omitempty"`
	ClinicID    string    `json:"clinicId"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Type        ValueType `json:"type"`
	Description string    `json:"description,omitempty"`
}

// Validate checks the fields every write needs.
func (s Setting) Validate() error {
	if strings.TrimSpace(s.ClinicID) == "" {
		return errors.New("settings: clinicId required")
	}
	if strings.TrimSpace(s.Key) == "" {
		return errors.New("settings: key required")
	}
	if !s.Type.Valid() {
		return fmt.Errorf("settings: unknown type %q", s.Type)
	}
	return nil
}

// Source reads and writes clinic settings.
type Source interface {
	ListByClinic(ctx context.Context, clinicID string) ([]Setting, error)
	Update(ctx context.Context, id string, s Setting) (Setting, error)
	Create(ctx context.Context, s Setting) (Setting, error)
}
