package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// HealthState represents the computed health of a provider integration
type HealthState int

// Health state constants
const (
	// HealthUnknown indicates no sync attempt has been evaluated yet
	HealthUnknown HealthState = iota
	// HealthHealthy indicates recent syncs are succeeding
	HealthHealthy
	// HealthDegraded indicates repeated consecutive failures
	HealthDegraded
	// HealthDisabled indicates the integration was manually disabled
	HealthDisabled
)

var healthStateNames = []string{
	"unknown",
	"healthy",
	"degraded",
	"disabled",
}

// IntegrationStatus tracks the operational health of one external data
// provider. One row per provider, created lazily on first access and
// never deleted.
type IntegrationStatus struct {
	gorm.Model
	IntegrationName     string      `json:"integration_name" gorm:"uniqueIndex;not null"`
	Health              HealthState `json:"health" gorm:"index"`
	ConsecutiveFailures int         `json:"consecutive_failures" gorm:"not null;default:0"`
	LastSuccessAt       *time.Time  `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time  `json:"last_failure_at,omitempty"`
	LastErrorMessage    string      `json:"last_error_message,omitempty" gorm:"type:text"`
	LastErrorDetails    string      `json:"last_error_details,omitempty" gorm:"type:text"`
	// StaleThreshold is stored in nanoseconds
	StaleThreshold     time.Duration `json:"stale_threshold"`
	IsManuallyDisabled bool          `json:"is_manually_disabled" gorm:"not null;default:false"`
	DisabledReason     string        `json:"disabled_reason,omitempty"`
	DisabledBy         string        `json:"disabled_by,omitempty"`
	DisabledAt         *time.Time    `json:"disabled_at,omitempty"`
}

// Operational reports whether the integration may be used at all.
// A manual disable always wins over computed health.
func (s *IntegrationStatus) Operational() bool {
	return !s.IsManuallyDisabled && s.Health != HealthDisabled
}

// Fresh reports whether the last successful sync is within the stale threshold
func (s *IntegrationStatus) Fresh(now time.Time) bool {
	if s.LastSuccessAt == nil {
		return false
	}
	return now.Sub(*s.LastSuccessAt) <= s.StaleThreshold
}

// ParseHealthState converts a string representation of a health state to HealthState type
func ParseHealthState(str string) (HealthState, error) {
	for i, state := range healthStateNames {
		if state == str {
			return HealthState(i), nil
		}
	}
	return HealthUnknown, fmt.Errorf("invalid health state: %s", str)
}

func (s HealthState) String() string {
	if int(s) < 0 || int(s) >= len(healthStateNames) {
		return healthStateNames[HealthUnknown]
	}
	return healthStateNames[s]
}

// MarshalJSON implements the json.Marshaler interface for HealthState
func (s HealthState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for HealthState
func (s *HealthState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	state, err := ParseHealthState(str)
	if err != nil {
		return err
	}

	*s = state
	return nil
}
