package domain

import (
	"encoding/json"
	"time"
)

// Source markers for records that can arrive from either peer. Once a record
// is marked as mobile-originated it takes precedence over desktop edits
// synced for the same key.
const (
	SourceMobile  = "mobile"
	SourceDesktop = "desktop"
)

// AttendanceRecord is one meeting attendance count, keyed by meeting type
// and week.
type AttendanceRecord struct {
	MeetingType string    `json:"meeting_type"`
	Week        string    `json:"week"`
	Count       int       `json:"count"`
	Source      string    `json:"source,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PreachingReport is a monthly activity report, keyed by user and month.
type PreachingReport struct {
	UserID    string    `json:"user_id"`
	Month     string    `json:"month"`
	Hours     float64   `json:"hours"`
	Studies   int       `json:"studies"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status,omitempty"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmergencyContact is a person's emergency-contact block. The block itself
// is opaque to the queue; the mobile app owns its shape.
type EmergencyContact struct {
	UserID    string          `json:"user_id"`
	Emergency json.RawMessage `json:"emergency"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Payload shapes for mobile_to_desktop job types. Field names follow the
// wire format produced by the companion apps.

type EmergencyContactsPayload struct {
	UserID    string          `json:"userId"`
	Emergency json.RawMessage `json:"emergency"`
}

type AttendancePayload struct {
	MeetingType string `json:"meetingType"`
	Week        string `json:"week"`
	Count       int    `json:"count"`
}

type PreachingReportPayload struct {
	UserID  string  `json:"userId"`
	Month   string  `json:"month"`
	Hours   float64 `json:"hours"`
	Studies int     `json:"studies"`
	Notes   string  `json:"notes,omitempty"`
}
