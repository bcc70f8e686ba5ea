package domain

import (
	"encoding/json"
	"time"
)

type JobType string

const (
	TypeTerritories       JobType = "territories"
	TypeCommunications    JobType = "communications"
	TypeWeeklyProgramme   JobType = "weekly_programme"
	TypePublicWitnessing  JobType = "public_witnessing"
	TypeEmergencyContacts JobType = "emergency_contacts"
	TypeAttendance        JobType = "attendance"
	TypePreachingReport   JobType = "preaching_report"
)

var jobTypes = map[JobType]bool{
	TypeTerritories:       true,
	TypeCommunications:    true,
	TypeWeeklyProgramme:   true,
	TypePublicWitnessing:  true,
	TypeEmergencyContacts: true,
	TypeAttendance:        true,
	TypePreachingReport:   true,
}

func (t JobType) Valid() bool {
	return jobTypes[t]
}

type JobDirection string

const (
	DirectionDesktopToMobile JobDirection = "desktop_to_mobile"
	DirectionMobileToDesktop JobDirection = "mobile_to_desktop"
)

func (d JobDirection) Valid() bool {
	return d == DirectionDesktopToMobile || d == DirectionMobileToDesktop
}

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusSent      JobStatus = "sent"
	StatusProcessed JobStatus = "processed"
	StatusFailed    JobStatus = "failed"
)

var statusRank = map[JobStatus]int{
	StatusPending:   0,
	StatusSent:      1,
	StatusProcessed: 2,
	StatusFailed:    2,
}

func (s JobStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether a job may move from s to next. Transitions
// only go forward; re-asserting the current status is allowed so that acks
// stay idempotent.
func (s JobStatus) CanAdvanceTo(next JobStatus) bool {
	if s == next {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// SyncJob is one unit of payload data moving between peers. Jobs are never
// deleted, only advanced to a terminal status, which is what makes
// since-based polling safe.
type SyncJob struct {
	ID           string          `json:"id"`
	Type         JobType         `json:"type"`
	Direction    JobDirection    `json:"direction"`
	Payload      json.RawMessage `json:"payload"`
	Status       JobStatus       `json:"status"`
	Initiator    string          `json:"initiator,omitempty"`
	DeviceTarget *string         `json:"device_target,omitempty"`
	Notify       bool            `json:"notify,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// JobFilter narrows a job listing. All set fields apply conjunctively;
// Since is an exclusive lower bound on CreatedAt.
type JobFilter struct {
	Direction JobDirection
	Statuses  []JobStatus
	Types     []JobType
	Since     time.Time
	Limit     int
}

// JobUpdate is a partial update applied by ack/import. Nil fields are left
// untouched.
type JobUpdate struct {
	Status       *JobStatus
	DeviceTarget *string
	ErrorMessage *string
}

type SubmitJobRequest struct {
	Type         string          `json:"type" validate:"required"`
	Payload      json.RawMessage `json:"payload" validate:"required"`
	Direction    string          `json:"direction,omitempty"`
	Initiator    string          `json:"initiator,omitempty"`
	DeviceTarget *string         `json:"device_target,omitempty"`
	Notify       bool            `json:"notify,omitempty"`
}

type AckRequest struct {
	JobID        string `json:"job_id" validate:"required"`
	Status       string `json:"status" validate:"required"`
	DeviceID     string `json:"device_id,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type ImportRequest struct {
	JobID  string `json:"job_id" validate:"required"`
	Status string `json:"status,omitempty"`
	Note   string `json:"note,omitempty"`
}
