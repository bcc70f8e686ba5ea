package service

import (
	"encoding/json"
	"fmt"

	"congsync-server/internal/domain"
	"congsync-server/internal/repository"

	"go.uber.org/zap"
)

// importHandlers maps each mobile_to_desktop type to the function that
// applies its payload to a domain store. Adding an importable type is one
// entry here plus its handler.
var importHandlers = map[domain.JobType]func(*ImportDispatcher, *domain.SyncJob) error{
	domain.TypeEmergencyContacts: (*ImportDispatcher).applyEmergencyContacts,
	domain.TypeAttendance:        (*ImportDispatcher).applyAttendance,
	domain.TypePreachingReport:   (*ImportDispatcher).applyPreachingReport,
}

// ImportDispatcher applies mobile_to_desktop payloads to the domain stores
// after an import ack. Dispatch failures are the caller's to log; they never
// undo the ack.
type ImportDispatcher struct {
	contacts   repository.ContactRepository
	attendance repository.AttendanceRepository
	reports    repository.ReportRepository
	log        *zap.Logger
}

func NewImportDispatcher(
	contacts repository.ContactRepository,
	attendance repository.AttendanceRepository,
	reports repository.ReportRepository,
	log *zap.Logger,
) *ImportDispatcher {
	return &ImportDispatcher{
		contacts:   contacts,
		attendance: attendance,
		reports:    reports,
		log:        log,
	}
}

// Dispatch applies the job's payload. Types without a handler are a no-op:
// the queue carries them but nothing on the desktop side consumes them yet.
func (d *ImportDispatcher) Dispatch(job *domain.SyncJob) error {
	handler, ok := importHandlers[job.Type]
	if !ok {
		return nil
	}
	if err := handler(d, job); err != nil {
		return fmt.Errorf("failed to apply %s payload: %w", job.Type, err)
	}
	d.log.Info("import side effects applied",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)))
	return nil
}

func (d *ImportDispatcher) applyEmergencyContacts(job *domain.SyncJob) error {
	var payload domain.EmergencyContactsPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return err
	}
	if payload.UserID == "" {
		return fmt.Errorf("missing userId")
	}
	return d.contacts.SetEmergency(payload.UserID, payload.Emergency)
}

func (d *ImportDispatcher) applyAttendance(job *domain.SyncJob) error {
	var payload domain.AttendancePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return err
	}
	if payload.MeetingType == "" || payload.Week == "" {
		return fmt.Errorf("missing meetingType or week")
	}
	return d.attendance.Upsert(&domain.AttendanceRecord{
		MeetingType: payload.MeetingType,
		Week:        payload.Week,
		Count:       payload.Count,
		Source:      domain.SourceMobile,
	})
}

func (d *ImportDispatcher) applyPreachingReport(job *domain.SyncJob) error {
	var payload domain.PreachingReportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return err
	}
	if payload.UserID == "" || payload.Month == "" {
		return fmt.Errorf("missing userId or month")
	}
	return d.reports.Upsert(&domain.PreachingReport{
		UserID:  payload.UserID,
		Month:   payload.Month,
		Hours:   payload.Hours,
		Studies: payload.Studies,
		Notes:   payload.Notes,
		Status:  "received",
		Source:  domain.SourceMobile,
	})
}
