package service

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"congsync-server/internal/domain"
	"congsync-server/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dispatcherEnv struct {
	dispatcher *ImportDispatcher
	contacts   repository.ContactRepository
	attendance repository.AttendanceRepository
	reports    repository.ReportRepository
}

func newDispatcherEnv(t *testing.T) *dispatcherEnv {
	t.Helper()
	dir := t.TempDir()
	contacts := repository.NewContactRepository(filepath.Join(dir, "contacts.json"))
	attendance := repository.NewAttendanceRepository(filepath.Join(dir, "attendance.json"))
	reports := repository.NewReportRepository(filepath.Join(dir, "reports.json"))
	return &dispatcherEnv{
		dispatcher: NewImportDispatcher(contacts, attendance, reports, zap.NewNop()),
		contacts:   contacts,
		attendance: attendance,
		reports:    reports,
	}
}

func importJob(jobType domain.JobType, payload string) *domain.SyncJob {
	return &domain.SyncJob{
		ID:        "job-" + string(jobType),
		Type:      jobType,
		Direction: domain.DirectionMobileToDesktop,
		Payload:   json.RawMessage(payload),
		Status:    domain.StatusProcessed,
		CreatedAt: time.Now(),
	}
}

func TestImportDispatcher_EmergencyContacts(t *testing.T) {
	env := newDispatcherEnv(t)

	err := env.dispatcher.Dispatch(importJob(domain.TypeEmergencyContacts,
		`{"userId":"u1","emergency":{"name":"Ana Silva","phone":"+551199999"}}`))
	require.NoError(t, err)

	contact, err := env.contacts.Find("u1")
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Ana Silva","phone":"+551199999"}`, string(contact.Emergency))
}

func TestImportDispatcher_AttendanceUpsert(t *testing.T) {
	env := newDispatcherEnv(t)

	require.NoError(t, env.dispatcher.Dispatch(importJob(domain.TypeAttendance,
		`{"meetingType":"midweek","week":"2026-08-24","count":76}`)))
	// Resubmission for the same meeting replaces the count.
	require.NoError(t, env.dispatcher.Dispatch(importJob(domain.TypeAttendance,
		`{"meetingType":"midweek","week":"2026-08-24","count":81}`)))

	record, err := env.attendance.Find("midweek", "2026-08-24")
	require.NoError(t, err)
	require.Equal(t, 81, record.Count)
	require.Equal(t, domain.SourceMobile, record.Source)

	records, err := env.attendance.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestImportDispatcher_PreachingReportMarkedReceived(t *testing.T) {
	env := newDispatcherEnv(t)

	err := env.dispatcher.Dispatch(importJob(domain.TypePreachingReport,
		`{"userId":"u1","month":"2026-08","hours":12.5,"studies":2}`))
	require.NoError(t, err)

	report, err := env.reports.Find("u1", "2026-08")
	require.NoError(t, err)
	require.Equal(t, "received", report.Status)
	require.Equal(t, domain.SourceMobile, report.Source)
	require.Equal(t, 12.5, report.Hours)
}

func TestImportDispatcher_UnhandledTypeIsNoOp(t *testing.T) {
	env := newDispatcherEnv(t)

	require.NoError(t, env.dispatcher.Dispatch(importJob(domain.TypeTerritories, `{}`)))
}

func TestImportDispatcher_BadPayload(t *testing.T) {
	env := newDispatcherEnv(t)

	require.Error(t, env.dispatcher.Dispatch(importJob(domain.TypeEmergencyContacts, `{"emergency":{}}`)))
	require.Error(t, env.dispatcher.Dispatch(importJob(domain.TypeAttendance, `{"count":5}`)))
	require.Error(t, env.dispatcher.Dispatch(importJob(domain.TypePreachingReport, `{"userId":"u1"}`)))
}
