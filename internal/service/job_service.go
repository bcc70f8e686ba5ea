package service

import (
	"errors"
	"fmt"
	"time"

	"congsync-server/internal/domain"
	"congsync-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// assetApplier folds a desktop_to_mobile job into its cache file, detached
// from the request that created the job.
type assetApplier interface {
	ApplyAsync(job *domain.SyncJob)
}

// sideEffectDispatcher applies a mobile_to_desktop job's payload to the
// domain stores.
type sideEffectDispatcher interface {
	Dispatch(job *domain.SyncJob) error
}

// JobService owns the job lifecycle: submission, polling reads, acks and
// imports. It is the only writer of job records.
type JobService struct {
	jobs          repository.JobRepository
	notifications repository.NotificationRepository
	assets        assetApplier
	dispatcher    sideEffectDispatcher
	log           *zap.Logger
}

func NewJobService(
	jobs repository.JobRepository,
	notifications repository.NotificationRepository,
	assets assetApplier,
	dispatcher sideEffectDispatcher,
	log *zap.Logger,
) *JobService {
	return &JobService{
		jobs:          jobs,
		notifications: notifications,
		assets:        assets,
		dispatcher:    dispatcher,
		log:           log,
	}
}

// Submit validates and stores a new job. For desktop_to_mobile jobs the
// asset writer runs detached; a cache write failure never fails the request
// because the job record is the durable source of truth.
func (s *JobService) Submit(req *domain.SubmitJobRequest, defaultDirection domain.JobDirection) (*domain.SyncJob, error) {
	jobType := domain.JobType(req.Type)
	if !jobType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}

	direction := defaultDirection
	if req.Direction != "" {
		direction = domain.JobDirection(req.Direction)
		if !direction.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, req.Direction)
		}
	}

	now := time.Now()
	job := &domain.SyncJob{
		ID:           uuid.New().String(),
		Type:         jobType,
		Direction:    direction,
		Payload:      req.Payload,
		Status:       domain.StatusPending,
		Initiator:    req.Initiator,
		DeviceTarget: req.DeviceTarget,
		Notify:       req.Notify,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.jobs.Add(job); err != nil {
		return nil, err
	}

	if job.Notify {
		s.notify(job, domain.LevelInfo, fmt.Sprintf("new %s job received", job.Type))
	}
	if job.Direction == domain.DirectionDesktopToMobile && s.assets != nil {
		s.assets.ApplyAsync(job)
	}
	return job, nil
}

// Ack advances a job's status by id. Re-asserting the current status is a
// no-op that returns the same final state, so redelivered acks are safe.
func (s *JobService) Ack(req *domain.AckRequest) (*domain.SyncJob, error) {
	status := domain.JobStatus(req.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}

	update := domain.JobUpdate{Status: &status}
	if req.ErrorMessage != "" {
		update.ErrorMessage = &req.ErrorMessage
	}
	// The forward-only check happens inside Update, under the store mutex;
	// checking against a separate Find here would race with concurrent acks.
	job, err := s.jobs.Update(req.JobID, update)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
		}
		return nil, err
	}

	if job.Notify && status == domain.StatusFailed {
		s.notify(job, domain.LevelError, fmt.Sprintf("%s job failed: %s", job.Type, job.ErrorMessage))
	}
	return job, nil
}

// Import acks a mobile_to_desktop job and then applies its payload to the
// domain stores. The ack always lands first: losing it would cause infinite
// redelivery, which is worse than a missed side effect since jobs are never
// deleted and can be reconciled manually.
func (s *JobService) Import(req *domain.ImportRequest) (*domain.SyncJob, error) {
	current, err := s.jobs.Find(req.JobID)
	if err != nil {
		return nil, err
	}
	if current.Direction != domain.DirectionMobileToDesktop {
		return nil, fmt.Errorf("%w: job %s is %s", ErrInvalidDirection, current.ID, current.Direction)
	}

	status := domain.StatusProcessed
	if req.Status != "" {
		status = domain.JobStatus(req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
		}
	}

	update := domain.JobUpdate{Status: &status}
	if req.Note != "" {
		update.ErrorMessage = &req.Note
	}
	job, err := s.jobs.Update(req.JobID, update)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
		}
		return nil, err
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(job); err != nil {
			s.log.Error("import side effects failed",
				zap.String("job_id", job.ID),
				zap.String("type", string(job.Type)),
				zap.Error(err))
		}
	}
	return job, nil
}

func (s *JobService) List(filter domain.JobFilter) ([]*domain.SyncJob, error) {
	return s.jobs.List(filter)
}

func (s *JobService) Find(jobID string) (*domain.SyncJob, error) {
	return s.jobs.Find(jobID)
}

// Updates returns the union of pending and sent desktop_to_mobile jobs,
// newest first. A consumer may need to re-fetch a job it has seen but not
// fully processed, so sent jobs stay visible until acked.
func (s *JobService) Updates(types []domain.JobType, since time.Time, limit int) ([]*domain.SyncJob, error) {
	return s.jobs.List(domain.JobFilter{
		Direction: domain.DirectionDesktopToMobile,
		Statuses:  []domain.JobStatus{domain.StatusPending, domain.StatusSent},
		Types:     types,
		Since:     since,
		Limit:     limit,
	})
}

// notify is best-effort: the notification log is not authoritative and a
// write failure must not disturb the job lifecycle.
func (s *JobService) notify(job *domain.SyncJob, level domain.NotificationLevel, message string) {
	n := &domain.Notification{
		ID:        uuid.New().String(),
		JobID:     job.ID,
		Message:   message,
		Level:     level,
		CreatedAt: time.Now(),
	}
	if err := s.notifications.Add(n); err != nil {
		s.log.Warn("failed to record notification",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}
