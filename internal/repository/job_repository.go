package repository

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"congsync-server/internal/domain"
)

// ErrInvalidTransition is returned when an update would move a job's status
// backwards. The check lives here, under the store mutex, so concurrent acks
// cannot regress a job via a stale read.
var ErrInvalidTransition = errors.New("invalid status transition")

type JobRepository interface {
	Add(job *domain.SyncJob) error
	Update(jobID string, update domain.JobUpdate) (*domain.SyncJob, error)
	List(filter domain.JobFilter) ([]*domain.SyncJob, error)
	Find(jobID string) (*domain.SyncJob, error)
}

// jobRepository is the durable job log. Jobs are append-and-update only;
// nothing is ever removed from the file.
type jobRepository struct {
	path string
	mu   sync.Mutex
}

func NewJobRepository(path string) JobRepository {
	return &jobRepository{path: path}
}

func (r *jobRepository) load() ([]*domain.SyncJob, error) {
	var jobs []*domain.SyncJob
	if err := ReadFileJSON(r.path, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRepository) Add(job *domain.SyncJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs, err := r.load()
	if err != nil {
		return err
	}
	jobs = append(jobs, job)
	return WriteFileJSON(r.path, jobs)
}

func (r *jobRepository) Update(jobID string, update domain.JobUpdate) (*domain.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if j.ID != jobID {
			continue
		}
		if update.Status != nil {
			if !j.Status.CanAdvanceTo(*update.Status) {
				return nil, fmt.Errorf("%w: job %s cannot move from %s to %s",
					ErrInvalidTransition, j.ID, j.Status, *update.Status)
			}
			j.Status = *update.Status
		}
		if update.DeviceTarget != nil {
			j.DeviceTarget = update.DeviceTarget
		}
		if update.ErrorMessage != nil {
			j.ErrorMessage = *update.ErrorMessage
		}
		// UpdatedAt must never move backwards, even under clock skew.
		now := time.Now()
		if now.After(j.UpdatedAt) {
			j.UpdatedAt = now
		}
		if err := WriteFileJSON(r.path, jobs); err != nil {
			return nil, err
		}
		return j, nil
	}
	return nil, ErrNotFound
}

func (r *jobRepository) List(filter domain.JobFilter) ([]*domain.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs, err := r.load()
	if err != nil {
		return nil, err
	}

	var matched []*domain.SyncJob
	for _, j := range jobs {
		if filter.Direction != "" && j.Direction != filter.Direction {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, j.Status) {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, j.Type) {
			continue
		}
		if !filter.Since.IsZero() && !j.CreatedAt.After(filter.Since) {
			continue
		}
		matched = append(matched, j)
	}

	sort.Slice(matched, func(a, b int) bool {
		return matched[a].CreatedAt.After(matched[b].CreatedAt)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *jobRepository) Find(jobID string) (*domain.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if j.ID == jobID {
			return j, nil
		}
	}
	return nil, ErrNotFound
}

func containsStatus(statuses []domain.JobStatus, s domain.JobStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsType(types []domain.JobType, t domain.JobType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
