package repository

import (
	"sync"
	"time"

	"congsync-server/internal/domain"
)

type ReportRepository interface {
	Upsert(report *domain.PreachingReport) error
	Find(userID, month string) (*domain.PreachingReport, error)
	List() ([]*domain.PreachingReport, error)
}

// reportRepository stores preaching reports keyed by user and month. A
// record marked mobile-originated wins over a later desktop-sourced sync of
// the same key: the publisher's own submission is the source of truth.
type reportRepository struct {
	path string
	mu   sync.Mutex
}

func NewReportRepository(path string) ReportRepository {
	return &reportRepository{path: path}
}

func (r *reportRepository) load() ([]*domain.PreachingReport, error) {
	var reports []*domain.PreachingReport
	if err := ReadFileJSON(r.path, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) Upsert(report *domain.PreachingReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports, err := r.load()
	if err != nil {
		return err
	}
	report.UpdatedAt = time.Now()
	for i, existing := range reports {
		if existing.UserID != report.UserID || existing.Month != report.Month {
			continue
		}
		if existing.Source == domain.SourceMobile && report.Source != domain.SourceMobile {
			// Keep the mobile submission; drop the desktop edit.
			return nil
		}
		reports[i] = report
		return WriteFileJSON(r.path, reports)
	}
	reports = append(reports, report)
	return WriteFileJSON(r.path, reports)
}

func (r *reportRepository) Find(userID, month string) (*domain.PreachingReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, report := range reports {
		if report.UserID == userID && report.Month == month {
			return report, nil
		}
	}
	return nil, ErrNotFound
}

func (r *reportRepository) List() ([]*domain.PreachingReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}
