package repository

import (
	"sync"
	"time"

	"congsync-server/internal/domain"
)

type AttendanceRepository interface {
	Upsert(record *domain.AttendanceRecord) error
	Find(meetingType, week string) (*domain.AttendanceRecord, error)
	List() ([]*domain.AttendanceRecord, error)
}

// attendanceRepository stores meeting counts keyed by meeting type and week.
type attendanceRepository struct {
	path string
	mu   sync.Mutex
}

func NewAttendanceRepository(path string) AttendanceRepository {
	return &attendanceRepository{path: path}
}

func (r *attendanceRepository) load() ([]*domain.AttendanceRecord, error) {
	var records []*domain.AttendanceRecord
	if err := ReadFileJSON(r.path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepository) Upsert(record *domain.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	record.UpdatedAt = time.Now()
	for i, existing := range records {
		if existing.MeetingType == record.MeetingType && existing.Week == record.Week {
			records[i] = record
			return WriteFileJSON(r.path, records)
		}
	}
	records = append(records, record)
	return WriteFileJSON(r.path, records)
}

func (r *attendanceRepository) Find(meetingType, week string) (*domain.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.MeetingType == meetingType && record.Week == week {
			return record, nil
		}
	}
	return nil, ErrNotFound
}

func (r *attendanceRepository) List() ([]*domain.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}
