package repository

import (
	"sort"
	"sync"

	"congsync-server/internal/domain"
)

type NotificationRepository interface {
	Add(notification *domain.Notification) error
	List(limit int) ([]*domain.Notification, error)
	Delete(notificationID string) error
	Clear() error
}

type notificationRepository struct {
	path string
	mu   sync.Mutex
}

func NewNotificationRepository(path string) NotificationRepository {
	return &notificationRepository{path: path}
}

func (r *notificationRepository) load() ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	if err := ReadFileJSON(r.path, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) Add(notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notifications, err := r.load()
	if err != nil {
		return err
	}
	notifications = append(notifications, notification)
	return WriteFileJSON(r.path, notifications)
}

func (r *notificationRepository) List(limit int) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	notifications, err := r.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(notifications, func(a, b int) bool {
		return notifications[a].CreatedAt.After(notifications[b].CreatedAt)
	})
	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

func (r *notificationRepository) Delete(notificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notifications, err := r.load()
	if err != nil {
		return err
	}
	for i, n := range notifications {
		if n.ID == notificationID {
			notifications = append(notifications[:i], notifications[i+1:]...)
			return WriteFileJSON(r.path, notifications)
		}
	}
	return ErrNotFound
}

func (r *notificationRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return WriteFileJSON(r.path, []*domain.Notification{})
}
