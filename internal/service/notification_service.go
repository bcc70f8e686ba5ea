package service

import (
	"congsync-server/internal/domain"
	"congsync-server/internal/repository"
)

type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) List(limit int) ([]*domain.Notification, error) {
	return s.repo.List(limit)
}

func (s *NotificationService) Delete(notificationID string) error {
	return s.repo.Delete(notificationID)
}

func (s *NotificationService) Clear() error {
	return s.repo.Clear()
}
