package service

import (
	"congsync-server/internal/domain"
	"congsync-server/internal/repository"
)

// DeviceRegistry is the read surface over the device store used by request
// authentication. Provisioning, rotation and revocation are management-plane
// operations that write the same file out-of-band.
type DeviceRegistry struct {
	repo repository.DeviceRepository
}

func NewDeviceRegistry(repo repository.DeviceRepository) *DeviceRegistry {
	return &DeviceRegistry{repo: repo}
}

func (s *DeviceRegistry) FindByID(deviceID string) (*domain.Device, error) {
	return s.repo.FindByID(deviceID)
}

func (s *DeviceRegistry) IsActive(device *domain.Device) bool {
	return device != nil && device.Status == domain.DeviceActive
}
