package repository

import (
	"fmt"
	"sync"
	"time"

	"congsync-server/internal/domain"
)

type DeviceRepository interface {
	FindByID(deviceID string) (*domain.Device, error)
	List() ([]*domain.Device, error)
	Create(device *domain.Device) error
	Rotate(deviceID, credentialHash string) error
	Revoke(deviceID string) error
}

// deviceRepository reads and writes the device registry file. The HTTP
// surface only ever looks devices up; Create/Rotate/Revoke exist for the
// out-of-band provisioning tool that shares the file.
type deviceRepository struct {
	path string
	mu   sync.Mutex
}

func NewDeviceRepository(path string) DeviceRepository {
	return &deviceRepository{path: path}
}

func (r *deviceRepository) load() ([]*domain.Device, error) {
	var devices []*domain.Device
	if err := ReadFileJSON(r.path, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *deviceRepository) FindByID(deviceID string) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.ID == deviceID {
			return d, nil
		}
	}
	return nil, ErrNotFound
}

func (r *deviceRepository) List() ([]*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *deviceRepository) Create(device *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.load()
	if err != nil {
		return err
	}
	for _, d := range devices {
		if d.ID == device.ID {
			return fmt.Errorf("device %s already exists", device.ID)
		}
	}
	devices = append(devices, device)
	return WriteFileJSON(r.path, devices)
}

func (r *deviceRepository) Rotate(deviceID, credentialHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.load()
	if err != nil {
		return err
	}
	for _, d := range devices {
		if d.ID != deviceID {
			continue
		}
		if d.Status == domain.DeviceRevoked {
			return fmt.Errorf("device %s is revoked", deviceID)
		}
		d.CredentialHash = credentialHash
		d.LastRotatedAt = time.Now()
		return WriteFileJSON(r.path, devices)
	}
	return ErrNotFound
}

// Revoke is permanent; there is no way to reactivate a device record.
func (r *deviceRepository) Revoke(deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.load()
	if err != nil {
		return err
	}
	for _, d := range devices {
		if d.ID != deviceID {
			continue
		}
		now := time.Now()
		d.Status = domain.DeviceRevoked
		d.RevokedAt = &now
		return WriteFileJSON(r.path, devices)
	}
	return ErrNotFound
}
