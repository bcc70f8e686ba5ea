package repository

import (
	"path/filepath"
	"testing"
	"time"

	"congsync-server/internal/domain"

	"github.com/stretchr/testify/require"
)

func newTestDeviceRepo(t *testing.T) DeviceRepository {
	t.Helper()
	return NewDeviceRepository(filepath.Join(t.TempDir(), "devices.json"))
}

func TestDeviceRepository_CreateAndFind(t *testing.T) {
	repo := newTestDeviceRepo(t)

	device := &domain.Device{
		ID:          "d1",
		Label:       "Front desk PC",
		Role:        domain.RoleDesktop,
		Status:      domain.DeviceActive,
		Permissions: []string{"*"},
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(device))
	require.Error(t, repo.Create(device), "duplicate id must be refused")

	found, err := repo.FindByID("d1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleDesktop, found.Role)

	_, err = repo.FindByID("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeviceRepository_RevokeIsPermanent(t *testing.T) {
	repo := newTestDeviceRepo(t)

	require.NoError(t, repo.Create(&domain.Device{ID: "d1", Role: domain.RoleMobile, Status: domain.DeviceActive}))
	require.NoError(t, repo.Revoke("d1"))

	found, err := repo.FindByID("d1")
	require.NoError(t, err)
	require.Equal(t, domain.DeviceRevoked, found.Status)
	require.NotNil(t, found.RevokedAt)

	// A revoked device cannot rotate back into service.
	require.Error(t, repo.Rotate("d1", "new-hash"))

	require.ErrorIs(t, repo.Revoke("missing"), ErrNotFound)
}

func TestDeviceRepository_Rotate(t *testing.T) {
	repo := newTestDeviceRepo(t)

	require.NoError(t, repo.Create(&domain.Device{ID: "d1", Role: domain.RoleMobile, Status: domain.DeviceActive, CredentialHash: "old"}))
	require.NoError(t, repo.Rotate("d1", "new"))

	found, err := repo.FindByID("d1")
	require.NoError(t, err)
	require.Equal(t, "new", found.CredentialHash)
	require.False(t, found.LastRotatedAt.IsZero())
}
