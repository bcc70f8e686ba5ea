package domain

import "time"

type DeviceRole string

const (
	RoleDesktop DeviceRole = "desktop"
	RoleMobile  DeviceRole = "mobile"
	RoleServer  DeviceRole = "server"
)

type DeviceStatus string

const (
	DeviceActive  DeviceStatus = "active"
	DeviceRevoked DeviceStatus = "revoked"
)

// Device is a registered peer. Records are created by the provisioning tool
// and never deleted; revocation is permanent.
type Device struct {
	ID             string       `json:"id"`
	Label          string       `json:"label"`
	Role           DeviceRole   `json:"role"`
	Status         DeviceStatus `json:"status"`
	CredentialHash string       `json:"credential_hash"`
	Permissions    []string     `json:"permissions"`
	CreatedAt      time.Time    `json:"created_at"`
	LastRotatedAt  time.Time    `json:"last_rotated_at"`
	RevokedAt      *time.Time   `json:"revoked_at,omitempty"`
}

// HasPermission reports whether the device holds the named permission.
// The wildcard "*" grants everything.
func (d *Device) HasPermission(perm string) bool {
	for _, p := range d.Permissions {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}
