package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"congsync-server/internal/domain"
	"congsync-server/pkg/hash"
	"congsync-server/pkg/response"

	"go.uber.org/zap"
)

// Authentication headers carried by every signed request.
const (
	HeaderDeviceID  = "X-Device-Id"
	HeaderAPIKey    = "X-Api-Key"
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

type contextKey string

const (
	deviceKey contextKey = "device"
	localKey  contextKey = "localClient"
)

// Policy declares which principals may call an endpoint. AllowLocal opts the
// endpoint into the trusted-transport path for the co-located management UI:
// a request with no device headers, from a loopback address, when the server
// is configured to allow it.
type Policy struct {
	Roles       []domain.DeviceRole
	Permissions []string
	Methods     []string
	AllowLocal  bool
}

// DeviceRegistry is the read surface the authenticator needs.
type DeviceRegistry interface {
	FindByID(deviceID string) (*domain.Device, error)
	IsActive(device *domain.Device) bool
}

// DeviceAuth verifies signed device requests against the registry and a
// per-endpoint Policy. Every failure, whichever check tripped, produces the
// same uniform 401 body; only internal logs say why.
type DeviceAuth struct {
	registry   DeviceRegistry
	window     time.Duration
	allowLocal bool
	log        *zap.Logger
	now        func() time.Time
}

func NewDeviceAuth(registry DeviceRegistry, window time.Duration, allowLocal bool, log *zap.Logger) *DeviceAuth {
	return &DeviceAuth{
		registry:   registry,
		window:     window,
		allowLocal: allowLocal,
		log:        log,
		now:        time.Now,
	}
}

func (a *DeviceAuth) Require(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := r.Header.Get(HeaderDeviceID)
			if deviceID == "" {
				if policy.AllowLocal && a.allowLocal && isLoopback(r.RemoteAddr) {
					ctx := context.WithValue(r.Context(), localKey, true)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				a.reject(w, r, "missing device id")
				return
			}

			device, err := a.registry.FindByID(deviceID)
			if err != nil || !a.registry.IsActive(device) {
				a.reject(w, r, "unknown or revoked device")
				return
			}

			apiKey := r.Header.Get(HeaderAPIKey)
			if apiKey == "" || hash.CompareCredential(device.CredentialHash, apiKey) != nil {
				a.reject(w, r, "credential mismatch")
				return
			}

			timestamp, err := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
			if err != nil {
				a.reject(w, r, "bad timestamp")
				return
			}
			if !hash.VerifySignature(apiKey, r.Method, r.URL.RequestURI(), timestamp, r.Header.Get(HeaderSignature)) {
				a.reject(w, r, "signature mismatch")
				return
			}

			skew := a.now().Unix() - timestamp
			if skew < 0 {
				skew = -skew
			}
			if skew > int64(a.window.Seconds()) {
				a.reject(w, r, "stale timestamp")
				return
			}

			if !roleAllowed(policy.Roles, device.Role) {
				a.reject(w, r, "role not allowed")
				return
			}
			for _, perm := range policy.Permissions {
				if !device.HasPermission(perm) {
					a.reject(w, r, "missing permission")
					return
				}
			}
			if !methodAllowed(policy.Methods, r.Method) {
				a.reject(w, r, "method not allowed")
				return
			}

			ctx := context.WithValue(r.Context(), deviceKey, device)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// reject logs the real cause internally and answers with the uniform body.
func (a *DeviceAuth) reject(w http.ResponseWriter, r *http.Request, reason string) {
	a.log.Warn("request rejected",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("device_id", r.Header.Get(HeaderDeviceID)),
		zap.String("reason", reason))
	response.Unauthorized(w)
}

func roleAllowed(roles []domain.DeviceRole, role domain.DeviceRole) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

func methodAllowed(methods []string, method string) bool {
	for _, candidate := range methods {
		if candidate == method {
			return true
		}
	}
	return false
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// GetDevice returns the authenticated device, or nil for local clients.
func GetDevice(r *http.Request) *domain.Device {
	device, ok := r.Context().Value(deviceKey).(*domain.Device)
	if !ok {
		return nil
	}
	return device
}

// IsLocalClient reports whether the request came through the trusted local
// path rather than a signed device.
func IsLocalClient(r *http.Request) bool {
	local, ok := r.Context().Value(localKey).(bool)
	return ok && local
}
