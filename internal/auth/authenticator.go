package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbining/fablock-core/internal/device"
)

// Authenticator resolves request credentials to a Principal.
//
// Resolution order is fixed: the identity is tried as an admin name first,
// then as a device mac. A name that matches neither, or matches with a wrong
// secret, resolves to Unauthenticated — callers learn nothing about which
// half failed.
type Authenticator struct {
	admins  AdminRepository
	devices device.Repository
}

// NewAuthenticator creates an Authenticator over the given repositories.
func NewAuthenticator(admins AdminRepository, devices device.Repository) *Authenticator {
	return &Authenticator{admins: admins, devices: devices}
}

// Resolve classifies the (identity, secret) pair as Admin, Device, or
// Unauthenticated. Only storage failures are returned as errors; failed
// matches are not errors.
func (a *Authenticator) Resolve(ctx context.Context, identity, secret string) (Principal, error) {
	if identity == "" {
		return Unauthenticated, nil
	}

	admin, err := a.admins.GetByName(ctx, identity)
	switch {
	case err == nil:
		if Verify(secret, admin.PasswordDigest) {
			return Principal{Kind: KindAdmin, AdminName: admin.Name, AdminID: admin.ID}, nil
		}
		// Fall through to the device attempt: an admin name with a wrong
		// password must behave exactly like an unknown identity.
	case errors.Is(err, ErrAdminNotFound):
		// Not an admin; try device.
	default:
		return Unauthenticated, fmt.Errorf("resolving admin credentials: %w", err)
	}

	dev, err := a.devices.GetByMac(ctx, identity)
	switch {
	case err == nil:
		if Verify(secret, dev.SecretDigest) {
			return Principal{Kind: KindDevice, DeviceMac: dev.Mac, DeviceID: dev.ID}, nil
		}
	case errors.Is(err, device.ErrDeviceNotFound):
		// Unknown identity.
	default:
		return Unauthenticated, fmt.Errorf("resolving device credentials: %w", err)
	}

	return Unauthenticated, nil
}
