package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbining/fablock-core/internal/device"
	"github.com/rbining/fablock-core/internal/user"
)

// Resolver computes tool authorisation for a user at a device. All
// repositories are injected; the resolver holds no state of its own, so a
// single instance serves concurrent requests.
type Resolver struct {
	devices device.Repository
	tools   device.ToolRepository
	users   user.Repository
}

// NewResolver creates a resolver over the given repositories.
func NewResolver(devices device.Repository, tools device.ToolRepository, users user.Repository) *Resolver {
	return &Resolver{devices: devices, tools: tools, users: users}
}

// PermittedToolIDs resolves the ordered set (by pin, ascending) of tool ids
// the credential's user may operate on the device with the given mac.
//
// An unknown device is an error (device.ErrDeviceNotFound); this path never
// provisions. An unknown user, a card id with the wrong secret, and a locked
// user all yield an empty set with no error. A tool is permitted iff its
// state is not DISABLED and every qualification it requires is held by the
// user; a tool requiring no qualification is open to any matched user.
//
// The resolution is a read-only pass: repeated calls against unchanged
// stored state return the same ordered set.
func (r *Resolver) PermittedToolIDs(ctx context.Context, mac string, cred Credential) ([]int64, error) {
	dev, err := r.devices.GetByMac(ctx, mac)
	if err != nil {
		return nil, err
	}

	u, ok, err := r.lookupUser(ctx, cred)
	if err != nil {
		return nil, err
	}
	if !ok || u.Locked {
		return []int64{}, nil
	}

	tools, err := r.tools.ListForDevice(ctx, dev.ID)
	if err != nil {
		return nil, fmt.Errorf("listing tools for device %s: %w", mac, err)
	}

	required, err := r.tools.RequiredQualificationsForDevice(ctx, dev.ID)
	if err != nil {
		return nil, fmt.Errorf("loading tool requirements for device %s: %w", mac, err)
	}

	heldIDs, err := r.users.QualificationIDs(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading qualifications for user %d: %w", u.ID, err)
	}
	held := make(map[int64]bool, len(heldIDs))
	for _, id := range heldIDs {
		held[id] = true
	}

	permitted := []int64{}
	for _, tool := range tools {
		if tool.State == device.ToolDisabled {
			continue
		}
		if holdsAll(held, required[tool.ID]) {
			permitted = append(permitted, tool.ID)
		}
	}
	return permitted, nil
}

// DeviceConfig returns the device with the given mac and its non-disabled
// tools in pin order. Unknown macs are device.ErrDeviceNotFound; this path
// never provisions.
func (r *Resolver) DeviceConfig(ctx context.Context, mac string) (*device.Device, []device.Tool, error) {
	dev, err := r.devices.GetByMac(ctx, mac)
	if err != nil {
		return nil, nil, err
	}
	tools, err := r.activeTools(ctx, dev.ID)
	if err != nil {
		return nil, nil, err
	}
	return dev, tools, nil
}

// ProvisionDeviceConfig is DeviceConfig for the v2 config-fetch path: an
// unknown mac is created with placeholder fields instead of failing. The
// upsert is idempotent, so racing fetches for the same mac settle on a
// single row.
func (r *Resolver) ProvisionDeviceConfig(ctx context.Context, mac string) (*device.Device, []device.Tool, error) {
	dev, err := r.devices.EnsureByMac(ctx, mac)
	if err != nil {
		return nil, nil, fmt.Errorf("provisioning device %s: %w", mac, err)
	}
	tools, err := r.activeTools(ctx, dev.ID)
	if err != nil {
		return nil, nil, err
	}
	return dev, tools, nil
}

// lookupUser resolves the credential to a user. A non-match is (nil, false,
// nil): callers cannot distinguish an unknown card, a wrong secret, or an
// unknown phone number.
func (r *Resolver) lookupUser(ctx context.Context, cred Credential) (*user.User, bool, error) {
	if cred.IsEmpty() {
		return nil, false, nil
	}

	var u *user.User
	var err error
	if cred.IsCard() {
		u, err = r.users.GetByCardIDAndSecret(ctx, cred.CardID, cred.CardSecret)
	} else {
		u, err = r.users.GetByPhoneNumber(ctx, cred.Phone)
	}
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("looking up user: %w", err)
	}
	return u, true, nil
}

func (r *Resolver) activeTools(ctx context.Context, deviceID int64) ([]device.Tool, error) {
	all, err := r.tools.ListForDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("listing tools for device %d: %w", deviceID, err)
	}
	active := []device.Tool{}
	for _, tool := range all {
		if tool.State != device.ToolDisabled {
			active = append(active, tool)
		}
	}
	return active, nil
}

func holdsAll(held map[int64]bool, required []int64) bool {
	for _, id := range required {
		if !held[id] {
			return false
		}
	}
	return true
}
