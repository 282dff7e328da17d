package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrMacExists is returned when creating a device with a mac that is already registered.
	ErrMacExists = errors.New("device: mac already registered")

	// ErrToolNotFound is returned when a tool does not exist.
	ErrToolNotFound = errors.New("device: tool not found")

	// ErrPinInUse is returned when a tool is created or moved onto a pin
	// already occupied on the same device.
	ErrPinInUse = errors.New("device: pin already in use")

	// ErrInvalidTool is returned when tool validation fails.
	ErrInvalidTool = errors.New("device: invalid tool")
)
