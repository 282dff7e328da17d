package device

import "time"

// Device represents a physical access controller mounted next to a set of
// tools. Devices are identified by their mac address and authenticate with
// a shared secret (stored as a digest).
type Device struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Mac              string    `json:"mac"`
	SecretDigest     string    `json:"-"` // never serialised
	BackgroundURL    string    `json:"background_url"`
	BackupBackendURL string    `json:"backup_backend_url"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ToolType describes how a device actuates a tool.
type ToolType string

const (
	// ToolTypeUnlock pulses the pin to release a lock.
	ToolTypeUnlock ToolType = "UNLOCK"

	// ToolTypeKeep holds the pin active while the tool is in use.
	ToolTypeKeep ToolType = "KEEP"
)

// IdleState is the electrical level of a tool pin when inactive.
type IdleState string

const (
	IdleLow  IdleState = "IDLE_LOW"
	IdleHigh IdleState = "IDLE_HIGH"
)

// ToolState is the operational state of a tool.
type ToolState string

const (
	// ToolGood means the tool is operational.
	ToolGood ToolState = "GOOD"

	// ToolBad means the tool is marked faulty but still authorisable.
	ToolBad ToolState = "BAD"

	// ToolDisabled removes the tool from every authorisation result,
	// regardless of qualifications held.
	ToolDisabled ToolState = "DISABLED"
)

// ValidToolTypes is the set of recognised tool types.
var ValidToolTypes = []ToolType{ToolTypeUnlock, ToolTypeKeep}

// ValidIdleStates is the set of recognised idle states.
var ValidIdleStates = []IdleState{IdleLow, IdleHigh}

// ValidToolStates is the set of recognised tool states.
var ValidToolStates = []ToolState{ToolGood, ToolBad, ToolDisabled}

// IsValidToolType returns true if the tool type is recognised.
func IsValidToolType(t ToolType) bool {
	for _, v := range ValidToolTypes {
		if t == v {
			return true
		}
	}
	return false
}

// IsValidIdleState returns true if the idle state is recognised.
func IsValidIdleState(s IdleState) bool {
	for _, v := range ValidIdleStates {
		if s == v {
			return true
		}
	}
	return false
}

// IsValidToolState returns true if the tool state is recognised.
func IsValidToolState(s ToolState) bool {
	for _, v := range ValidToolStates {
		if s == v {
			return true
		}
	}
	return false
}

// Tool represents a single machine wired to a device pin.
// A tool always belongs to exactly one device; (device, pin) is unique.
type Tool struct {
	ID        int64     `json:"id"`
	DeviceID  int64     `json:"device_id"`
	Pin       int       `json:"pin"`
	Name      string    `json:"name"`
	Type      ToolType  `json:"tool_type"`
	TimeMs    int64     `json:"time_ms"`
	IdleState IdleState `json:"idle_state"`
	State     ToolState `json:"tool_state"`
	WikiLink  string    `json:"wiki_link"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
