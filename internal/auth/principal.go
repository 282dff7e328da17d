package auth

// Action is a named protected operation on a backend entity.
type Action string

// Protected actions. Handlers gate on exactly one of these per request.
const (
	ActionUserCreate Action = "user:create"
	ActionUserRead   Action = "user:read"
	ActionUserEdit   Action = "user:edit"
	ActionUserDelete Action = "user:delete"

	ActionDeviceCreate Action = "device:create"
	ActionDeviceRead   Action = "device:read"
	ActionDeviceEdit   Action = "device:edit"
	ActionDeviceDelete Action = "device:delete"

	ActionToolCreate Action = "tool:create"
	ActionToolRead   Action = "tool:read"
	ActionToolEdit   Action = "tool:edit"
	ActionToolDelete Action = "tool:delete"

	ActionQualificationCreate Action = "qualification:create"
	ActionQualificationRead   Action = "qualification:read"
	ActionQualificationEdit   Action = "qualification:edit"
	ActionQualificationDelete Action = "qualification:delete"

	ActionUserQualificationAdd    Action = "user-qualification:add"
	ActionUserQualificationRemove Action = "user-qualification:remove"
)

// AllActions lists every protected action.
var AllActions = []Action{
	ActionUserCreate, ActionUserRead, ActionUserEdit, ActionUserDelete,
	ActionDeviceCreate, ActionDeviceRead, ActionDeviceEdit, ActionDeviceDelete,
	ActionToolCreate, ActionToolRead, ActionToolEdit, ActionToolDelete,
	ActionQualificationCreate, ActionQualificationRead, ActionQualificationEdit, ActionQualificationDelete,
	ActionUserQualificationAdd, ActionUserQualificationRemove,
}

// PrincipalKind classifies an authenticated actor.
type PrincipalKind string

const (
	// KindUnauthenticated is a request with no (or unrecognised) credentials.
	KindUnauthenticated PrincipalKind = "unauthenticated"

	// KindAdmin is an administrator authenticated by name and password
	// or by a session token.
	KindAdmin PrincipalKind = "admin"

	// KindDevice is a controller authenticated by mac and shared secret.
	KindDevice PrincipalKind = "device"
)

// Principal is the resolved identity of a request. Exactly one of Admin or
// DeviceMac is populated depending on Kind; principals are derived per
// request and never persisted.
type Principal struct {
	Kind      PrincipalKind
	AdminName string // set when Kind == KindAdmin
	AdminID   int64  // set when Kind == KindAdmin
	DeviceMac string // set when Kind == KindDevice
	DeviceID  int64  // set when Kind == KindDevice
}

// Unauthenticated is the principal for requests carrying no valid credentials.
var Unauthenticated = Principal{Kind: KindUnauthenticated}

// deviceGrants is the capability set for device principals. A device may
// self-register and read device records, and nothing else: no users, no
// tools, no qualifications.
var deviceGrants = map[Action]bool{
	ActionDeviceRead:   true,
	ActionDeviceCreate: true,
}

// Can reports whether the principal may perform the action. Admins may do
// everything; unauthenticated principals nothing.
func (p Principal) Can(action Action) bool {
	switch p.Kind {
	case KindAdmin:
		return true
	case KindDevice:
		return deviceGrants[action]
	default:
		return false
	}
}

// IsAuthenticated reports whether the principal carries a verified identity.
func (p Principal) IsAuthenticated() bool {
	return p.Kind != KindUnauthenticated
}
