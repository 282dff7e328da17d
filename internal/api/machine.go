package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rbining/fablock-core/internal/access"
	"github.com/rbining/fablock-core/internal/auth"
	"github.com/rbining/fablock-core/internal/device"
)

// machineGate authorises a machine-protocol request for the given mac.
// Unauthenticated callers get a Basic challenge. A device principal must
// have authenticated as the same mac it queries; authenticating as mac X
// and querying mac Y is Forbidden, not Unauthorized. Admin principals may
// query any mac.
func (s *Server) machineGate(w http.ResponseWriter, r *http.Request, mac string) bool {
	p := principalFrom(r.Context())
	switch p.Kind {
	case auth.KindAdmin:
		return true
	case auth.KindDevice:
		if p.DeviceMac != mac {
			http.Error(w, "forbidden", http.StatusForbidden)
			return false
		}
		return true
	default:
		w.Header().Set("WWW-Authenticate", basicRealm)
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return false
	}
}

func (s *Server) handleMachineConfigV1(w http.ResponseWriter, r *http.Request) {
	s.handleMachineConfig(w, r, access.ProtocolV1)
}

func (s *Server) handleMachineConfigV2(w http.ResponseWriter, r *http.Request) {
	s.handleMachineConfig(w, r, access.ProtocolV2)
}

// handleMachineConfig renders the device configuration text. The v2 path
// provisions unknown macs with placeholder fields; v1 reports them as not
// found. Provisioning is the machine protocol's only write.
func (s *Server) handleMachineConfig(w http.ResponseWriter, r *http.Request, version access.Protocol) {
	mac := chi.URLParam(r, "mac")
	if !s.machineGate(w, r, mac) {
		return
	}

	var (
		dev   *device.Device
		tools []device.Tool
		err   error
	)
	if version >= access.ProtocolV2 {
		dev, tools, err = s.resolver.ProvisionDeviceConfig(r.Context(), mac)
	} else {
		dev, tools, err = s.resolver.DeviceConfig(r.Context(), mac)
	}
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			http.Error(w, "device not found", http.StatusNotFound)
			return
		}
		s.logger.Error("machine config failed", "mac", mac, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeText(w, http.StatusOK, access.RenderConfig(dev, tools, version))
}

func (s *Server) handleMachinePermissionsV1(w http.ResponseWriter, r *http.Request) {
	s.handleMachinePermissions(w, r)
}

func (s *Server) handleMachinePermissionsV2(w http.ResponseWriter, r *http.Request) {
	s.handleMachinePermissions(w, r)
}

// handleMachinePermissions resolves and renders the permitted tool ids for
// the user credential in the query string, one id per line in pin order.
// Unknown users, wrong card secrets, and locked users all render as zero
// lines with status 200: the endpoint is deliberately not an oracle for
// registered identifiers. Both protocol versions share this payload.
func (s *Server) handleMachinePermissions(w http.ResponseWriter, r *http.Request) {
	mac := chi.URLParam(r, "mac")
	if !s.machineGate(w, r, mac) {
		return
	}

	q := r.URL.Query()
	var cred access.Credential
	if cardID := q.Get("cardid"); cardID != "" {
		cred = access.CardCredential(cardID, q.Get("cardsecret"))
	} else if phone := q.Get("phone"); phone != "" {
		cred = access.PhoneCredential(phone)
	}

	ids, err := s.resolver.PermittedToolIDs(r.Context(), mac, cred)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			http.Error(w, "device not found", http.StatusNotFound)
			return
		}
		s.logger.Error("permission resolution failed", "mac", mac, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeText(w, http.StatusOK, access.RenderPermittedIDs(ids))
}
