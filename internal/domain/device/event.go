package device

import (
	"strings"
	"time"

	"github.com/shiftsense/attendance-backend-go/internal/domain/attendance"
)

// RawEvent is the untrusted decoded payload from a biometric device.
// Hardware protocol parsing happens upstream; this is already JSON.
type RawEvent struct {
	EmployeeCode  string    `json:"employee_code"`
	DisplayName   string    `json:"display_name"`
	DeviceAddress string    `json:"device_address"`
	Timestamp     time.Time `json:"timestamp"`
	Verified      bool      `json:"verified"`
}

// Event is the strict internal form. Only events that pass Normalize ever
// reach state-machine logic.
type Event struct {
	EmployeeCode  string
	DisplayName   string
	DeviceAddress string
	At            time.Time
	Kind          attendance.EventKind
}

// RoleMap classifies device addresses. Denylisted addresses (administrative
// doors and the like) never drive attendance.
type RoleMap struct {
	roles    map[string]attendance.EventKind
	denylist map[string]struct{}
}

func NewRoleMap(entryAddrs, exitAddrs, denylistAddrs []string) RoleMap {
	m := RoleMap{
		roles:    make(map[string]attendance.EventKind),
		denylist: make(map[string]struct{}),
	}
	for _, addr := range entryAddrs {
		m.roles[normalizeAddr(addr)] = attendance.EventEntry
	}
	for _, addr := range exitAddrs {
		m.roles[normalizeAddr(addr)] = attendance.EventExit
	}
	for _, addr := range denylistAddrs {
		m.denylist[normalizeAddr(addr)] = struct{}{}
	}
	return m
}

func normalizeAddr(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Normalize validates the raw payload and fails closed: anything unverified,
// incomplete or from an unclassified device is discarded before it can reach
// the state machine.
func (r RawEvent) Normalize(roles RoleMap) (Event, error) {
	if !r.Verified {
		return Event{}, ErrUnverifiedEvent
	}
	if r.EmployeeCode == "" || r.Timestamp.IsZero() {
		return Event{}, ErrMissingIdentity
	}

	addr := normalizeAddr(r.DeviceAddress)
	if _, denied := roles.denylist[addr]; denied {
		return Event{}, ErrDenylistedDevice
	}
	kind, ok := roles.roles[addr]
	if !ok {
		return Event{}, ErrUnknownDevice
	}

	return Event{
		EmployeeCode:  r.EmployeeCode,
		DisplayName:   r.DisplayName,
		DeviceAddress: addr,
		At:            r.Timestamp.UTC(),
		Kind:          kind,
	}, nil
}
