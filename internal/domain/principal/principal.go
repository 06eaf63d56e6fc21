package principal

import "github.com/google/uuid"

type Role string

const (
	// RoleGuest books stays; RoleHost owns listings. RoleSystem is reserved
	// for trusted collaborators such as the payment settlement callback.
	RoleGuest  Role = "guest"
	RoleHost   Role = "host"
	RoleSystem Role = "system"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleHost, RoleSystem:
		return true
	default:
		return false
	}
}

// Principal is the authenticated actor behind a request. It is passed
// explicitly into every operation; the engine holds no ambient session.
type Principal struct {
	ID   uuid.UUID
	Role Role
}
