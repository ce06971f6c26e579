package rental

import "fmt"

// Role is the closed set of marketplace actors.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// ParseRole is the single normalization point for role strings received from
// the backend.
func ParseRole(raw string) (Role, error) {
	switch normalize(raw) {
	case "customer":
		return RoleCustomer, nil
	case "vendor":
		return RoleVendor, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// CanRequest reports whether the role may submit quotations and convert
// accepted ones.
func (r Role) CanRequest() bool {
	return r == RoleCustomer
}

// CanReview reports whether the role may price and review quotations.
func (r Role) CanReview() bool {
	return r == RoleVendor || r == RoleAdmin
}

// CanRespond reports whether the role may accept or reject a reviewed quotation.
func (r Role) CanRespond() bool {
	return r == RoleCustomer
}

// CanManageOrders reports whether the role may record order progress.
func (r Role) CanManageOrders() bool {
	return r == RoleVendor || r == RoleAdmin
}

// Is reports whether r is one of roles.
func (r Role) Is(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}
