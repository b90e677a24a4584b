package domain

// Caller identifies who is invoking a use case and what they may see.
// Services receive it explicitly; nothing reads the role from ambient state.
type Caller struct {
	UserID string
	Role   Role
	// CustomerID is the customer record linked to a customer-role user, if any.
	CustomerID string
}

func (c Caller) IsOwner() bool    { return c.Role == RoleOwner }
func (c Caller) IsEmployee() bool { return c.Role == RoleEmployee }
func (c Caller) IsCustomer() bool { return c.Role == RoleCustomer }

// Require fails with ErrForbidden unless the caller holds one of roles.
func (c Caller) Require(roles ...Role) error {
	for _, r := range roles {
		if c.Role == r {
			return nil
		}
	}
	return Forbiddenf("role %q is not allowed to perform this action", c.Role)
}
