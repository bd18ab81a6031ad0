package domain

// Identity is what a live bearer token proves about the caller.
type Identity struct {
	UserID int64            `json:"id"`
	Name   string           `json:"name"`
	Email  string           `json:"email"`
	Roles  []RoleAssignment `json:"roles"`
}

// NewIdentity builds the token claims for u.
func NewIdentity(u *User) Identity {
	return Identity{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Roles:  append([]RoleAssignment(nil), u.Roles...),
	}
}

// HasRole reports whether the identity holds role globally or for any object.
func (id Identity) HasRole(role Role) bool {
	for _, ra := range id.Roles {
		if ra.Role == role {
			return true
		}
	}
	return false
}

// HasScopedRole reports whether the identity holds role for objectID, or holds
// it globally.
func (id Identity) HasScopedRole(role Role, objectID int64) bool {
	for _, ra := range id.Roles {
		if ra.Role != role {
			continue
		}
		if ra.ObjectID == nil || *ra.ObjectID == objectID {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (id Identity) IsAdmin() bool {
	return id.HasRole(RoleAdmin)
}
