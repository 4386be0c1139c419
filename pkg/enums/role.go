package enums

// RoleName values are seeded by the initial migration.
type RoleName string

const (
	RoleAdmin RoleName = "Admin"
	RoleUser  RoleName = "User"

	// DefaultRole is granted on self-registration when it exists.
	DefaultRole = RoleUser
)

func (r RoleName) String() string {
	return string(r)
}
