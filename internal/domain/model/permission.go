package model

// AdminRoleMarker is matched literally against member role ids.
//
// NOTE: "8" is the ADMINISTRATOR permission bit, not a role id, so this only
// matches a role whose id happens to be "8". Kept as a literal membership
// check; decoding Member.Permissions would be the real fix.
const AdminRoleMarker = "8"

type UserType string

const (
	UserTypeAdminRole  UserType = "admin_role"
	UserTypePrivileged UserType = "privileged_user"
)

// PermissionDecision is the outcome of the admin authorization check.
type PermissionDecision struct {
	Authorized bool
	UserType   UserType
	Reason     string
}

// ChannelDecision is the outcome of a channel restriction check.
type ChannelDecision struct {
	Allowed bool
	Reason  string
}

// HasRole reports whether the member carries the given role id.
func (m *Member) HasRole(role string) bool {
	if m == nil {
		return false
	}
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}
