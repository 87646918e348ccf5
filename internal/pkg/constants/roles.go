package constants

// Role values as stored in the accounts table and sent to the front end.
const (
	User  = "nguoi_dung"
	Staff = "nhan_vien"
	Admin = "quan_tri"
)

// ValidRoles is the set of allowed role values, lowest privilege first.
var ValidRoles = []string{User, Staff, Admin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
