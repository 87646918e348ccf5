package constants

import "nhadat-backend/internal/pkg/constants"

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewOwnListings:  {constants.User, constants.Staff, constants.Admin},
	CreateListing:    {constants.User, constants.Staff, constants.Admin},
	EditListing:      {constants.User, constants.Staff, constants.Admin},
	DeleteListing:    {constants.User, constants.Staff, constants.Admin},
	ModerateListings: {constants.Staff, constants.Admin},
	ViewListingAudit: {constants.Staff, constants.Admin},
	ViewStaffStats:   {constants.Staff, constants.Admin},
	ViewAdminStats:   {constants.Admin},
	ManageAccounts:   {constants.Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
