package constants

const (
	ViewOwnListings  = "view_own_listings"
	CreateListing    = "create_listing"
	EditListing      = "edit_listing"
	DeleteListing    = "delete_listing"
	ModerateListings = "moderate_listings"
	ViewListingAudit = "view_listing_audit"
	ViewStaffStats   = "view_staff_stats"
	ViewAdminStats   = "view_admin_stats"
	ManageAccounts   = "manage_accounts"
)
