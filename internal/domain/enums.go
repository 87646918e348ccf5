package domain

import "nhadat-backend/internal/pkg/constants"

// Role is an account's privilege level.
type Role string

const (
	RoleUser  Role = constants.User
	RoleStaff Role = constants.Staff
	RoleAdmin Role = constants.Admin
)

var roleRank = map[Role]int{RoleUser: 1, RoleStaff: 2, RoleAdmin: 3}

// ParseRole returns the role for a wire value; ok is false for unknown values.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants every privilege of min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && roleRank[r] >= roleRank[min]
}

// IsModerator is true for staff and admin.
func (r Role) IsModerator() bool {
	return r.AtLeast(RoleStaff)
}

type LockState string

const (
	Unlocked LockState = "unlock"
	Locked   LockState = "lock"
)

func ParseLockState(s string) (LockState, bool) {
	l := LockState(s)
	return l, l == Unlocked || l == Locked
}

// Toggled returns the opposite lock state.
func (l LockState) Toggled() LockState {
	if l == Locked {
		return Unlocked
	}
	return Locked
}

// ListingStatus is the moderation state of a listing.
type ListingStatus string

const (
	StatusPending  ListingStatus = "cho_duyet"
	StatusApproved ListingStatus = "da_duyet"
	StatusRejected ListingStatus = "tu_choi"
	StatusExpired  ListingStatus = "het_han"
)

// AllStatuses lists every listing status in lifecycle order.
var AllStatuses = []ListingStatus{StatusPending, StatusApproved, StatusRejected, StatusExpired}

func ParseListingStatus(s string) (ListingStatus, bool) {
	st := ListingStatus(s)
	for _, v := range AllStatuses {
		if v == st {
			return st, true
		}
	}
	return "", false
}

// Category is sale or rent.
type Category string

const (
	CategorySale Category = "ban"
	CategoryRent Category = "cho_thue"
)

func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c == CategorySale || c == CategoryRent
}

// ImageKind tags which owner an image row belongs to.
type ImageKind string

const (
	ImageKindListing ImageKind = "bds"
	ImageKindAvatar  ImageKind = "avatar"
)

// Decision is a moderator verdict on a pending listing.
type Decision string

const (
	DecisionApprove Decision = Decision(StatusApproved)
	DecisionReject  Decision = Decision(StatusRejected)
)

func ParseDecision(s string) (Decision, bool) {
	d := Decision(s)
	return d, d == DecisionApprove || d == DecisionReject
}
