package users

import (
	"strings"
	"time"
)

// Roles understood by the platform. Role is fixed at signup; there is no
// self-service role change.
const (
	RolePlanner = "planner"
	RoleVendor  = "vendor"
	RoleAdmin   = "admin"
)

// ValidRole reports whether role names one of the platform roles.
func ValidRole(role string) bool {
	switch role {
	case RolePlanner, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// FoldEmail normalizes an email address for uniqueness checks and lookups.
func FoldEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User is a stored account record. PasswordHash never serializes into API
// responses; the store persists it through its own record encoding.
type User struct {
	ID                string          `json:"id"`
	Email             string          `json:"email"`
	PasswordHash      string          `json:"-"`
	FullName          string          `json:"fullName"`
	Role              string          `json:"role"`
	PhoneNumber       string          `json:"phoneNumber,omitempty"`
	ProfilePictureURL string          `json:"profilePictureUrl,omitempty"`
	IsActive          bool            `json:"isActive"`
	EmailVerified     bool            `json:"emailVerified"`
	Vendor            *VendorProfile  `json:"vendor,omitempty"`
	Planner           *PlannerProfile `json:"planner,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// VendorProfile is the vendor-specific payload of a user record.
type VendorProfile struct {
	BusinessName    string   `json:"businessName,omitempty"`
	ServiceCategory string   `json:"serviceCategory,omitempty"`
	Verified        bool     `json:"verified"`
	Portfolio       []string `json:"portfolio,omitempty"`
}

// PlannerProfile is the planner-specific payload of a user record.
type PlannerProfile struct {
	Bio            string `json:"bio,omitempty"`
	NotifyBookings bool   `json:"notifyBookings"`
}

// CreateInput is the material needed to create an account. Password is
// plaintext here and exists only for the duration of the Create call.
type CreateInput struct {
	Email       string
	Password    string
	FullName    string
	Role        string
	PhoneNumber string
}

// Patch carries the profile fields a user may change about themselves.
// Email, role, and password are deliberately absent: they move only through
// their dedicated operations.
type Patch struct {
	FullName          *string       `json:"fullName,omitempty"`
	PhoneNumber       *string       `json:"phoneNumber,omitempty"`
	ProfilePictureURL *string       `json:"profilePictureUrl,omitempty"`
	Vendor            *VendorPatch  `json:"vendor,omitempty"`
	Planner           *PlannerPatch `json:"planner,omitempty"`
}

// VendorPatch updates the vendor payload. Verified is absent: vendor
// verification is an admin action, not a profile edit.
type VendorPatch struct {
	BusinessName    *string   `json:"businessName,omitempty"`
	ServiceCategory *string   `json:"serviceCategory,omitempty"`
	Portfolio       *[]string `json:"portfolio,omitempty"`
}

// PlannerPatch updates the planner payload.
type PlannerPatch struct {
	Bio            *string `json:"bio,omitempty"`
	NotifyBookings *bool   `json:"notifyBookings,omitempty"`
}

// apply merges the patch into u, honoring the role of the record: vendor
// fields never land on a planner and vice versa.
func (p *Patch) apply(u *User) {
	if p == nil {
		return
	}
	if p.FullName != nil {
		u.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = strings.TrimSpace(*p.PhoneNumber)
	}
	if p.ProfilePictureURL != nil {
		u.ProfilePictureURL = strings.TrimSpace(*p.ProfilePictureURL)
	}

	if p.Vendor != nil && u.Role == RoleVendor {
		if u.Vendor == nil {
			u.Vendor = &VendorProfile{}
		}
		if p.Vendor.BusinessName != nil {
			u.Vendor.BusinessName = strings.TrimSpace(*p.Vendor.BusinessName)
		}
		if p.Vendor.ServiceCategory != nil {
			u.Vendor.ServiceCategory = strings.TrimSpace(*p.Vendor.ServiceCategory)
		}
		if p.Vendor.Portfolio != nil {
			u.Vendor.Portfolio = *p.Vendor.Portfolio
		}
	}

	if p.Planner != nil && u.Role == RolePlanner {
		if u.Planner == nil {
			u.Planner = &PlannerProfile{}
		}
		if p.Planner.Bio != nil {
			u.Planner.Bio = strings.TrimSpace(*p.Planner.Bio)
		}
		if p.Planner.NotifyBookings != nil {
			u.Planner.NotifyBookings = *p.Planner.NotifyBookings
		}
	}
}
