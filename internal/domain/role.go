package domain

import "strings"

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleTreasurer Role = "TREASURER"
	RoleMember    Role = "MEMBER"
)

// ParseRole maps a stored or token-carried role name to a known Role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleTreasurer:
		return RoleTreasurer, true
	case RoleMember:
		return RoleMember, true
	}
	return "", false
}

// ParseRoles drops unknown names.
func ParseRoles(names []string) []Role {
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		if r, ok := ParseRole(n); ok {
			roles = append(roles, r)
		}
	}
	return roles
}

func RoleNames(roles []Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

type Capability string

const (
	CapabilityNone               Capability = ""
	CapabilityReviewApplications Capability = "review_applications"
	CapabilityViewDonations      Capability = "view_donations"
	CapabilityChangeOwnPassword  Capability = "change_own_password"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapabilityReviewApplications,
		CapabilityViewDonations,
		CapabilityChangeOwnPassword,
	},
	RoleTreasurer: {
		CapabilityViewDonations,
		CapabilityChangeOwnPassword,
	},
	RoleMember: {
		CapabilityChangeOwnPassword,
	},
}

// HasCapability is the single authorization check used by the API layer.
func HasCapability(roles []Role, c Capability) bool {
	if c == CapabilityNone {
		return true
	}
	for _, r := range roles {
		for _, granted := range roleCapabilities[r] {
			if granted == c {
				return true
			}
		}
	}
	return false
}
