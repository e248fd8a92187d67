package config

import "membership-backend/internal/domain"

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

type EndpointSecurity struct {
	Level      SecurityLevel
	Capability domain.Capability
}

// Route names as registered on the mux router.
const (
	RouteHealth                = "health"
	RouteSubmitApplication     = "applications.submit"
	RouteListApplications      = "applications.list"
	RouteGetApplication        = "applications.get"
	RouteUpdateApplication     = "applications.update"
	RouteDeleteApplication     = "applications.delete"
	RouteApproveApplication    = "applications.approve"
	RouteRejectApplication     = "applications.reject"
	RouteBulkApprove           = "applications.bulk_approve"
	RouteBulkReject            = "applications.bulk_reject"
	RouteRetrieveCredential    = "applications.credential"
	RouteResetCredential       = "applications.credential_reset"
	RouteListProvisionFailures = "provisioning_failures.list"
	RouteCheckout              = "donations.checkout"
	RouteWebhook               = "donations.webhook"
	RouteListDonations         = "donations.list"
	RouteExportDonations       = "donations.export"
	RouteLogin                 = "auth.token"
	RouteChangePassword        = "auth.password"
)

var reviewer = EndpointSecurity{Level: SecurityAccess, Capability: domain.CapabilityReviewApplications}

// EndpointSecurityConfig maps route names to their required security
var EndpointSecurityConfig = map[string]EndpointSecurity{
	// Public
	RouteHealth:            {Level: SecurityPublic},
	RouteSubmitApplication: {Level: SecurityPublic},
	RouteCheckout:          {Level: SecurityPublic},
	RouteWebhook:           {Level: SecurityPublic},
	RouteLogin:             {Level: SecurityPublic},

	// Admission review
	RouteListApplications:      reviewer,
	RouteGetApplication:        reviewer,
	RouteUpdateApplication:     reviewer,
	RouteDeleteApplication:     reviewer,
	RouteApproveApplication:    reviewer,
	RouteRejectApplication:     reviewer,
	RouteBulkApprove:           reviewer,
	RouteBulkReject:            reviewer,
	RouteRetrieveCredential:    reviewer,
	RouteResetCredential:       reviewer,
	RouteListProvisionFailures: reviewer,

	// Treasury
	RouteListDonations:   {Level: SecurityAccess, Capability: domain.CapabilityViewDonations},
	RouteExportDonations: {Level: SecurityAccess, Capability: domain.CapabilityViewDonations},

	// Any signed-in account
	RouteChangePassword: {Level: SecurityAccess, Capability: domain.CapabilityChangeOwnPassword},
}

// GetEndpointSecurity returns the security requirement for a route
func GetEndpointSecurity(route string) EndpointSecurity {
	if sec, exists := EndpointSecurityConfig[route]; exists {
		return sec
	}
	// Default to highest security for unknown endpoints
	return EndpointSecurity{Level: SecurityAccess, Capability: domain.CapabilityReviewApplications}
}
