package domain

import "time"

type Account struct {
	ID           int32     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Active       bool      `json:"active"`
	Roles        []Role    `json:"roles,omitempty"` // Populated when needed
	CreatedOn    time.Time `json:"created_on"`
}

// ProvisionResult is what the provisioning port reports back to the admission workflow.
type ProvisionResult struct {
	Account             *Account
	Created             bool
	Reused              bool
	RoleGranted         bool
	CredentialGenerated bool
	Credential          string
}

type ProvisioningFailure struct {
	ID            int32     `json:"id"`
	ApplicationID int32     `json:"application_id"`
	Stage         string    `json:"stage"` // submit, approve, bulk_approve, retry
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

// IssuedCredential is a one-time view of a generated password.
type IssuedCredential struct {
	ApplicationID int32  `json:"application_id"`
	Username      string `json:"username"`
	Password      string `json:"password"`
}

// PasswordChange is a self-service password change request.
type PasswordChange struct {
	Current string `json:"current"`
	New     string `json:"new"`
	Confirm string `json:"confirm"`
}
