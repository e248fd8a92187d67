package domain

import (
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusApproved ApplicationStatus = "APPROVED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// IsTerminal reports whether no further review transition is allowed.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	}
	return false
}

type MembershipApplication struct {
	ID                  int32             `json:"id"`
	FullName            string            `json:"full_name"`
	NationalID          string            `json:"national_id"`
	BirthDate           string            `json:"birth_date"` // yyyy-mm-dd
	Email               string            `json:"email"`
	Phone               string            `json:"phone"`
	Profession          *string           `json:"profession,omitempty"`
	Motivation          string            `json:"motivation"`
	Status              ApplicationStatus `json:"status"`
	SubmittedAt         time.Time         `json:"submitted_at"`
	AccountID           *int32            `json:"account_id,omitempty"`
	AccountActive       bool              `json:"account_active"`
	GeneratedCredential *string           `json:"-"`
	CredentialIssuedAt  *time.Time        `json:"credential_issued_at,omitempty"`
}

// HasPendingCredential reports whether a generated credential is still waiting to be retrieved.
func (a *MembershipApplication) HasPendingCredential() bool {
	return a.GeneratedCredential != nil && *a.GeneratedCredential != ""
}

// ApplicationFilter narrows application listings. Zero values mean "any".
type ApplicationFilter struct {
	Status ApplicationStatus
	IDs    []int32
}

// ApplicationUpdate carries the contact fields an administrator may correct.
// Review status is only changed through approve/reject.
type ApplicationUpdate struct {
	FullName   *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	Email      *string `json:"email" validate:"omitempty,email,max=254"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	Profession *string `json:"profession" validate:"omitempty,max=100"`
	Motivation *string `json:"motivation"`
}

// Apply copies the non-nil fields onto app.
func (u ApplicationUpdate) Apply(app *MembershipApplication) {
	if u.FullName != nil {
		app.FullName = *u.FullName
	}
	if u.Email != nil {
		app.Email = *u.Email
	}
	if u.Phone != nil {
		app.Phone = *u.Phone
	}
	if u.Profession != nil {
		app.Profession = u.Profession
	}
	if u.Motivation != nil {
		app.Motivation = *u.Motivation
	}
}

// ApprovalResult describes the outcome of an approval, including the one-time credential
// when this call generated it.
type ApprovalResult struct {
	Application         *MembershipApplication `json:"application"`
	Username            string                 `json:"username"`
	RoleGranted         bool                   `json:"role_granted"`
	AccountActive       bool                   `json:"account_active"`
	CredentialGenerated bool                   `json:"credential_generated"`
	Password            string                 `json:"password,omitempty"`
	AlreadyApproved     bool                   `json:"already_approved"`
}

type BulkFailure struct {
	ApplicationID int32  `json:"application_id"`
	Error         string `json:"error"`
}

type BulkResult struct {
	Matched   int           `json:"matched"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []BulkFailure `json:"failures,omitempty"`
}
