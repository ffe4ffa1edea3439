package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountType is the kind of account
type AccountType = string

const (
	// AccountTypeIndividual is a personal account
	AccountTypeIndividual AccountType = "individual"
	// AccountTypeOrganization is an account linked to an organization
	AccountTypeOrganization AccountType = "organization"
)

// AccountStatus is the account's lifecycle status
type AccountStatus = string

const (
	// AccountStatusNormal is the default status, login allowed
	AccountStatusNormal AccountStatus = "normal"
	// AccountStatusSuspended blocks login despite valid credentials
	AccountStatusSuspended AccountStatus = "suspended"
)

const (
	// ProfileStatusInitial is the progress value assigned at registration
	ProfileStatusInitial = 33
	// ProfileStatusComplete is the progress value once the profile is filled in
	ProfileStatusComplete = 100
)

// Account is the account model
type Account struct {
	bun.BaseModel     `bun:"table:accounts,alias:acc"`
	ID                uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountType       AccountType   `bun:"account_type,notnull" json:"account_type,omitempty"`
	FullName          string        `bun:"full_name,notnull" json:"full_name,omitempty"`
	ProfessionalTitle string        `bun:"professional_title" json:"professional_title,omitempty"`
	Email             string        `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash      string        `bun:"password_hash" json:"-"`
	IsVerified        bool          `bun:"is_verified" json:"is_verified"`
	OTP               *string       `bun:"otp,nullzero" json:"-"`
	OTPCreatedAt      *time.Time    `bun:"otp_created_at,nullzero" json:"-"`
	RefreshToken      *string       `bun:"refresh_token,nullzero" json:"-"`
	Status            AccountStatus `bun:"status,notnull" json:"status,omitempty"`
	ProfileStatus     int           `bun:"profile_status" json:"profile_status,omitempty"`
	ProfilePicture    string        `bun:"profile_picture" json:"profile_picture,omitempty"`
	SuspendedAt       *time.Time    `bun:"suspended_at,nullzero" json:"suspended_at,omitempty"`
	CreatedAt         *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the default status for records created before the
// status column existed.
func (a *Account) EnsureStatus() {
	if a == nil {
		return
	}
	if a.Status == "" {
		a.Status = AccountStatusNormal
	}
}

// IsSuspended reports whether the account is currently suspended.
func (a *Account) IsSuspended() bool {
	return a != nil && a.Status == AccountStatusSuspended
}

// ClearOTP drops the one-time code and its timestamp. Both fields travel
// together: a code without a creation time can never be validated.
func (a *Account) ClearOTP() {
	a.OTP = nil
	a.OTPCreatedAt = nil
}

// SetOTP records a freshly generated one-time code.
func (a *Account) SetOTP(code string, at time.Time) {
	a.OTP = &code
	a.OTPCreatedAt = &at
}

// PublicProfile is the subset of account fields safe to return to clients.
type PublicProfile struct {
	ID                string `json:"id"`
	AccountType       string `json:"account_type"`
	FullName          string `json:"full_name"`
	ProfessionalTitle string `json:"professional_title,omitempty"`
	Email             string `json:"email"`
	IsVerified        bool   `json:"is_verified"`
	ProfileStatus     int    `json:"profile_status"`
	ProfilePicture    string `json:"profile_picture,omitempty"`
}

// Profile returns the public view of the account.
func (a *Account) Profile() PublicProfile {
	return PublicProfile{
		ID:                a.ID.String(),
		AccountType:       a.AccountType,
		FullName:          a.FullName,
		ProfessionalTitle: a.ProfessionalTitle,
		Email:             a.Email,
		IsVerified:        a.IsVerified,
		ProfileStatus:     a.ProfileStatus,
		ProfilePicture:    a.ProfilePicture,
	}
}

// ProfileSummary is the directory listing view of an account. It carries
// only the fields safe to show to other members.
type ProfileSummary struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Summary returns the directory listing view of the account.
func (a *Account) Summary() ProfileSummary {
	return ProfileSummary{
		FullName:       a.FullName,
		Email:          a.Email,
		ProfilePicture: a.ProfilePicture,
	}
}

// Organization is an organization record. Only the fields relevant to the
// cross-namespace email uniqueness check live here; the full organization
// profile belongs to a different component.
type Organization struct {
	bun.BaseModel `bun:"table:organizations,alias:org"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	WorkEmail     string     `bun:"work_email,notnull,unique" json:"work_email,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Application is a job application owned by an account. Deleting an account
// removes its applications in the same transaction.
type Application struct {
	bun.BaseModel `bun:"table:applications,alias:app"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	Position      string     `bun:"position" json:"position,omitempty"`
	Company       string     `bun:"company" json:"company,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
