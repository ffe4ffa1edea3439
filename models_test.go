package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/talentdesk/go-auth"
)

func TestAccountEnsureStatus(t *testing.T) {
	account := &auth.Account{}
	account.EnsureStatus()
	assert.Equal(t, auth.AccountStatusNormal, account.Status)

	account.Status = auth.AccountStatusSuspended
	account.EnsureStatus()
	assert.Equal(t, auth.AccountStatusSuspended, account.Status)

	var missing *auth.Account
	missing.EnsureStatus()
}

func TestAccountIsSuspended(t *testing.T) {
	account := &auth.Account{Status: auth.AccountStatusNormal}
	assert.False(t, account.IsSuspended())

	account.Status = auth.AccountStatusSuspended
	assert.True(t, account.IsSuspended())

	var missing *auth.Account
	assert.False(t, missing.IsSuspended())
}

func TestAccountOTPFieldsTravelTogether(t *testing.T) {
	account := &auth.Account{}
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	account.SetOTP("482917", issued)
	if assert.NotNil(t, account.OTP) {
		assert.Equal(t, "482917", *account.OTP)
	}
	if assert.NotNil(t, account.OTPCreatedAt) {
		assert.Equal(t, issued, *account.OTPCreatedAt)
	}

	account.ClearOTP()
	assert.Nil(t, account.OTP)
	assert.Nil(t, account.OTPCreatedAt)
}

func TestAccountProfile(t *testing.T) {
	id := uuid.New()
	account := &auth.Account{
		ID:                id,
		AccountType:       auth.AccountTypeIndividual,
		FullName:          "Ada Lovelace",
		ProfessionalTitle: "Analyst",
		Email:             "ada@example.com",
		PasswordHash:      "$2a$14$notyourbusiness",
		IsVerified:        true,
		ProfileStatus:     auth.ProfileStatusComplete,
		ProfilePicture:    "https://cdn.example.com/ada.png",
	}

	profile := account.Profile()

	assert.Equal(t, id.String(), profile.ID)
	assert.Equal(t, auth.AccountTypeIndividual, profile.AccountType)
	assert.Equal(t, "Ada Lovelace", profile.FullName)
	assert.Equal(t, "Analyst", profile.ProfessionalTitle)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.True(t, profile.IsVerified)
	assert.Equal(t, auth.ProfileStatusComplete, profile.ProfileStatus)
	assert.Equal(t, "https://cdn.example.com/ada.png", profile.ProfilePicture)
}
