package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile holds the free-form business attributes a user can edit.
type Profile struct {
	BusinessName string `json:"businessName"`
	FullName     string `json:"fullName"`
	PhoneNumber  string `json:"phoneNumber"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	Country      string `json:"country"`
	LogoURL      string `json:"logoUrl"`
	BusinessType string `json:"businessType"`
	Theme        string `json:"theme"`
}

// ProfilePatch carries the profile fields provided by a partial update.
// Nil fields are left untouched.
type ProfilePatch struct {
	BusinessName *string `json:"businessName"`
	FullName     *string `json:"fullName"`
	PhoneNumber  *string `json:"phoneNumber"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	ZipCode      *string `json:"zipCode"`
	Country      *string `json:"country"`
	LogoURL      *string `json:"logoUrl"`
	BusinessType *string `json:"businessType"`
	Theme        *string `json:"theme"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.BusinessName == nil && p.FullName == nil && p.PhoneNumber == nil &&
		p.Address == nil && p.City == nil && p.State == nil && p.ZipCode == nil &&
		p.Country == nil && p.LogoURL == nil && p.BusinessType == nil && p.Theme == nil
}

// Apply merges the provided fields into profile.
func (p ProfilePatch) Apply(profile *Profile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&profile.BusinessName, p.BusinessName)
	set(&profile.FullName, p.FullName)
	set(&profile.PhoneNumber, p.PhoneNumber)
	set(&profile.Address, p.Address)
	set(&profile.City, p.City)
	set(&profile.State, p.State)
	set(&profile.ZipCode, p.ZipCode)
	set(&profile.Country, p.Country)
	set(&profile.LogoURL, p.LogoURL)
	set(&profile.BusinessType, p.BusinessType)
	set(&profile.Theme, p.Theme)
}

const DefaultTheme = "indigo"
