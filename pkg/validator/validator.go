package validator

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vedran77/receptionist/internal/domain"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// check runs a go-playground tag against value and records message under
// field when it fails. It returns whether the value passed.
func (v ValidationErrors) check(field string, value any, tag, message string) bool {
	if err := validate.Var(value, tag); err != nil {
		v.Add(field, message)
		return false
	}
	return true
}

var (
	validate  = newValidate()
	clockTime = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

var Themes = []string{"indigo", "blue", "emerald", "rose", "amber", "violet"}

var BusinessTypes = []string{
	"retail", "healthcare", "ecommerce", "services", "education",
	"hospitality", "manufacturing", "technology", "finance", "other",
}

func newValidate() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return clockTime.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

func ValidateRegister(email, password string, profile domain.ProfilePatch) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) < minPasswordLen {
		errs.Add("password", fmt.Sprintf("Password must be at least %d characters long", minPasswordLen))
	} else if len(password) > maxPasswordLen {
		errs.Add("password", "Password is too long")
	}

	validateProfileFields(profile, errs)

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateProfile(p domain.ProfilePatch) ValidationErrors {
	errs := make(ValidationErrors)
	validateProfileFields(p, errs)
	return errs
}

// ValidateAssistantCreate checks a complete assistant definition.
func ValidateAssistantCreate(a *domain.Assistant) ValidationErrors {
	errs := make(ValidationErrors)

	requireText(errs, "name", "Name", a.Name, 200)
	requireText(errs, "voiceProvider", "Voice provider", a.VoiceProvider, 50)
	requireText(errs, "languageCode", "Language code", a.LanguageCode, 20)
	requireText(errs, "introMessage", "Intro message", a.IntroMessage, 2000)

	validateWebhook(a.WebhookURL, errs)
	if a.Availability != nil {
		validateAvailability(a.Availability, errs)
	}

	return errs
}

// ValidateAssistantPatch checks only the provided fields. Provided required
// fields must still be non-blank.
func ValidateAssistantPatch(p domain.AssistantPatch) ValidationErrors {
	errs := make(ValidationErrors)

	if p.Name != nil {
		requireText(errs, "name", "Name", *p.Name, 200)
	}
	if p.VoiceProvider != nil {
		requireText(errs, "voiceProvider", "Voice provider", *p.VoiceProvider, 50)
	}
	if p.LanguageCode != nil {
		requireText(errs, "languageCode", "Language code", *p.LanguageCode, 20)
	}
	if p.IntroMessage != nil {
		requireText(errs, "introMessage", "Intro message", *p.IntroMessage, 2000)
	}
	if p.WebhookURL != nil {
		validateWebhook(*p.WebhookURL, errs)
	}
	if p.Availability != nil {
		validateAvailability(*p.Availability, errs)
	}

	return errs
}

func validateEmail(email string, errs ValidationErrors) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
		return
	}
	errs.check("email", email, "email,max=254", "Please enter a valid email")
}

func requireText(errs ValidationErrors, field, label, value string, max int) {
	value = strings.TrimSpace(value)
	if value == "" {
		errs.Add(field, label+" is required")
		return
	}
	errs.check(field, value, fmt.Sprintf("max=%d", max), label+" is too long")
}

func validateWebhook(u string, errs ValidationErrors) {
	if u == "" {
		return
	}
	errs.check("webhookUrl", u, "http_url", "Webhook URL must be an absolute http(s) URL")
}

func validateAvailability(av domain.Availability, errs ValidationErrors) {
	for day, ranges := range av {
		if !slices.Contains(domain.Weekdays, day) {
			errs.Add("availability."+day, "Unknown weekday")
			continue
		}
		for i, r := range ranges {
			field := fmt.Sprintf("availability.%s[%d]", day, i)
			if !errs.check(field, r.Start, "hhmm", "Start must be a HH:MM time") {
				continue
			}
			if !errs.check(field, r.End, "hhmm", "End must be a HH:MM time") {
				continue
			}
			// zero-padded HH:MM compares correctly as a string
			if r.Start >= r.End {
				errs.Add(field, "Start must be before end")
			}
		}
	}
}

func validateProfileFields(p domain.ProfilePatch, errs ValidationErrors) {
	text := []struct {
		field string
		value *string
		max   int
	}{
		{"businessName", p.BusinessName, 200},
		{"fullName", p.FullName, 200},
		{"phoneNumber", p.PhoneNumber, 50},
		{"address", p.Address, 300},
		{"city", p.City, 100},
		{"state", p.State, 100},
		{"zipCode", p.ZipCode, 20},
		{"country", p.Country, 100},
	}
	for _, f := range text {
		if f.value != nil {
			errs.check(f.field, *f.value, fmt.Sprintf("max=%d", f.max), "Value is too long")
		}
	}

	if p.LogoURL != nil && *p.LogoURL != "" {
		errs.check("logoUrl", *p.LogoURL, "url", "Logo URL must be an absolute URL")
	}
	if p.BusinessType != nil && *p.BusinessType != "" {
		errs.check("businessType", *p.BusinessType, "oneof="+strings.Join(BusinessTypes, " "),
			"Business type must be one of: "+strings.Join(BusinessTypes, ", "))
	}
	if p.Theme != nil {
		errs.check("theme", *p.Theme, "oneof="+strings.Join(Themes, " "),
			"Theme must be one of: "+strings.Join(Themes, ", "))
	}
}
