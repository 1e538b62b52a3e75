package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimeRange is a single availability window, times formatted as HH:MM.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Availability maps a lowercase weekday name to its open intervals.
type Availability map[string][]TimeRange

var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Assistant is the local shadow of an assistant living at the voice provider.
type Assistant struct {
	ID                   uuid.UUID    `json:"id"`
	OwnerID              uuid.UUID    `json:"ownerId"`
	ExternalID           string       `json:"externalId"`
	Name                 string       `json:"name"`
	VoiceProvider        string       `json:"voiceProvider"`
	LanguageCode         string       `json:"languageCode"`
	IntroMessage         string       `json:"introMessage"`
	WebhookURL           string       `json:"webhookUrl,omitempty"`
	TranscriptionEnabled bool         `json:"transcriptionEnabled"`
	RecordingEnabled     bool         `json:"recordingEnabled"`
	Availability         Availability `json:"availability,omitempty"`
	Version              int          `json:"version"`
	CreatedAt            time.Time    `json:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt"`
}

// AssistantPatch carries the fields provided by a partial update.
type AssistantPatch struct {
	Name                 *string       `json:"name"`
	VoiceProvider        *string       `json:"voiceProvider"`
	LanguageCode         *string       `json:"languageCode"`
	IntroMessage         *string       `json:"introMessage"`
	WebhookURL           *string       `json:"webhookUrl"`
	TranscriptionEnabled *bool         `json:"transcriptionEnabled"`
	RecordingEnabled     *bool         `json:"recordingEnabled"`
	Availability         *Availability `json:"availability"`
}

func (p AssistantPatch) IsEmpty() bool {
	return p.Name == nil && p.VoiceProvider == nil && p.LanguageCode == nil &&
		p.IntroMessage == nil && p.WebhookURL == nil && p.TranscriptionEnabled == nil &&
		p.RecordingEnabled == nil && p.Availability == nil
}

// Apply merges the provided fields into a.
func (p AssistantPatch) Apply(a *Assistant) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.VoiceProvider != nil {
		a.VoiceProvider = *p.VoiceProvider
	}
	if p.LanguageCode != nil {
		a.LanguageCode = *p.LanguageCode
	}
	if p.IntroMessage != nil {
		a.IntroMessage = *p.IntroMessage
	}
	if p.WebhookURL != nil {
		a.WebhookURL = *p.WebhookURL
	}
	if p.TranscriptionEnabled != nil {
		a.TranscriptionEnabled = *p.TranscriptionEnabled
	}
	if p.RecordingEnabled != nil {
		a.RecordingEnabled = *p.RecordingEnabled
	}
	if p.Availability != nil {
		a.Availability = *p.Availability
	}
}
