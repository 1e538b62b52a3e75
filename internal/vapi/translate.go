package vapi

import "github.com/vedran77/receptionist/internal/domain"

type Voice struct {
	Provider string `json:"provider"`
	Language string `json:"language"`
}

type Webhook struct {
	URL string `json:"url"`
}

type Transcriber struct {
	Enabled bool `json:"enabled"`
}

// Metadata ties a provider assistant back to the owning user.
type Metadata struct {
	BusinessID string `json:"businessId"`
}

// AssistantPayload is the provider's create/update body. Nil fields are not
// sent, which is what makes partial updates partial.
type AssistantPayload struct {
	Name             string               `json:"name,omitempty"`
	Voice            *Voice               `json:"voice,omitempty"`
	InitialMessage   string               `json:"initial_message,omitempty"`
	Webhook          *Webhook             `json:"webhook,omitempty"`
	Transcriber      *Transcriber         `json:"transcriber,omitempty"`
	RecordingEnabled *bool                `json:"recording_enabled,omitempty"`
	Availability     *domain.Availability `json:"availability,omitempty"`
	Metadata         *Metadata            `json:"metadata,omitempty"`
}

// CreatePayload translates a complete local record.
func CreatePayload(a *domain.Assistant) AssistantPayload {
	recording := a.RecordingEnabled
	p := AssistantPayload{
		Name:             a.Name,
		Voice:            &Voice{Provider: a.VoiceProvider, Language: a.LanguageCode},
		InitialMessage:   a.IntroMessage,
		Webhook:          webhook(a.WebhookURL),
		Transcriber:      &Transcriber{Enabled: a.TranscriptionEnabled},
		RecordingEnabled: &recording,
		Metadata:         &Metadata{BusinessID: a.OwnerID.String()},
	}
	if a.Availability != nil {
		av := a.Availability
		p.Availability = &av
	}
	return p
}

// PatchPayload translates only the fields present in patch. When one half of
// the voice pair is provided, the stored half from current completes it.
func PatchPayload(current *domain.Assistant, patch domain.AssistantPatch) AssistantPayload {
	p := AssistantPayload{
		Metadata: &Metadata{BusinessID: current.OwnerID.String()},
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.VoiceProvider != nil || patch.LanguageCode != nil {
		v := Voice{Provider: current.VoiceProvider, Language: current.LanguageCode}
		if patch.VoiceProvider != nil {
			v.Provider = *patch.VoiceProvider
		}
		if patch.LanguageCode != nil {
			v.Language = *patch.LanguageCode
		}
		p.Voice = &v
	}
	if patch.IntroMessage != nil {
		p.InitialMessage = *patch.IntroMessage
	}
	if patch.WebhookURL != nil {
		p.Webhook = webhook(*patch.WebhookURL)
	}
	if patch.TranscriptionEnabled != nil {
		p.Transcriber = &Transcriber{Enabled: *patch.TranscriptionEnabled}
	}
	if patch.RecordingEnabled != nil {
		rec := *patch.RecordingEnabled
		p.RecordingEnabled = &rec
	}
	if patch.Availability != nil {
		av := *patch.Availability
		p.Availability = &av
	}
	return p
}

func webhook(u string) *Webhook {
	if u == "" {
		return nil
	}
	return &Webhook{URL: u}
}
