package service

import "github.com/vedran77/receptionist/internal/domain"

// Notifier pushes assistant changes to the owner's live sessions.
type Notifier interface {
	AssistantCreated(a *domain.Assistant)
	AssistantUpdated(a *domain.Assistant)
}

type nopNotifier struct{}

func (nopNotifier) AssistantCreated(*domain.Assistant) {}
func (nopNotifier) AssistantUpdated(*domain.Assistant) {}
