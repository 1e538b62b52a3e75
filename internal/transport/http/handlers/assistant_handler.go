package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vedran77/receptionist/internal/logging"
	"github.com/vedran77/receptionist/internal/service"
	"github.com/vedran77/receptionist/internal/transport/http/middleware"
	"github.com/vedran77/receptionist/internal/vapi"
	"github.com/vedran77/receptionist/pkg/validator"
)

type AssistantHandler struct {
	assistantService *service.AssistantService
	log              logging.Logger
}

func NewAssistantHandler(assistantService *service.AssistantService, log logging.Logger) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService, log: log}
}

func (h *AssistantHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateAssistantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateAssistantCreate(input.Assistant(userID)); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	a, err := h.assistantService.Create(r.Context(), userID, input)
	if err != nil {
		h.writeServiceError(w, r, "create assistant", err)
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

func (h *AssistantHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	assistants, err := h.assistantService.List(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, "list assistants", err)
		return
	}

	writeJSON(w, http.StatusOK, assistants)
}

func (h *AssistantHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	assistantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid assistant ID")
		return
	}

	a, err := h.assistantService.Get(r.Context(), userID, assistantID)
	if err != nil {
		h.writeServiceError(w, r, "get assistant", err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (h *AssistantHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	assistantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid assistant ID")
		return
	}

	var input service.UpdateAssistantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateAssistantPatch(input.AssistantPatch); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	a, err := h.assistantService.Update(r.Context(), userID, assistantID, input)
	if err != nil {
		h.writeServiceError(w, r, "update assistant", err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (h *AssistantHandler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrAssistantNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Assistant not found")
	case errors.Is(err, service.ErrVersionConflict):
		writeError(w, http.StatusConflict, "VERSION_CONFLICT", "Assistant was modified, reload and try again")
	case errors.Is(err, service.ErrLockTimeout):
		writeError(w, http.StatusConflict, "ASSISTANT_BUSY", "Assistant is being updated, try again")
	case errors.Is(err, vapi.ErrUpstream):
		h.log.Warn(r.Context(), op+": provider error", "error", err)
		writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Voice provider request failed")
	default:
		h.log.Error(r.Context(), op+" failed", "error", err)
		writeInternal(w)
	}
}
