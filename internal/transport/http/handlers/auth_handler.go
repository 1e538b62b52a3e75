package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/receptionist/internal/domain"
	"github.com/vedran77/receptionist/internal/logging"
	"github.com/vedran77/receptionist/internal/service"
	"github.com/vedran77/receptionist/internal/storage"
	"github.com/vedran77/receptionist/internal/transport/http/middleware"
	"github.com/vedran77/receptionist/pkg/validator"
)

// LogoPresigner hands out upload URLs for profile logos.
type LogoPresigner interface {
	PresignUpload(ctx context.Context, ownerID uuid.UUID, contentType string) (*storage.LogoUpload, error)
}

type AuthHandler struct {
	authService *service.AuthService
	logos       LogoPresigner
	log         logging.Logger
}

// NewAuthHandler builds the auth handler. logos may be nil when uploads are
// not configured.
func NewAuthHandler(authService *service.AuthService, logos LogoPresigner, log logging.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logos: logos, log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateRegister(input.Email, input.Password, input.ProfilePatch); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	resp, err := h.authService.Register(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
		} else {
			h.log.Error(r.Context(), "register failed", "error", err)
			writeInternal(w)
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateLogin(input.Email, input.Password); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	resp, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		} else {
			h.log.Error(r.Context(), "login failed", "error", err)
			writeInternal(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.authService.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var patch domain.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateProfile(patch); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type logoUploadInput struct {
	ContentType string `json:"contentType"`
}

func (h *AuthHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	if h.logos == nil {
		writeError(w, http.StatusNotImplemented, "FEATURE_DISABLED", "Logo uploads are not configured")
		return
	}
	userID := middleware.GetUserID(r.Context())

	var input logoUploadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	upload, err := h.logos.PresignUpload(r.Context(), userID, input.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			errs := make(validator.ValidationErrors)
			errs.Add("contentType", "Logo must be a PNG, JPEG, WebP or SVG image")
			writeValidationErrors(w, errs)
		} else {
			h.log.Error(r.Context(), "presigning logo upload failed", "error", err)
			writeInternal(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, upload)
}

func (h *AuthHandler) writeProfileError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	h.log.Error(r.Context(), "profile request failed", "error", err)
	writeInternal(w)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeInternal(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}
