package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/security/audit"
	"github.com/aryan0dhankhar/natours/internal/security/auth"
	"github.com/aryan0dhankhar/natours/internal/service"
)

// maxPhotoBytes caps multipart profile updates.
const maxPhotoBytes = 5 << 20

// Profiles is the self-service account surface.
type Profiles interface {
	Get(ctx context.Context, id string, populate ...string) (*domain.User, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, in service.ProfileUpdate) (*domain.User, error)
	DeleteMe(ctx context.Context, userID uuid.UUID) error
}

// UserHandler serves the signed-in user's own account.
type UserHandler struct {
	profiles Profiles
	audit    *audit.Logger
	writeErr func(w http.ResponseWriter, r *http.Request, err error)
	logger   *slog.Logger
}

func NewUserHandler(profiles Profiles, auditLog *audit.Logger, errs *Errors, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{profiles: profiles, audit: auditLog, writeErr: errs.Write, logger: logger}
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	if p == nil {
		h.writeErr(w, r, domain.Unauthenticated("You are not logged in! Please log in to get access."))
		return
	}
	u, err := h.profiles.Get(r.Context(), p.ID.String())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"data": u})
}

// UpdateMe handles PATCH /users/updateMe. It accepts JSON or a multipart
// form carrying a photo file.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	if p == nil {
		h.writeErr(w, r, domain.Unauthenticated("You are not logged in! Please log in to get access."))
		return
	}
	in, err := readProfileUpdate(w, r)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	u, err := h.profiles.UpdateMe(r.Context(), p.ID, in)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": u})
}

// DeleteMe handles DELETE /users/deleteMe.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	if p == nil {
		h.writeErr(w, r, domain.Unauthenticated("You are not logged in! Please log in to get access."))
		return
	}
	if err := h.profiles.DeleteMe(r.Context(), p.ID); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.audit.LogAction(r.Context(), p.ID.String(), audit.ActionDeactivate, "user", p.ID.String(), "success", "")
	w.WriteHeader(http.StatusNoContent)
}

// CreateUser answers POST /users. Accounts are only created by signup.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	h.writeErr(w, r, domain.NewError(domain.KindInternal, "This route is not defined! Please use /signup instead"))
}

var errPasswordRoute = domain.Validation("This route is not for password updates. Please use /updateMyPassword.")

// readProfileUpdate extracts the name, email and photo of a profile update.
// Any other field is ignored, except password fields which are rejected.
func readProfileUpdate(w http.ResponseWriter, r *http.Request) (service.ProfileUpdate, error) {
	var in service.ProfileUpdate
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			return in, bodyError(err)
		}
		if r.FormValue("password") != "" || r.FormValue("passwordConfirm") != "" {
			return in, errPasswordRoute
		}
		if name := r.FormValue("name"); name != "" {
			in.Name = &name
		}
		if email := r.FormValue("email"); email != "" {
			in.Email = &email
		}
		if file, _, err := r.FormFile("photo"); err == nil {
			in.Photo = file
		}
		return in, nil
	}

	body, err := readBody(r)
	if err != nil {
		return in, err
	}
	if len(body) == 0 {
		return in, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return in, bodyError(err)
	}
	if _, ok := fields["password"]; ok {
		return in, errPasswordRoute
	}
	if _, ok := fields["passwordConfirm"]; ok {
		return in, errPasswordRoute
	}
	for key, dst := range map[string]**string{"name": &in.Name, "email": &in.Email} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return in, bodyError(err)
		}
		*dst = &v
	}
	return in, nil
}
