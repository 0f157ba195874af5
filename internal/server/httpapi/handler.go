// Package httpapi exposes the directory over JSON request/response calls,
// mirroring the original /api/auth surface: register, login, lookup, list
// and session refresh, plus presence and archived-message retrieval.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/peerlink/internal/archive"
	"github.com/dmitrijs2005/peerlink/internal/keycodec"
	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/server/models"
	"github.com/dmitrijs2005/peerlink/internal/shared"
)

type directoryService interface {
	Register(ctx context.Context, username, publicKeyPEM string) (*models.User, error)
	Login(ctx context.Context, id string) (*models.User, error)
	Lookup(ctx context.Context, id string) (*models.PublicUser, error)
	List(ctx context.Context) ([]*models.User, error)
	RefreshSession(ctx context.Context, id string) (*models.SessionCredentials, error)
}

type presence interface {
	Online() []string
}

type Handler struct {
	directory directoryService
	presence  presence
	archive   archive.Sink
	logger    logging.Logger
}

func NewHandler(d directoryService, p presence, a archive.Sink, l logging.Logger) *Handler {
	return &Handler{directory: d, presence: p, archive: a, logger: l.With("module", "httpapi")}
}

// Routes registers all API endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("GET /api/auth/user/{id}", h.lookup)
	mux.HandleFunc("GET /api/auth/users", h.list)
	mux.HandleFunc("POST /api/auth/update-session/{id}", h.refreshSession)
	mux.HandleFunc("GET /api/presence", h.onlineUsers)
	mux.HandleFunc("GET /api/archive/{id}", h.archivedMessages)
}

type registerRequest struct {
	Username  string `json:"username"`
	PublicKey string `json:"publicKey"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	req := &registerRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		failValidation(w, "invalid request body")
		return
	}
	if req.Username == "" || req.PublicKey == "" {
		failValidation(w, "username and publicKey required")
		return
	}

	user, err := h.directory.Register(r.Context(), req.Username, req.PublicKey)
	if err != nil {
		if errors.Is(err, keycodec.ErrInvalidKey) {
			failValidation(w, "invalid public key")
			return
		}
		h.fail(w, r, "registration failed", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type loginRequest struct {
	ID string `json:"id"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	req := &loginRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		failValidation(w, "invalid request body")
		return
	}
	if req.ID == "" {
		failValidation(w, shared.ErrorNoUserID.Error())
		return
	}

	user, err := h.directory.Login(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.fail(w, r, "login failed", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	view, err := h.directory.Lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.fail(w, r, "lookup failed", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.List(r.Context())
	if err != nil {
		h.fail(w, r, "listing users failed", err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) refreshSession(w http.ResponseWriter, r *http.Request) {
	creds, err := h.directory.RefreshSession(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.fail(w, r, "session refresh failed", err)
		return
	}

	writeJSON(w, http.StatusOK, creds)
}

func (h *Handler) onlineUsers(w http.ResponseWriter, r *http.Request) {
	online := []string{}
	if h.presence != nil {
		online = h.presence.Online()
	}
	writeJSON(w, http.StatusOK, online)
}

func (h *Handler) archivedMessages(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeJSON(w, http.StatusOK, []*archive.Message{})
		return
	}

	msgs, err := h.archive.ForUser(r.Context(), r.PathValue("id"))
	if err != nil {
		// best-effort store: an unreachable backend is not a caller error
		h.logger.Warn(r.Context(), "fetching archived messages failed", "error", err.Error())
		writeJSON(w, http.StatusOK, []*archive.Message{})
		return
	}
	if msgs == nil {
		msgs = []*archive.Message{}
	}

	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(r.Context(), msg, "error", err.Error())
	writeError(w, http.StatusInternalServerError, shared.ErrorInternal.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// failValidation writes a 400 whose message carries the shared validation
// sentinel, so clients can match the class and humans still see the detail.
func failValidation(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %s", shared.ErrorValidation, detail))
}
