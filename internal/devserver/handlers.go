package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/common"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"github.com/dmitrijs2005/cinemaclub/internal/validation"
	"github.com/go-chi/chi/v5"
)

const defaultPageSize = 20

type handlers struct {
	users  *UserService
	repo   *Repository
	logger logging.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", common.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, pair, err := h.users.Register(r.Context(), req)
	var ve *validation.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
		return
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "User with this email already exists")
		return
	case err != nil:
		h.internal(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.AuthResponse{
		Message:      "User registered successfully",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         u,
	})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, pair, err := h.users.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		h.internal(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{
		Message:      "Login successful",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         u,
	})
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeBody(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token required")
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, common.ErrRefreshTokenExpired), errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	case err != nil:
		h.internal(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	_ = decodeBody(r, &req)
	if req.RefreshToken != "" {
		h.users.Logout(r.Context(), req.RefreshToken)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *handlers) profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	u, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ProfileResponse{User: u})
}

func (h *handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, _ := userIDFrom(r.Context())
	u, err := h.users.UpdateProfile(r.Context(), userID, req)
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Username cannot be empty")
		return
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case err != nil:
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ProfileResponse{User: u})
}

func (h *handlers) internal(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeData[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusOK, models.Envelope[T]{Success: true, Data: data})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, models.Envelope[any]{Success: false, Message: msg})
}

func (h *handlers) listMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.MediaFilters{
		Type:   models.MediaType(q.Get("type")),
		Limit:  queryInt(r, "limit", defaultPageSize),
		Offset: queryInt(r, "offset", 0),
		Search: q.Get("search"),
		Genre:  q.Get("genre"),
		Year:   queryInt(r, "year", 0),
	}
	switch q.Get("is_animation") {
	case "1", "true":
		f.Animation = models.Ptr(true)
	case "0", "false":
		f.Animation = models.Ptr(false)
	}

	items, total := h.repo.ListMedia(r.Context(), f)
	writeJSON(w, http.StatusOK, models.Envelope[[]models.Media]{
		Success:    true,
		Data:       items,
		Pagination: &models.Pagination{Limit: f.Limit, Offset: f.Offset, Total: total},
	})
}

func (h *handlers) getMedia(w http.ResponseWriter, r *http.Request) {
	m, err := h.repo.MediaByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		notFound(w, "Media not found")
		return
	}
	writeData(w, m)
}

func (h *handlers) popular(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.repo.Popular(r.Context(), queryInt(r, "limit", defaultPageSize)))
}

func (h *handlers) newest(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.repo.Newest(r.Context(), queryInt(r, "limit", defaultPageSize)))
}

func (h *handlers) comingSoon(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.repo.ComingSoon(r.Context(), queryInt(r, "limit", defaultPageSize)))
}

func (h *handlers) byGenre(w http.ResponseWriter, r *http.Request) {
	items, _ := h.repo.ListMedia(r.Context(), models.MediaFilters{
		Genre: chi.URLParam(r, "genre"),
		Limit: queryInt(r, "limit", defaultPageSize),
	})
	writeData(w, items)
}

func (h *handlers) clubs(w http.ResponseWriter, r *http.Request) {
	t := models.ClubType(r.URL.Query().Get("type"))
	writeData(w, h.repo.Clubs(r.Context(), t, queryInt(r, "limit", 0)))
}

func (h *handlers) club(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		notFound(w, "Cinema club not found")
		return
	}
	c, err := h.repo.Club(r.Context(), id)
	if err != nil {
		notFound(w, "Cinema club not found")
		return
	}
	writeData(w, c)
}
