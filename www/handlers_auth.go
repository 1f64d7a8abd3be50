package www

import (
	"log"
	"net/http"
	"strings"

	"fleetflow/store"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func (h *Handlers) apiRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 4 {
		h.jsonError(w, "name, email and password (4+ chars) are required", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		// The first account runs the fleet; everyone after defaults to dispatch.
		req.Role = store.RoleDispatcher
		if n, err := h.engine.DB().CountUsers(); err == nil && n == 0 {
			req.Role = store.RoleFleetManager
		}
	}
	if !store.ValidRole(req.Role) {
		h.jsonError(w, "invalid role", http.StatusBadRequest)
		return
	}
	if existing, err := h.engine.DB().GetUserByEmail(req.Email); err == nil && existing != nil {
		h.jsonError(w, "email already registered", http.StatusConflict)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	user := &store.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := h.engine.DB().CreateUser(user); err != nil {
		log.Printf("www: create user: %v", err)
		h.jsonError(w, "could not create user", http.StatusInternalServerError)
		return
	}

	go h.engine.Notifier().SendWelcome(user.Email, user.Phone, user.Name, user.Role)

	token, err := h.issueToken(user)
	if err != nil {
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.saveSession(w, r, user)
	h.jsonCreated(w, map[string]any{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	user, err := h.engine.DB().GetUserByEmail(strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil || !user.IsActive || !checkPassword(user.PasswordHash, req.Password) {
		h.jsonError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.engine.DB().TouchUserLogin(user.ID); err != nil {
		log.Printf("www: touch login: %v", err)
	}
	h.saveSession(w, r, user)
	h.jsonOK(w, map[string]any{"token": token, "user": user})
}

func (h *Handlers) apiLogout(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w, r)
	h.jsonOK(w, map[string]string{"status": "logged out"})
}

func (h *Handlers) apiAuthMe(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	user, err := h.engine.DB().GetUser(u.ID)
	if err != nil {
		h.jsonError(w, "user not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, user)
}
