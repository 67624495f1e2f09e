package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gabrielarrudexx/YBYOCA/internal/auth"
	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.repo.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			respondError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondServiceError(w, r, err)
		return
	}
	if !auth.CheckPasswordHash(req.Password, user.HashedPassword) {
		respondError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := parseBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = sanitizeInput(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, r, http.StatusUnprocessableEntity, "invalid email")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, r, http.StatusUnprocessableEntity, "password too short: need at least 6 characters")
		return
	}

	role := core.Role(req.Role)
	switch role {
	case core.RoleArchitect, core.RoleClient:
	default:
		respondError(w, r, http.StatusUnprocessableEntity, "role must be architect or client")
		return
	}

	if _, err := s.repo.GetUserByEmail(r.Context(), req.Email); err == nil {
		respondError(w, r, http.StatusConflict, "email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	user, err := s.repo.CreateUser(r.Context(), core.User{
		Email:          req.Email,
		HashedPassword: hash,
		Role:           role,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toUserDTO(user))
}

// handleListUsers lists accounts by role, defaulting to clients so an
// architect can pick one when opening a project.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	role := core.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = core.RoleClient
	}
	switch role {
	case core.RoleArchitect, core.RoleClient:
	default:
		respondError(w, r, http.StatusBadRequest, "role must be architect or client")
		return
	}

	users, err := s.repo.ListUsersByRole(r.Context(), role)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	out := make([]userDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toUserDTO(currentUser(r)))
}
