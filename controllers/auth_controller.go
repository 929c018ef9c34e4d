package controllers

import (
	"encoding/json"
	"net/http"

	"banquito/middleware"
	"banquito/services"
)

// AuthController handles registration, login and account requests
type AuthController struct {
	users  *services.UserService
	jwtKey []byte
}

// NewAuthController creates a new AuthController instance
func NewAuthController(users *services.UserService, jwtKey []byte) *AuthController {
	return &AuthController{users: users, jwtKey: jwtKey}
}

// loginResponse pairs a token with the authenticated account
type loginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Register handles POST /api/auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var dto services.RegisterUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	user, err := c.users.Register(dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var dto services.LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	user, err := c.users.Authenticate(dto)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := middleware.GenerateToken(c.jwtKey, user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Me handles GET /api/auth/me
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.UserFromContext(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	user, err := c.users.GetUserByID(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword handles POST /api/auth/change-password
func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.UserFromContext(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	var dto services.ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	if err := c.users.ChangePassword(userID, dto); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
}
