package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/services"
	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
}

func NewAuthHandler(authService services.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   []byte(jwtSecret),
	}
}

type loginInput struct {
	Email      string `json:"email"`
	AccessCode string `json:"access_code"`
}

func (h *AuthHandler) LoginTeam(w http.ResponseWriter, r *http.Request) {
	input, ok := h.readLoginInput(w, r)
	if !ok {
		return
	}

	team, err := h.authService.LoginTeam(r.Context(), input.Email, input.AccessCode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeTokenResponse(w, r, team.ID, models.RoleTeam, jsonResponse{"team": team})
}

func (h *AuthHandler) LoginReviewer(w http.ResponseWriter, r *http.Request) {
	input, ok := h.readLoginInput(w, r)
	if !ok {
		return
	}

	reviewer, err := h.authService.LoginReviewer(r.Context(), input.Email, input.AccessCode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeTokenResponse(w, r, reviewer.ID, models.RoleReviewer, jsonResponse{"reviewer": reviewer})
}

func (h *AuthHandler) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	input, ok := h.readLoginInput(w, r)
	if !ok {
		return
	}

	admin, err := h.authService.LoginAdmin(r.Context(), input.Email, input.AccessCode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeTokenResponse(w, r, admin.ID, models.RoleAdmin, jsonResponse{"admin": admin})
}

func (h *AuthHandler) readLoginInput(w http.ResponseWriter, r *http.Request) (loginInput, bool) {
	var input loginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return input, false
	}
	if input.Email == "" || input.AccessCode == "" {
		badRequestResponse(w, r, errors.New("email and access code are required"))
		return input, false
	}
	return input, true
}

func (h *AuthHandler) writeTokenResponse(w http.ResponseWriter, r *http.Request, userID int, role models.UserRole, payload jsonResponse) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(tokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	payload["token"] = tokenString
	if err := writeJSON(w, http.StatusOK, payload, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
