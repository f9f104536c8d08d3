package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/storyforge/backend/middleware"
	"github.com/storyforge/backend/models"
	"github.com/storyforge/backend/store"
)

type AuthHandler struct {
	Store     store.Store
	JWTSecret string
	Logger    *zap.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	fields := map[string]string{}
	if !strings.Contains(req.Email, "@") {
		fields["email"] = "a valid email is required"
	}
	if utf8.RuneCountInString(req.Password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	existing, err := h.Store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "an account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	user := &models.User{
		Email:     req.Email,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}
	id, err := h.Store.CreateUser(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}

	token, err := h.createToken(id.Hex(), user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create token")
		return
	}
	h.Logger.Info("user registered", zap.String("email", user.Email))
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, Email: user.Email})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := h.Store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.createToken(user.ID.Hex(), user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, Email: user.Email})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.Store.UserByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) createToken(userID, email string) (string, error) {
	claims := &middleware.Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour * 7)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}
