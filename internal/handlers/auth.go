package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/auth"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/models"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/repositories"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/telemetry"
)

// AuthHandler implements registration, login, logout and the refresh flow.
type AuthHandler struct {
	users        repositories.UserRepository
	tokens       *auth.Manager
	cookieSecure bool
	audit        *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, tokens *auth.Manager, cookieSecure bool, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, cookieSecure: cookieSecure, audit: audit}
}

const (
	accessCookieMaxAge  = 15 * 60
	refreshCookieMaxAge = 7 * 24 * 60 * 60
)

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username        string `json:"username" binding:"required"`
		Email           string `json:"email" binding:"required,email"`
		FirstName       string `json:"first_name" binding:"required"`
		LastName        string `json:"last_name" binding:"required"`
		Password        string `json:"password" binding:"required,min=6"`
		ConfirmPassword string `json:"confirm_password" binding:"required"`
		Avatar          string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register user"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), models.User{
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Avatar:       req.Avatar,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
			return
		}
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register user"})
		return
	}

	emitAudit(c, h.audit, "INFO", "User registered")
	c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and issues the access/refresh pair, both as
// httpOnly cookies and in the response body.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Login    string `json:"login" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetUserByLogin(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Login)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user does not exist"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log in"})
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		emitAudit(c, h.audit, "ERROR", "invalid credentials")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user credentials"})
		return
	}

	access, refresh, err := h.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	if err := h.users.SetRefreshToken(c.Request.Context(), user.ID, refresh); err != nil {
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not persist session"})
		return
	}

	c.Set("userID", user.ID)
	emitAudit(c, h.audit, "INFO", "User logged in")
	h.setTokenCookies(c, access, refresh)
	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Logout invalidates the stored refresh token and clears both cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetInt("userID")
	if err := h.users.ClearRefreshToken(c.Request.Context(), userID); err != nil {
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log out"})
		return
	}

	emitAudit(c, h.audit, "INFO", "User logged out")
	h.clearTokenCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh rotates the token pair. The presented refresh token must both
// verify and match the copy stored with the account; a token that was already
// rotated away is rejected.
func (h *AuthHandler) Refresh(c *gin.Context) {
	incoming, err := c.Cookie("refreshToken")
	if err != nil || incoming == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
			return
		}
		incoming = req.RefreshToken
	}

	userID, err := h.tokens.VerifyRefresh(incoming)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	if user.RefreshToken == "" || user.RefreshToken != incoming {
		c.Set("userID", user.ID)
		emitAudit(c, h.audit, "ERROR", "refresh token reuse")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token is expired or used"})
		return
	}

	access, refresh, err := h.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	if err := h.users.SetRefreshToken(c.Request.Context(), user.ID, refresh); err != nil {
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not persist session"})
		return
	}

	c.Set("userID", user.ID)
	emitAudit(c, h.audit, "INFO", "Tokens refreshed")
	h.setTokenCookies(c, access, refresh)
	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, access, refresh string) {
	c.SetCookie("accessToken", access, accessCookieMaxAge, "/", "", h.cookieSecure, true)
	c.SetCookie("refreshToken", refresh, refreshCookieMaxAge, "/", "", h.cookieSecure, true)
}

func (h *AuthHandler) clearTokenCookies(c *gin.Context) {
	c.SetCookie("accessToken", "", -1, "/", "", h.cookieSecure, true)
	c.SetCookie("refreshToken", "", -1, "/", "", h.cookieSecure, true)
}
