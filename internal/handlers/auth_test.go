package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/auth"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/mocks"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/models"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/repositories"
)

func newTestTokens() *auth.Manager {
	return auth.NewManager("test-access", "test-refresh", 15*time.Minute, 7*24*time.Hour)
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/logout", func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	}, handler.Logout)
	r.POST("/auth/refresh", handler.Refresh)
	return r
}

func TestRegisterSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, newTestTokens(), false, nil)
	router := setupAuthRouter(handler)

	userRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "alice" && u.Email == "alice@example.com" &&
			u.PasswordHash != "" && u.PasswordHash != "secret1"
	})).Return(models.User{ID: 1, Username: "alice", Email: "alice@example.com"}, nil).Once()

	body := bytes.NewBufferString(`{
		"username": "Alice",
		"email": "Alice@Example.com",
		"first_name": "Alice",
		"last_name": "Smith",
		"password": "secret1",
		"confirm_password": "secret1"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), newTestTokens(), false, nil)
	router := setupAuthRouter(handler)

	body := bytes.NewBufferString(`{
		"username": "alice",
		"email": "alice@example.com",
		"first_name": "Alice",
		"last_name": "Smith",
		"password": "secret1",
		"confirm_password": "secret2"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, newTestTokens(), false, nil)
	router := setupAuthRouter(handler)

	userRepo.On("CreateUser", mock.Anything, mock.Anything).
		Return(models.User{}, repositories.ErrUserExists).Once()

	body := bytes.NewBufferString(`{
		"username": "alice",
		"email": "alice@example.com",
		"first_name": "Alice",
		"last_name": "Smith",
		"password": "secret1",
		"confirm_password": "secret1"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestLoginSuccessSetsCookiesAndPersistsRefresh(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, newTestTokens(), false, nil)
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	user := models.User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: hash}

	userRepo.On("GetUserByLogin", mock.Anything, "alice").Return(user, nil).Once()
	userRepo.On("SetRefreshToken", mock.Anything, 1, mock.AnythingOfType("string")).Return(nil).Once()

	body := bytes.NewBufferString(`{"login": "alice", "password": "secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["access_token"])
	assert.NotEmpty(t, resp["refresh_token"])

	cookies := rec.Result().Cookies()
	names := map[string]bool{}
	for _, ck := range cookies {
		names[ck.Name] = true
		assert.True(t, ck.HttpOnly, "token cookies must be httpOnly")
	}
	assert.True(t, names["accessToken"])
	assert.True(t, names["refreshToken"])
	userRepo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, newTestTokens(), false, nil)
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	userRepo.On("GetUserByLogin", mock.Anything, "alice").
		Return(models.User{ID: 1, Username: "alice", PasswordHash: hash}, nil).Once()

	body := bytes.NewBufferString(`{"login": "alice", "password": "wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestLogoutClearsRefreshToken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, newTestTokens(), false, nil)
	router := setupAuthRouter(handler)

	userRepo.On("ClearRefreshToken", mock.Anything, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestRefreshRotatesPair(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	tokens := newTestTokens()
	handler := NewAuthHandler(userRepo, tokens, false, nil)
	router := setupAuthRouter(handler)

	_, refresh, err := tokens.IssuePair(1, "alice")
	require.NoError(t, err)

	userRepo.On("GetUserByID", mock.Anything, 1).
		Return(models.User{ID: 1, Username: "alice", RefreshToken: refresh}, nil).Once()
	userRepo.On("SetRefreshToken", mock.Anything, 1, mock.AnythingOfType("string")).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["access_token"])
	userRepo.AssertExpectations(t)
}

func TestRefreshRejectsRotatedToken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	tokens := newTestTokens()
	handler := NewAuthHandler(userRepo, tokens, false, nil)
	router := setupAuthRouter(handler)

	_, oldRefresh, err := tokens.IssuePair(1, "alice")
	require.NoError(t, err)

	// The account already rotated to a different refresh token.
	userRepo.On("GetUserByID", mock.Anything, 1).
		Return(models.User{ID: 1, Username: "alice", RefreshToken: "something-newer"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: oldRefresh})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestRefreshMissingToken(t *testing.T) {
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), newTestTokens(), false, nil)
	router := setupAuthRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
