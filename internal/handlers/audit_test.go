package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/auth"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/mocks"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/models"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/telemetry"
)

func newTestEmitter(publisher *mocks.PublisherMock) *telemetry.AuditEmitter {
	return telemetry.NewAuditEmitter(publisher, "audit.logs", "messaging-service", "test")
}

func auditRecord(level, text string, userID int) interface{} {
	return mock.MatchedBy(func(env telemetry.AuditEnvelope) bool {
		return env.EventType == "audit_log" &&
			env.Payload.Level == level &&
			env.Payload.Text == text &&
			env.UserID != nil && *env.UserID == userID
	})
}

func TestSendMessageEmitsAudit(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	publisher := new(mocks.PublisherMock)
	handler := NewMessageHandler(chatRepo, msgRepo, newTestEmitter(publisher))
	router := setupMessageRouter(handler)

	chatID := primitive.NewObjectID()
	chatRepo.On("GetChat", mock.Anything, chatID.Hex()).
		Return(models.Chat{ID: chatID, Members: []int{1, 2}}, nil).Once()
	msgRepo.On("CreateMessage", mock.Anything, chatID.Hex(), 1, "hi").
		Return(models.Message{ChatID: chatID, SenderID: 1, Text: "hi"}, nil).Once()
	publisher.On("Publish", mock.Anything, "audit.logs", auditRecord("INFO", "Message sent", 1)).
		Return(nil).Once()

	body := bytes.NewBufferString(`{"chatId":"` + chatID.Hex() + `","content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	publisher.AssertExpectations(t)
}

func TestSendMessageNonMemberEmitsErrorAudit(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	publisher := new(mocks.PublisherMock)
	handler := NewMessageHandler(chatRepo, new(mocks.MessageRepositoryMock), newTestEmitter(publisher))
	router := setupMessageRouter(handler)

	chatID := primitive.NewObjectID()
	chatRepo.On("GetChat", mock.Anything, chatID.Hex()).
		Return(models.Chat{ID: chatID, Members: []int{2, 3}}, nil).Once()
	publisher.On("Publish", mock.Anything, "audit.logs", auditRecord("ERROR", "not allowed", 1)).
		Return(nil).Once()

	body := bytes.NewBufferString(`{"chatId":"` + chatID.Hex() + `","content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	publisher.AssertExpectations(t)
}

func TestCreateGroupChatEmitsAudit(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	publisher := new(mocks.PublisherMock)
	handler := NewChatHandler(chatRepo, userRepo, newTestEmitter(publisher))
	router := setupChatRouter(handler)

	members := []int{1, 2, 3}
	userRepo.On("GetUsersByIDs", mock.Anything, members).
		Return([]models.User{{ID: 1}, {ID: 2}, {ID: 3}}, nil).Once()
	chatRepo.On("CreateGroupChat", mock.Anything, "g", 1, members).
		Return(models.Chat{Name: "g", IsGroup: true, Members: members, AdminID: 1}, nil).Once()
	publisher.On("Publish", mock.Anything, "audit.logs", auditRecord("INFO", "Group chat created", 1)).
		Return(nil).Once()

	body := bytes.NewBufferString(`{"name":"g","users":[2,3]}`)
	req := httptest.NewRequest(http.MethodPost, "/chats/group", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	publisher.AssertExpectations(t)
}

func TestLoginEmitsAudit(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	publisher := new(mocks.PublisherMock)
	handler := NewAuthHandler(userRepo, newTestTokens(), false, newTestEmitter(publisher))
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	userRepo.On("GetUserByLogin", mock.Anything, "alice").
		Return(models.User{ID: 1, Username: "alice", PasswordHash: hash}, nil).Once()
	userRepo.On("SetRefreshToken", mock.Anything, 1, mock.AnythingOfType("string")).Return(nil).Once()
	publisher.On("Publish", mock.Anything, "audit.logs", auditRecord("INFO", "User logged in", 1)).
		Return(nil).Once()

	body := bytes.NewBufferString(`{"login": "alice", "password": "secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	publisher.AssertExpectations(t)
}
