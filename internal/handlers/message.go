package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/models"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/repositories"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/telemetry"
)

// MessageHandler serves message creation and history. Sending a message only
// persists it; realtime fan-out to online members happens over the websocket
// when the client emits new_message with the stored document.
type MessageHandler struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	audit    *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(chats repositories.ChatRepository, messages repositories.MessageRepository, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{chats: chats, messages: messages, audit: audit}
}

type sendMessageRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Text   string `json:"content" binding:"required"`
}

// SendMessage stores a new message in a chat the caller belongs to and returns
// it together with the chat's member list, so the client can drive fan-out.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID := c.GetInt("userID")

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "chatId and content are required"})
		return
	}

	chat, err := h.loadMemberChat(c, req.ChatID, userID)
	if err != nil {
		return
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), req.ChatID, userID, req.Text)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	emitAudit(c, h.audit, "INFO", "Message sent")
	c.JSON(http.StatusCreated, gin.H{"message": msg, "members": chat.Members})
}

// GetMessages returns a chat's history, oldest first. Only members may read it.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID := c.GetInt("userID")
	chatID := c.Param("chatId")

	if _, err := h.loadMemberChat(c, chatID, userID); err != nil {
		return
	}

	msgs, err := h.messages.ListChatMessages(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// loadMemberChat fetches the chat and rejects the request unless the caller is
// a member. On failure it writes the response and returns an error.
func (h *MessageHandler) loadMemberChat(c *gin.Context, chatID string, userID int) (models.Chat, error) {
	chat, err := h.chats.GetChat(c.Request.Context(), chatID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInvalidChatID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		case errors.Is(err, repositories.ErrChatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		default:
			emitAudit(c, h.audit, "ERROR", "internal error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		}
		return models.Chat{}, err
	}
	if !chat.HasMember(userID) {
		emitAudit(c, h.audit, "ERROR", "not allowed")
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this chat"})
		return models.Chat{}, errors.New("not a member")
	}
	return chat, nil
}
