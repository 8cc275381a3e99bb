package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/repositories"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/telemetry"
)

// ChatHandler serves chat access, listing and group creation.
type ChatHandler struct {
	chats repositories.ChatRepository
	users repositories.UserRepository
	audit *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chats repositories.ChatRepository, users repositories.UserRepository, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{chats: chats, users: users, audit: audit}
}

type accessChatRequest struct {
	UserID int `json:"userId" binding:"required"`
}

// AccessChat returns the caller's direct chat with the given user, creating it
// on first contact. Repeated calls with the same pair return the same chat.
func (h *ChatHandler) AccessChat(c *gin.Context) {
	userID := c.GetInt("userID")

	var req accessChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	if req.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open a chat with yourself"})
		return
	}

	if _, err := h.users.GetUserByID(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to access chat"})
		return
	}

	chat, created, err := h.chats.GetOrCreateDirectChat(c.Request.Context(), userID, req.UserID)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to access chat"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		emitAudit(c, h.audit, "INFO", "Chat created")
	}
	c.JSON(status, gin.H{"chat": chat})
}

// ListChats returns the caller's chats, most recently active first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	chats, err := h.chats.ListChatsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

type createGroupRequest struct {
	Name  string `json:"name" binding:"required"`
	Users []int  `json:"users" binding:"required"`
}

// CreateGroupChat creates a named group from the caller plus at least two
// other users. Duplicate ids in the request collapse to one membership.
func (h *ChatHandler) CreateGroupChat(c *gin.Context) {
	userID := c.GetInt("userID")

	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and users are required"})
		return
	}

	members := dedupeMembers(append(req.Users, userID))
	if len(members) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a group chat needs at least 2 other users"})
		return
	}

	found, err := h.users.GetUsersByIDs(c.Request.Context(), members)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group chat"})
		return
	}
	if len(found) != len(members) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "one or more users do not exist"})
		return
	}

	chat, err := h.chats.CreateGroupChat(c.Request.Context(), req.Name, userID, members)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group chat"})
		return
	}

	emitAudit(c, h.audit, "INFO", "Group chat created")
	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

func dedupeMembers(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
