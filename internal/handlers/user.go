package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/repositories"
)

// UserHandler serves user search for starting new conversations.
type UserHandler struct {
	users repositories.UserRepository
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users repositories.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// Search returns users matching ?search= by username or email, excluding the
// caller. An empty keyword returns everyone else.
func (h *UserHandler) Search(c *gin.Context) {
	userID := c.GetInt("userID")
	keyword := c.Query("search")

	users, err := h.users.SearchUsers(c.Request.Context(), keyword, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
