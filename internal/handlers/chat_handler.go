package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rifat-dv/meshly/backend/internal/models"
	"github.com/rifat-dv/meshly/backend/internal/services"
)

// ChatHandler handles conversation and message HTTP requests
type ChatHandler struct {
	chat *services.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chatService}
}

// RegisterChatRoutes registers chat-related routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.GET("/chat/conversations", h.GetConversations)
	g.POST("/chat/conversations", h.OpenConversation)
	g.GET("/chat/:conversation_id/messages", h.GetMessages)
	g.PUT("/chat/:conversation_id/read", h.MarkRead)
	g.POST("/chat/message", h.SendMessage)
}

// GetConversations lists the current user's conversations
func (h *ChatHandler) GetConversations(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	conversations, err := h.chat.ListConversations(c.Request().Context(), currentUserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, echo.Map{"conversations": conversations})
}

// OpenConversation gets or creates the conversation with another user
func (h *ChatHandler) OpenConversation(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	var req models.CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conv, err := h.chat.GetOrCreateConversation(c.Request().Context(), currentUserID, req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, conv)
}

// GetMessages lists a conversation's messages ascending by time
func (h *ChatHandler) GetMessages(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	conversationID := c.Param("conversation_id")
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	messages, err := h.chat.ListMessages(c.Request().Context(), currentUserID, conversationID, skip, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, echo.Map{"messages": messages})
}

// MarkRead resets the caller's unread counter for a conversation
func (h *ChatHandler) MarkRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	if err := h.chat.MarkRead(c.Request().Context(), currentUserID, c.Param("conversation_id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SendMessage appends a message to a conversation
func (h *ChatHandler) SendMessage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Text == "" && req.ImageURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message must have text or an image")
	}

	msg, err := h.chat.SendMessage(c.Request().Context(), currentUserID, req.ConversationID, req.Text, req.ImageURL)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusCreated, msg)
}
