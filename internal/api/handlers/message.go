package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradeyard/marketplace-backend/internal/services"
	"github.com/tradeyard/marketplace-backend/internal/utils"
)

type MessageHandler struct {
	messageService *services.MessageService
	authService    *services.AuthService
}

func NewMessageHandler(messageService *services.MessageService, authService *services.AuthService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		authService:    authService,
	}
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Conversations handles GET /conversations: one thread per counterparty,
// newest first, plus the total unread badge count.
func (h *MessageHandler) Conversations(c *gin.Context) {
	userID := c.GetUint("user_id")

	threads, err := h.messageService.Conversations(userID)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve conversations", err)
		return
	}

	unreadTotal, err := h.messageService.UnreadCount(userID)
	if err != nil {
		utils.SendInternalError(c, "Failed to count unread messages", err)
		return
	}

	utils.SendSuccess(c, "Conversations retrieved successfully", gin.H{
		"threads":      threads,
		"unread_total": unreadTotal,
	})
}

// Conversation handles GET /messages/:username. Reading the thread marks the
// counterparty's unread messages as read.
func (h *MessageHandler) Conversation(c *gin.Context) {
	userID := c.GetUint("user_id")

	other, err := h.authService.GetUserByUsername(c.Param("username"))
	if err != nil {
		utils.SendNotFound(c, "User not found")
		return
	}

	messages, err := h.messageService.Conversation(userID, other.ID)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve conversation", err)
		return
	}

	utils.SendSuccess(c, "Conversation retrieved successfully", gin.H{
		"other":    other,
		"messages": messages,
	})
}

// Send handles POST /messages/:username.
func (h *MessageHandler) Send(c *gin.Context) {
	userID := c.GetUint("user_id")

	other, err := h.authService.GetUserByUsername(c.Param("username"))
	if err != nil {
		utils.SendNotFound(c, "User not found")
		return
	}

	h.send(c, userID, other.ID)
}

// SendByID handles POST /message/send/:recipient_id.
func (h *MessageHandler) SendByID(c *gin.Context) {
	userID := c.GetUint("user_id")
	recipientID, ok := parseIDParam(c, "recipient_id")
	if !ok {
		return
	}

	h.send(c, userID, recipientID)
}

func (h *MessageHandler) send(c *gin.Context, senderID, recipientID uint) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Message cannot be empty")
		return
	}

	message, err := h.messageService.Send(senderID, recipientID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			utils.SendValidationError(c, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			utils.SendNotFound(c, err.Error())
		default:
			utils.SendError(c, http.StatusInternalServerError, "Failed to send message", err)
		}
		return
	}

	utils.SendSuccess(c, "Message sent", message)
}
