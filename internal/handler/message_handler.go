package handler

import (
	"net/http"
	"strconv"

	"relay-chat/internal/commands"
	"relay-chat/internal/services"
	"relay-chat/internal/transport/httpdto"
	relay_errors "relay-chat/pkg/errors"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service *services.MessageService
}

func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Paginate serves GET /msgs?chatId=&limit=&cursor=. Pages run newest to
// oldest; a nil nextCursor means the history is exhausted.
func (h *MessageHandler) Paginate(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, relay_errors.ErrUnauthorized)
		return
	}

	chatID := c.Query("chatId")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("chatId is required", ""))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("limit must be a positive integer", ""))
			return
		}
		limit = n
	}

	page, err := h.service.Paginate(c.Request.Context(), userID, chatID, limit, c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, relay_errors.ErrUnauthorized)
		return
	}

	chatID := c.Query("chatId")
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request body", ""))
		return
	}

	resp, err := h.service.Send(c.Request.Context(), commands.SendMessageCommand{
		ChatID:   chatID,
		SenderID: userID,
		Content:  req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": resp})
}

func (h *MessageHandler) Reply(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, relay_errors.ErrUnauthorized)
		return
	}

	chatID := c.Query("chatId")
	var req httpdto.ReplyMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request body", ""))
		return
	}

	resp, err := h.service.Reply(c.Request.Context(), commands.ReplyMessageCommand{
		ChatID:           chatID,
		SenderID:         userID,
		Content:          req.Text,
		ReplyToMessageID: req.ReplyToMessageID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": resp})
}

func (h *MessageHandler) Edit(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, relay_errors.ErrUnauthorized)
		return
	}

	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request body", ""))
		return
	}

	resp, err := h.service.Edit(c.Request.Context(), commands.EditMessageCommand{
		MessageID: c.Param("messageId"),
		EditorID:  userID,
		Content:   req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": resp})
}

func (h *MessageHandler) Delete(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, relay_errors.ErrUnauthorized)
		return
	}

	err := h.service.SoftDelete(c.Request.Context(), commands.DeleteMessageCommand{
		MessageID:   c.Param("messageId"),
		RequesterID: userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

func (h *MessageHandler) MarkDelivered(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, relay_errors.ErrUnauthorized)
		return
	}

	if err := h.service.MarkDelivered(c.Request.Context(), c.Param("messageId"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message delivered"})
}
