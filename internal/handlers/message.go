package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/convoy/internal/handlers/dto"
	"github.com/thereayou/convoy/internal/middleware"
	"github.com/thereayou/convoy/internal/models"
	"github.com/thereayou/convoy/internal/services"
)

const defaultPageSize = 20

type MessageHandler struct {
	svc *services.ConversationService
}

func NewMessageHandler(svc *services.ConversationService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// Send сохраняет сообщение в беседе
func (h *MessageHandler) Send(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.svc.SendMessage(userID, conversationID, req.Content, req.Type, req.MediaURL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidMessageType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotMember):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		}
		return
	}

	c.JSON(http.StatusCreated, formatMessageResponse(message))
}

// GetHistory получает страницу истории беседы
func (h *MessageHandler) GetHistory(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			page = parsed
		}
	}

	pageSize := defaultPageSize
	if ps := c.Query("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil {
			pageSize = parsed
		}
	}

	messages, err := h.svc.GetHistory(userID, conversationID, page, pageSize)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotMember):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		}
		return
	}

	result := make([]gin.H, len(messages))
	for i := range messages {
		result[i] = formatMessageResponse(&messages[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": result,
		"has_more": len(messages) == pageSize,
	})
}

// MarkRead помечает прочитанными чужие сообщения беседы
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	if err := h.svc.MarkConversationRead(userID, conversationID); err != nil {
		if errors.Is(err, services.ErrNotMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "messages marked as read"})
}

// formatMessageResponse форматирует ответ для сообщения
func formatMessageResponse(msg *models.Message) gin.H {
	response := gin.H{
		"id":              msg.ID,
		"conversation_id": msg.ConversationID,
		"sender_id":       msg.SenderID,
		"content":         msg.Content,
		"type":            msg.Type,
		"sent_at":         msg.SentAt,
		"is_read":         msg.IsRead,
	}

	if msg.MediaURL != "" {
		response["media_url"] = msg.MediaURL
	}

	// Если загружена информация об отправителе
	if msg.Sender.ID != uuid.Nil {
		response["sender"] = gin.H{
			"id":         msg.Sender.ID,
			"username":   msg.Sender.Username,
			"avatar_url": msg.Sender.AvatarURL,
		}
	}

	return response
}
