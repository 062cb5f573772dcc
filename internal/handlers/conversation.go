package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/convoy/internal/handlers/dto"
	"github.com/thereayou/convoy/internal/middleware"
	"github.com/thereayou/convoy/internal/models"
	"github.com/thereayou/convoy/internal/services"
)

type ConversationHandler struct {
	svc *services.ConversationService
}

func NewConversationHandler(svc *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// CreatePrivate возвращает личную беседу с указанным пользователем,
// создавая ее при первом обращении
func (h *ConversationHandler) CreatePrivate(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.CreatePrivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	conv, err := h.svc.GetOrCreatePrivateConversation(userID, targetUserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfConversation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		}
		return
	}

	c.JSON(http.StatusOK, formatConversationResponse(conv))
}

// CreateGroup создает групповую беседу или возвращает существующую
// с тем же именем и составом
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	memberIDs := make([]uuid.UUID, 0, len(req.MemberIDs))
	for _, raw := range req.MemberIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id: " + raw})
			return
		}
		memberIDs = append(memberIDs, id)
	}

	conv, created, err := h.svc.CreateGroupConversation(userID, req.Name, memberIDs)
	if err != nil {
		var unknown *services.UnknownUsersError
		switch {
		case errors.Is(err, services.ErrInvalidGroupName),
			errors.Is(err, services.ErrNoMembers),
			errors.As(err, &unknown):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		}
		return
	}

	message := "group already exists"
	if created {
		message = "group created"
	}

	response := formatConversationResponse(conv)
	response["created"] = created
	response["message"] = message

	c.JSON(http.StatusOK, response)
}

// Join добавляет текущего пользователя в групповую беседу
func (h *ConversationHandler) Join(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	conv, err := h.svc.JoinGroupConversation(userID, conversationID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrPrivateConversation),
			errors.Is(err, services.ErrAlreadyMember):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join conversation"})
		}
		return
	}

	c.JSON(http.StatusOK, formatConversationResponse(conv))
}

// Leave удаляет текущего пользователя из беседы. Опустевшая беседа
// удаляется вместе с сообщениями.
func (h *ConversationHandler) Leave(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	if err := h.svc.LeaveConversation(userID, conversationID); err != nil {
		if errors.Is(err, services.ErrNotMember) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left conversation successfully"})
}

// List получает беседы текущего пользователя с последними сообщениями
func (h *ConversationHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	summaries, err := h.svc.ListConversations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get conversations"})
		return
	}

	response := make([]gin.H, len(summaries))
	for i, summary := range summaries {
		item := formatConversationResponse(&summary.Conversation)
		if summary.LastMessage != nil {
			item["last_message"] = formatMessageResponse(summary.LastMessage)
		}
		response[i] = item
	}

	c.JSON(http.StatusOK, gin.H{"conversations": response})
}

// formatConversationResponse форматирует ответ для беседы
func formatConversationResponse(conv *models.Conversation) gin.H {
	members := make([]gin.H, len(conv.Members))
	for i, member := range conv.Members {
		members[i] = gin.H{
			"id":         member.ID,
			"username":   member.Username,
			"avatar_url": member.AvatarURL,
		}
	}

	response := gin.H{
		"id":         conv.ID,
		"is_group":   conv.IsGroup,
		"created_by": conv.CreatedBy,
		"created_at": conv.CreatedAt,
		"members":    members,
	}

	if conv.IsGroup {
		response["name"] = conv.GroupName
	}

	return response
}
