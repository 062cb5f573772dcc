package services

import (
	"context"
	"errors"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/thereayou/convoy/internal/events"
	"github.com/thereayou/convoy/internal/models"
	"gorm.io/gorm"
)

const notifyTimeout = 5 * time.Second

type ConversationService struct {
	repo     ConversationRepository
	users    UserDirectory
	notifier Notifier
}

func NewConversationService(repo ConversationRepository, users UserDirectory, notifier Notifier) *ConversationService {
	return &ConversationService{
		repo:     repo,
		users:    users,
		notifier: notifier,
	}
}

// GetOrCreatePrivateConversation возвращает существующую личную беседу пары
// пользователей или создает новую. Повторные вызовы идемпотентны.
func (s *ConversationService) GetOrCreatePrivateConversation(currentUserID, targetUserID uuid.UUID) (*models.Conversation, error) {
	if currentUserID == targetUserID {
		return nil, ErrSelfConversation
	}

	exists, err := s.users.UserExists(targetUserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	conv, err := s.repo.FindPrivateConversation(currentUserID, targetUserID)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	conv = &models.Conversation{
		IsGroup:   false,
		CreatedBy: currentUserID,
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateConversation(conv, []uuid.UUID{currentUserID, targetUserID}); err != nil {
		return nil, err
	}

	s.notifyMembership(conv.ID, currentUserID, events.ChangeJoined, false)
	s.notifyMembership(conv.ID, targetUserID, events.ChangeJoined, false)

	return conv, nil
}

// CreateGroupConversation создает групповую беседу либо возвращает уже
// существующую с тем же именем и ровно тем же составом участников.
// created=false означает, что ничего не записывалось.
func (s *ConversationService) CreateGroupConversation(currentUserID uuid.UUID, groupName string, memberIDs []uuid.UUID) (*models.Conversation, bool, error) {
	if nameLen := utf8.RuneCountInString(groupName); nameLen < 1 || nameLen > 100 {
		return nil, false, ErrInvalidGroupName
	}
	if len(memberIDs) == 0 {
		return nil, false, ErrNoMembers
	}

	// Дедупликация входного списка, текущий пользователь включается всегда
	seen := map[uuid.UUID]bool{currentUserID: true}
	resolved := []uuid.UUID{currentUserID}
	for _, id := range memberIDs {
		if !seen[id] {
			seen[id] = true
			resolved = append(resolved, id)
		}
	}

	// Валидируем весь список целиком, а не до первой ошибки
	var unknown []uuid.UUID
	for _, id := range resolved {
		exists, err := s.users.UserExists(id)
		if err != nil {
			return nil, false, err
		}
		if !exists {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, false, &UnknownUsersError{IDs: unknown}
	}

	// Совпадение имени само по себе недостаточно: состав участников
	// должен совпадать как неупорядоченное множество
	groups, err := s.repo.FindGroupsByName(groupName)
	if err != nil {
		return nil, false, err
	}
	for i := range groups {
		if sameMemberSet(groups[i].MemberIDs(), resolved) {
			return &groups[i], false, nil
		}
	}

	conv := &models.Conversation{
		IsGroup:   true,
		GroupName: groupName,
		CreatedBy: currentUserID,
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateConversation(conv, resolved); err != nil {
		return nil, false, err
	}

	for _, id := range resolved {
		s.notifyMembership(conv.ID, id, events.ChangeJoined, false)
	}

	return conv, true, nil
}

// JoinGroupConversation добавляет пользователя в групповую беседу
func (s *ConversationService) JoinGroupConversation(userID, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.repo.GetConversation(conversationID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	if !conv.IsGroup {
		return nil, ErrPrivateConversation
	}

	member, err := s.repo.IsMember(userID, conversationID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrAlreadyMember
	}

	if err := s.repo.AddMembership(userID, conversationID); err != nil {
		return nil, err
	}

	s.notifyMembership(conversationID, userID, events.ChangeJoined, false)

	return conv, nil
}

// LeaveConversation удаляет членство пользователя. Беседа, оставшаяся без
// участников, удаляется вместе со своими сообщениями.
func (s *ConversationService) LeaveConversation(userID, conversationID uuid.UUID) error {
	removed, deleted, err := s.repo.RemoveMembershipCascade(userID, conversationID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotMember
	}

	s.notifyMembership(conversationID, userID, events.ChangeLeft, deleted)

	return nil
}

// SendMessage сохраняет сообщение и после записи уведомляет внешний сервис.
// Ошибка уведомления не откатывает уже сохраненное сообщение.
func (s *ConversationService) SendMessage(senderID, conversationID uuid.UUID, content, messageType, mediaURL string) (*models.Message, error) {
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	if !models.ValidMessageType(messageType) {
		return nil, ErrInvalidMessageType
	}

	if _, err := s.repo.GetConversation(conversationID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	member, err := s.repo.IsMember(senderID, conversationID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Type:           messageType,
		MediaURL:       mediaURL,
		SentAt:         time.Now(),
		IsRead:         false,
	}

	if err := s.repo.InsertMessage(message); err != nil {
		return nil, err
	}

	payload := &events.MessagePayload{
		MessageID:      message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Type:           message.Type,
		Content:        message.Content,
		MediaURL:       message.MediaURL,
		SentAt:         message.SentAt,
	}
	if sender, err := s.users.ResolveUser(senderID); err == nil {
		payload.SenderName = sender.Username
	}
	s.notify(events.Event{
		Kind:       events.KindMessagePersisted,
		OccurredAt: time.Now(),
		Message:    payload,
	})

	return message, nil
}

// GetHistory возвращает страницу истории. Окно страницы отсчитывается от
// самых новых сообщений, внутри страницы порядок хронологический.
func (s *ConversationService) GetHistory(requesterID, conversationID uuid.UUID, page, pageSize int) ([]models.Message, error) {
	if page < 1 || pageSize < 1 {
		return nil, ErrInvalidPage
	}

	if _, err := s.repo.GetConversation(conversationID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	member, err := s.repo.IsMember(requesterID, conversationID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}

	offset := (page - 1) * pageSize
	return s.repo.GetConversationMessages(conversationID, pageSize, offset)
}

// ConversationSummary — беседа с последним сообщением для списка бесед
type ConversationSummary struct {
	Conversation models.Conversation
	LastMessage  *models.Message
}

// ListConversations получает беседы пользователя с последними сообщениями
func (s *ConversationService) ListConversations(userID uuid.UUID) ([]ConversationSummary, error) {
	convs, err := s.repo.GetUserConversations(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, len(convs))
	for i := range convs {
		summaries[i].Conversation = convs[i]

		messages, err := s.repo.GetConversationMessages(convs[i].ID, 1, 0)
		if err != nil {
			return nil, err
		}
		if len(messages) > 0 {
			summaries[i].LastMessage = &messages[0]
		}
	}

	return summaries, nil
}

// MarkConversationRead помечает прочитанными чужие сообщения беседы
func (s *ConversationService) MarkConversationRead(userID, conversationID uuid.UUID) error {
	member, err := s.repo.IsMember(userID, conversationID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}

	return s.repo.MarkMessagesRead(conversationID, userID)
}

func (s *ConversationService) notifyMembership(conversationID, userID uuid.UUID, change string, conversationDeleted bool) {
	s.notify(events.Event{
		Kind:       events.KindMembershipChanged,
		OccurredAt: time.Now(),
		Membership: &events.MembershipPayload{
			ConversationID:      conversationID,
			UserID:              userID,
			Change:              change,
			ConversationDeleted: conversationDeleted,
		},
	})
}

func (s *ConversationService) notify(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, event); err != nil {
		log.Printf("Failed to notify %s: %v", event.Kind, err)
	}
}

func sameMemberSet(have map[uuid.UUID]bool, want []uuid.UUID) bool {
	if len(have) != len(want) {
		return false
	}
	for _, id := range want {
		if !have[id] {
			return false
		}
	}
	return true
}
