package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/convoy/internal/events"
	"github.com/thereayou/convoy/internal/middleware"
	"github.com/thereayou/convoy/internal/models"
	"github.com/thereayou/convoy/internal/services"
	"gorm.io/gorm"
)

// Хранилище в памяти для проверки маппинга ошибок сервиса на статусы HTTP
type memoryRepo struct {
	convs    map[uuid.UUID]*models.Conversation
	members  map[uuid.UUID]map[uuid.UUID]bool
	messages map[uuid.UUID][]models.Message
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		convs:    make(map[uuid.UUID]*models.Conversation),
		members:  make(map[uuid.UUID]map[uuid.UUID]bool),
		messages: make(map[uuid.UUID][]models.Message),
	}
}

func (r *memoryRepo) FindPrivateConversation(userA, userB uuid.UUID) (*models.Conversation, error) {
	for id, conv := range r.convs {
		set := r.members[id]
		if !conv.IsGroup && len(set) == 2 && set[userA] && set[userB] {
			c := *conv
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) FindGroupsByName(name string) ([]models.Conversation, error) {
	var out []models.Conversation
	for id, conv := range r.convs {
		if conv.IsGroup && conv.GroupName == name {
			c := *conv
			for userID := range r.members[id] {
				c.Members = append(c.Members, models.User{ID: userID})
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryRepo) CreateConversation(conv *models.Conversation, memberIDs []uuid.UUID) error {
	conv.ID = uuid.New()
	set := make(map[uuid.UUID]bool, len(memberIDs))
	for _, id := range memberIDs {
		set[id] = true
		conv.Members = append(conv.Members, models.User{ID: id})
	}
	stored := *conv
	stored.Members = nil
	r.convs[conv.ID] = &stored
	r.members[conv.ID] = set
	return nil
}

func (r *memoryRepo) GetConversation(id string) (*models.Conversation, error) {
	convID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	conv, ok := r.convs[convID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *conv
	return &c, nil
}

func (r *memoryRepo) GetUserConversations(userID uuid.UUID) ([]models.Conversation, error) {
	var out []models.Conversation
	for id, conv := range r.convs {
		if r.members[id][userID] {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (r *memoryRepo) AddMembership(userID, conversationID uuid.UUID) error {
	r.members[conversationID][userID] = true
	return nil
}

func (r *memoryRepo) RemoveMembershipCascade(userID, conversationID uuid.UUID) (bool, bool, error) {
	set, ok := r.members[conversationID]
	if !ok || !set[userID] {
		return false, false, nil
	}
	delete(set, userID)
	if len(set) > 0 {
		return true, false, nil
	}
	delete(r.convs, conversationID)
	delete(r.members, conversationID)
	delete(r.messages, conversationID)
	return true, true, nil
}

func (r *memoryRepo) CountMemberships(conversationID uuid.UUID) (int64, error) {
	return int64(len(r.members[conversationID])), nil
}

func (r *memoryRepo) IsMember(userID, conversationID uuid.UUID) (bool, error) {
	return r.members[conversationID][userID], nil
}

func (r *memoryRepo) InsertMessage(message *models.Message) error {
	message.ID = uuid.New()
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], *message)
	return nil
}

func (r *memoryRepo) GetConversationMessages(conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	all := append([]models.Message(nil), r.messages[conversationID]...)
	sort.Slice(all, func(i, j int) bool { return all[i].SentAt.After(all[j].SentAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

func (r *memoryRepo) MarkMessagesRead(conversationID, readerID uuid.UUID) error {
	msgs := r.messages[conversationID]
	for i := range msgs {
		if msgs[i].SenderID != readerID {
			msgs[i].IsRead = true
		}
	}
	return nil
}

type memoryUsers struct {
	known map[uuid.UUID]bool
}

func (u *memoryUsers) UserExists(id uuid.UUID) (bool, error) {
	return u.known[id], nil
}

func (u *memoryUsers) ResolveUser(id uuid.UUID) (*models.User, error) {
	if !u.known[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.User{ID: id, Username: "user"}, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, events.Event) error { return nil }

type testEnv struct {
	router *gin.Engine
	repo   *memoryRepo
	users  *memoryUsers
	alice  uuid.UUID
	bob    uuid.UUID
	eve    uuid.UUID
}

// setupEnv поднимает роутер с подменой auth middleware: userID берется
// из заголовка X-Test-User
func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		repo:  newMemoryRepo(),
		users: &memoryUsers{known: make(map[uuid.UUID]bool)},
		alice: uuid.New(),
		bob:   uuid.New(),
		eve:   uuid.New(),
	}
	env.users.known[env.alice] = true
	env.users.known[env.bob] = true
	env.users.known[env.eve] = true

	svc := services.NewConversationService(env.repo, env.users, noopNotifier{})
	convH := NewConversationHandler(svc)
	msgH := NewMessageHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetHeader("X-Test-User"))
		require.NoError(t, err)
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	})

	r.GET("/conversations", convH.List)
	r.POST("/conversations/private", convH.CreatePrivate)
	r.POST("/conversations/group", convH.CreateGroup)
	r.POST("/conversations/:id/join", convH.Join)
	r.POST("/conversations/:id/leave", convH.Leave)
	r.POST("/conversations/:id/messages", msgH.Send)
	r.GET("/conversations/:id/messages", msgH.GetHistory)
	r.POST("/conversations/:id/read", msgH.MarkRead)

	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, userID uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", userID.String())

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreatePrivateStatusCodes(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, env.alice, http.MethodPost, "/conversations/private", gin.H{"user_id": env.bob.String()})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, env.alice, http.MethodPost, "/conversations/private", gin.H{"user_id": env.alice.String()})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, env.alice, http.MethodPost, "/conversations/private", gin.H{"user_id": uuid.New().String()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, env.alice, http.MethodPost, "/conversations/private", gin.H{"user_id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateGroupReportsCreatedFlag(t *testing.T) {
	env := setupEnv(t)

	body := gin.H{"name": "team", "member_ids": []string{env.bob.String()}}

	w := env.do(t, env.alice, http.MethodPost, "/conversations/group", body)
	require.Equal(t, http.StatusOK, w.Code)

	var first map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, true, first["created"])

	w = env.do(t, env.alice, http.MethodPost, "/conversations/group", body)
	require.Equal(t, http.StatusOK, w.Code)

	var second map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, false, second["created"])
	assert.Equal(t, first["id"], second["id"])

	w = env.do(t, env.alice, http.MethodPost, "/conversations/group", gin.H{"name": "", "member_ids": []string{env.bob.String()}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeaveStatusCodes(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, env.alice, http.MethodPost, "/conversations/group", gin.H{"name": "team", "member_ids": []string{env.bob.String()}})
	require.Equal(t, http.StatusOK, w.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	convID := created["id"].(string)

	// Не участник — 400, а не 403: операция leave не имеет смысла без членства
	w = env.do(t, env.eve, http.MethodPost, "/conversations/"+convID+"/leave", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, env.bob, http.MethodPost, "/conversations/"+convID+"/leave", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSendAndHistoryStatusCodes(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, env.alice, http.MethodPost, "/conversations/private", gin.H{"user_id": env.bob.String()})
	require.Equal(t, http.StatusOK, w.Code)

	var conv map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	convID := conv["id"].(string)

	w = env.do(t, env.alice, http.MethodPost, "/conversations/"+convID+"/messages", gin.H{"content": "hello"})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Посторонний не может ни писать, ни читать
	w = env.do(t, env.eve, http.MethodPost, "/conversations/"+convID+"/messages", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, env.eve, http.MethodGet, "/conversations/"+convID+"/messages", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, env.bob, http.MethodGet, "/conversations/"+convID+"/messages", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, env.bob, http.MethodGet, "/conversations/"+convID+"/messages?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, env.bob, http.MethodGet, "/conversations/"+uuid.New().String()+"/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, env.bob, http.MethodPost, "/conversations/"+convID+"/messages", gin.H{"content": "x", "type": "sticker"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkReadStatusCodes(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, env.alice, http.MethodPost, "/conversations/private", gin.H{"user_id": env.bob.String()})
	require.Equal(t, http.StatusOK, w.Code)

	var conv map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	convID := conv["id"].(string)

	w = env.do(t, env.bob, http.MethodPost, "/conversations/"+convID+"/read", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, env.eve, http.MethodPost, "/conversations/"+convID+"/read", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
