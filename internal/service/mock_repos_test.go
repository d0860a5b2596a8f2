package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"campus-hub/backend/internal/model"
	"campus-hub/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	order []string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.order)+1)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	cp := *user
	m.users[user.UserID] = &cp
	m.order = append(m.order, user.UserID)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) List(_ context.Context, keyword string, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, id := range m.order {
		u := m.users[id]
		if keyword != "" && !strings.Contains(u.Name, keyword) && !strings.Contains(u.Email, keyword) {
			continue
		}
		all = append(all, *u)
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock NotificationTypeRepository ──

type mockNotificationTypeRepo struct {
	types map[string]*model.NotificationType
}

func newMockNotificationTypeRepo() *mockNotificationTypeRepo {
	return &mockNotificationTypeRepo{types: make(map[string]*model.NotificationType)}
}

func (m *mockNotificationTypeRepo) Create(_ context.Context, t *model.NotificationType) error {
	if t.NotificationTypeID == "" {
		t.NotificationTypeID = "type-" + t.Code
	}
	cp := *t
	m.types[t.NotificationTypeID] = &cp
	return nil
}

func (m *mockNotificationTypeRepo) GetByID(_ context.Context, id string) (*model.NotificationType, error) {
	if t, ok := m.types[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationTypeRepo) GetByCode(_ context.Context, code string) (*model.NotificationType, error) {
	for _, t := range m.types {
		if t.Code == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationTypeRepo) List(_ context.Context, includeInactive bool) ([]model.NotificationType, error) {
	var result []model.NotificationType
	for _, t := range m.types {
		if !includeInactive && !t.IsActive {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockNotificationTypeRepo) Update(_ context.Context, t *model.NotificationType) error {
	cp := *t
	m.types[t.NotificationTypeID] = &cp
	return nil
}

// ── Mock NotificationTemplateRepository ──

type mockNotificationTemplateRepo struct {
	templates map[string]*model.NotificationTemplate
}

func newMockNotificationTemplateRepo() *mockNotificationTemplateRepo {
	return &mockNotificationTemplateRepo{templates: make(map[string]*model.NotificationTemplate)}
}

func (m *mockNotificationTemplateRepo) GetByTypeID(_ context.Context, typeID string) (*model.NotificationTemplate, error) {
	if t, ok := m.templates[typeID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationTemplateRepo) Upsert(_ context.Context, tpl *model.NotificationTemplate) error {
	cp := *tpl
	m.templates[tpl.NotificationTypeID] = &cp
	return nil
}

// ── Mock PreferenceRepository ──

type mockPreferenceRepo struct {
	prefs      map[string]*model.UserNotificationPreference
	users      *mockUserRepo
	batchCalls int
}

func newMockPreferenceRepo(users *mockUserRepo) *mockPreferenceRepo {
	return &mockPreferenceRepo{prefs: make(map[string]*model.UserNotificationPreference), users: users}
}

func prefKey(userID, typeID string) string { return userID + "|" + typeID }

func (m *mockPreferenceRepo) Get(_ context.Context, userID, typeID string) (*model.UserNotificationPreference, error) {
	if p, ok := m.prefs[prefKey(userID, typeID)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPreferenceRepo) ListByUser(_ context.Context, userID string) ([]model.UserNotificationPreference, error) {
	var result []model.UserNotificationPreference
	for _, p := range m.prefs {
		if p.UserID == userID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPreferenceRepo) Upsert(_ context.Context, pref *model.UserNotificationPreference) error {
	cp := *pref
	m.prefs[prefKey(pref.UserID, pref.NotificationTypeID)] = &cp
	return nil
}

func (m *mockPreferenceRepo) BatchCreate(_ context.Context, prefs []model.UserNotificationPreference) error {
	m.batchCalls++
	for i := range prefs {
		key := prefKey(prefs[i].UserID, prefs[i].NotificationTypeID)
		if _, ok := m.prefs[key]; ok {
			continue
		}
		cp := prefs[i]
		m.prefs[key] = &cp
	}
	return nil
}

func (m *mockPreferenceRepo) ListUserIDsMissing(_ context.Context, typeID string) ([]string, error) {
	var ids []string
	for _, id := range m.users.order {
		if _, ok := m.prefs[prefKey(id, typeID)]; !ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items map[string]*model.Notification
	order []string
	types *mockNotificationTypeRepo
}

func newMockNotificationRepo(types *mockNotificationTypeRepo) *mockNotificationRepo {
	return &mockNotificationRepo{items: make(map[string]*model.Notification), types: types}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = fmt.Sprintf("n-%d", len(m.order)+1)
	}
	if n.Status == "" {
		n.Status = model.StatusUnread
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	m.items[n.NotificationID] = &cp
	m.order = append(m.order, n.NotificationID)
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id string) (*model.Notification, error) {
	if n, ok := m.items[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) Update(_ context.Context, n *model.Notification) error {
	cp := *n
	m.items[n.NotificationID] = &cp
	return nil
}

func (m *mockNotificationRepo) byUser(userID string) []*model.Notification {
	var result []*model.Notification
	for _, id := range m.order {
		if n := m.items[id]; n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID, status string, offset, limit int) ([]model.Notification, int64, error) {
	var all []model.Notification
	for _, n := range m.byUser(userID) {
		if status != "" && string(n.Status) != status {
			continue
		}
		if status == "" && n.Status == model.StatusArchived {
			continue
		}
		all = append(all, *n)
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.byUser(userID) {
		if n.Status == model.StatusUnread {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string, now time.Time) (int64, error) {
	var affected int64
	for _, n := range m.byUser(userID) {
		if n.Status == model.StatusUnread {
			n.Status = model.StatusRead
			t := now
			n.ReadAt = &t
			affected++
		}
	}
	return affected, nil
}

func (m *mockNotificationRepo) ArchiveAllRead(_ context.Context, userID string, now time.Time) (int64, error) {
	var affected int64
	for _, n := range m.byUser(userID) {
		if n.Status == model.StatusRead {
			n.Status = model.StatusArchived
			t := now
			n.ArchivedAt = &t
			affected++
		}
	}
	return affected, nil
}

func (m *mockNotificationRepo) MarkDelivered(_ context.Context, id string, email, push bool) error {
	n, ok := m.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if email {
		n.SentByEmail = true
	}
	if push {
		n.SentByPush = true
	}
	return nil
}

func (m *mockNotificationRepo) StatsByType(_ context.Context, from, to *time.Time) ([]repository.NotificationStat, error) {
	byCode := make(map[string]*repository.NotificationStat)
	var codes []string
	for _, id := range m.order {
		n := m.items[id]
		if from != nil && n.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !n.CreatedAt.Before(*to) {
			continue
		}
		code, name := "", ""
		if n.NotificationTypeID != nil {
			if t, ok := m.types.types[*n.NotificationTypeID]; ok {
				code, name = t.Code, t.Name
			}
		}
		st, ok := byCode[code]
		if !ok {
			st = &repository.NotificationStat{TypeCode: code, TypeName: name}
			byCode[code] = st
			codes = append(codes, code)
		}
		st.Total++
		switch n.Status {
		case model.StatusUnread:
			st.Unread++
		case model.StatusRead:
			st.Read++
		case model.StatusArchived:
			st.Archived++
		}
		if n.SentByEmail {
			st.SentByEmail++
		}
		if n.SentByPush {
			st.SentByPush++
		}
	}
	sort.Strings(codes)
	result := make([]repository.NotificationStat, 0, len(codes))
	for _, c := range codes {
		result = append(result, *byCode[c])
	}
	return result, nil
}

// ── Mock DeviceTokenRepository ──

type mockDeviceTokenRepo struct {
	tokens  map[string]*model.DeviceToken
	order   []string
	touched map[string]time.Time
}

func newMockDeviceTokenRepo() *mockDeviceTokenRepo {
	return &mockDeviceTokenRepo{tokens: make(map[string]*model.DeviceToken), touched: make(map[string]time.Time)}
}

func (m *mockDeviceTokenRepo) Create(_ context.Context, d *model.DeviceToken) error {
	if d.DeviceTokenID == "" {
		d.DeviceTokenID = fmt.Sprintf("dev-%d", len(m.order)+1)
	}
	cp := *d
	m.tokens[d.DeviceTokenID] = &cp
	m.order = append(m.order, d.DeviceTokenID)
	return nil
}

func (m *mockDeviceTokenRepo) GetByUserAndToken(_ context.Context, userID, token string) (*model.DeviceToken, error) {
	for _, d := range m.tokens {
		if d.UserID == userID && d.Token == token {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeviceTokenRepo) Update(_ context.Context, d *model.DeviceToken) error {
	cp := *d
	m.tokens[d.DeviceTokenID] = &cp
	return nil
}

func (m *mockDeviceTokenRepo) ListActiveByUser(_ context.Context, userID string) ([]model.DeviceToken, error) {
	var result []model.DeviceToken
	for _, id := range m.order {
		if d := m.tokens[id]; d.UserID == userID && d.IsActive {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDeviceTokenRepo) Deactivate(_ context.Context, userID, token string) (int64, error) {
	for _, d := range m.tokens {
		if d.UserID == userID && d.Token == token {
			d.IsActive = false
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockDeviceTokenRepo) DeactivateByID(_ context.Context, id string) error {
	if d, ok := m.tokens[id]; ok {
		d.IsActive = false
	}
	return nil
}

func (m *mockDeviceTokenRepo) TouchLastUsed(_ context.Context, id string, now time.Time) error {
	if d, ok := m.tokens[id]; ok {
		t := now
		d.LastUsedAt = &t
		m.touched[id] = now
	}
	return nil
}

// ── Mock ConversationRepository ──

type mockConversationRepo struct {
	convs        map[string]*model.Conversation
	participants []*model.ConversationParticipant
}

func newMockConversationRepo() *mockConversationRepo {
	return &mockConversationRepo{convs: make(map[string]*model.Conversation)}
}

func (m *mockConversationRepo) Create(_ context.Context, conv *model.Conversation) error {
	if conv.ConversationID == "" {
		conv.ConversationID = fmt.Sprintf("conv-%d", len(m.convs)+1)
	}
	cp := *conv
	cp.Participants = nil
	m.convs[conv.ConversationID] = &cp
	return nil
}

func (m *mockConversationRepo) GetByID(_ context.Context, id string) (*model.Conversation, error) {
	c, ok := m.convs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	for _, p := range m.participants {
		if p.ConversationID == id {
			cp.Participants = append(cp.Participants, *p)
		}
	}
	return &cp, nil
}

func (m *mockConversationRepo) AddParticipants(_ context.Context, participants []model.ConversationParticipant) error {
	for i := range participants {
		if participants[i].ParticipantID == "" {
			participants[i].ParticipantID = fmt.Sprintf("part-%d", len(m.participants)+1)
		}
		cp := participants[i]
		m.participants = append(m.participants, &cp)
	}
	return nil
}

func (m *mockConversationRepo) find(conversationID, userID string) *model.ConversationParticipant {
	for _, p := range m.participants {
		if p.ConversationID == conversationID && p.UserID == userID {
			return p
		}
	}
	return nil
}

func (m *mockConversationRepo) GetParticipant(_ context.Context, conversationID, userID string) (*model.ConversationParticipant, error) {
	if p := m.find(conversationID, userID); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockConversationRepo) UpdateParticipant(_ context.Context, p *model.ConversationParticipant) error {
	if existing := m.find(p.ConversationID, p.UserID); existing != nil {
		*existing = *p
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockConversationRepo) ListNotifiableParticipants(_ context.Context, conversationID, excludeUserID string) ([]model.ConversationParticipant, error) {
	var result []model.ConversationParticipant
	for _, p := range m.participants {
		if p.ConversationID != conversationID || !p.NotifyOnNewMessage || p.IsMuted || p.UserID == excludeUserID {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockConversationRepo) SetLastReadAt(_ context.Context, conversationID, userID string, at time.Time) error {
	if p := m.find(conversationID, userID); p != nil {
		t := at
		p.LastReadAt = &t
	}
	return nil
}

// ── Mock MessageRepository ──

type mockMessageRepo struct {
	messages []*model.Message
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{}
}

func (m *mockMessageRepo) Create(_ context.Context, msg *model.Message) error {
	if msg.MessageID == "" {
		msg.MessageID = fmt.Sprintf("msg-%d", len(m.messages)+1)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *mockMessageRepo) ListByConversation(_ context.Context, conversationID string, offset, limit int) ([]model.Message, int64, error) {
	var all []model.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].ConversationID == conversationID {
			all = append(all, *m.messages[i])
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockMessageRepo) CountUnread(_ context.Context, conversationID, userID string, since *time.Time) (int64, error) {
	var count int64
	for _, msg := range m.messages {
		if msg.ConversationID != conversationID {
			continue
		}
		if msg.SenderID != nil && *msg.SenderID == userID {
			continue
		}
		if since != nil && !msg.CreatedAt.After(*since) {
			continue
		}
		count++
	}
	return count, nil
}

// ── Mock TopicRepository / PostRepository / SubscriptionRepository ──

type mockTopicRepo struct {
	topics map[string]*model.Topic
}

func newMockTopicRepo() *mockTopicRepo {
	return &mockTopicRepo{topics: make(map[string]*model.Topic)}
}

func (m *mockTopicRepo) Create(_ context.Context, topic *model.Topic) error {
	if topic.TopicID == "" {
		topic.TopicID = fmt.Sprintf("topic-%d", len(m.topics)+1)
	}
	cp := *topic
	m.topics[topic.TopicID] = &cp
	return nil
}

func (m *mockTopicRepo) GetByID(_ context.Context, id string) (*model.Topic, error) {
	if t, ok := m.topics[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockPostRepo struct {
	posts []*model.Post
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{}
}

func (m *mockPostRepo) Create(_ context.Context, post *model.Post) error {
	if post.PostID == "" {
		post.PostID = fmt.Sprintf("post-%d", len(m.posts)+1)
	}
	cp := *post
	m.posts = append(m.posts, &cp)
	return nil
}

func (m *mockPostRepo) ListByTopic(_ context.Context, topicID string, offset, limit int) ([]model.Post, int64, error) {
	var all []model.Post
	for _, p := range m.posts {
		if p.TopicID == topicID {
			all = append(all, *p)
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

type mockSubscriptionRepo struct {
	subs []*model.TopicSubscription
}

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{}
}

func (m *mockSubscriptionRepo) find(topicID, userID string) (int, *model.TopicSubscription) {
	for i, s := range m.subs {
		if s.TopicID == topicID && s.UserID == userID {
			return i, s
		}
	}
	return -1, nil
}

func (m *mockSubscriptionRepo) Get(_ context.Context, topicID, userID string) (*model.TopicSubscription, error) {
	if _, s := m.find(topicID, userID); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubscriptionRepo) Upsert(_ context.Context, sub *model.TopicSubscription) error {
	if _, s := m.find(sub.TopicID, sub.UserID); s != nil {
		s.NotifyOnNewPost = sub.NotifyOnNewPost
		return nil
	}
	if sub.SubscriptionID == "" {
		sub.SubscriptionID = fmt.Sprintf("sub-%d", len(m.subs)+1)
	}
	cp := *sub
	m.subs = append(m.subs, &cp)
	return nil
}

func (m *mockSubscriptionRepo) Update(_ context.Context, sub *model.TopicSubscription) error {
	if _, s := m.find(sub.TopicID, sub.UserID); s != nil {
		*s = *sub
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockSubscriptionRepo) Delete(_ context.Context, topicID, userID string) (int64, error) {
	i, s := m.find(topicID, userID)
	if s == nil {
		return 0, nil
	}
	m.subs = append(m.subs[:i], m.subs[i+1:]...)
	return 1, nil
}

// ListNotifiable 与 SQL 实现不同：不做唯一约束，便于构造重复订阅验证去重
func (m *mockSubscriptionRepo) ListNotifiable(_ context.Context, topicID, excludeUserID string) ([]model.TopicSubscription, error) {
	var result []model.TopicSubscription
	for _, s := range m.subs {
		if s.TopicID != topicID || !s.NotifyOnNewPost || s.UserID == excludeUserID {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

// ── 通用 ──

func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
