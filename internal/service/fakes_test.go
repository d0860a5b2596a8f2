package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"campus-hub/backend/internal/model"
	"campus-hub/backend/internal/repository"
	"campus-hub/backend/pkg/mailer"
	"campus-hub/backend/pkg/push"
)

// ── 传输层替身 ──

type fakeMailer struct {
	sent []*mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg *mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakePush struct {
	sent       []*push.Message
	errByToken map[string]error
}

func newFakePush() *fakePush {
	return &fakePush{errByToken: make(map[string]error)}
}

func (f *fakePush) Send(_ context.Context, msg *push.Message) error {
	if err := f.errByToken[msg.Token]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeCache struct {
	counts      map[string]int64
	invalidated int
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{counts: make(map[string]int64)}
}

func (f *fakeCache) GetUnreadCount(_ context.Context, userID string) (int64, bool, error) {
	if f.getErr != nil {
		return 0, false, f.getErr
	}
	c, ok := f.counts[userID]
	return c, ok, nil
}

func (f *fakeCache) SetUnreadCount(_ context.Context, userID string, count int64) error {
	f.counts[userID] = count
	return nil
}

func (f *fakeCache) InvalidateUnreadCount(_ context.Context, userID string) error {
	f.invalidated++
	delete(f.counts, userID)
	return nil
}

// recordingSink 记录扇出调用，可按用户注入错误或 panic
type recordingSink struct {
	calls    []*CreateNotificationInput
	errFor   map[string]error
	panicFor map[string]bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{errFor: make(map[string]error), panicFor: make(map[string]bool)}
}

func (s *recordingSink) Notify(_ context.Context, in *CreateNotificationInput) error {
	if s.panicFor[in.UserID] {
		panic("sink exploded")
	}
	if err := s.errFor[in.UserID]; err != nil {
		return err
	}
	s.calls = append(s.calls, in)
	return nil
}

func (s *recordingSink) userIDs() []string {
	ids := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		ids = append(ids, c.UserID)
	}
	return ids
}

var errBoom = errors.New("boom")

// ── 测试环境 ──

type testEnv struct {
	repo *repository.Repository

	users         *mockUserRepo
	types         *mockNotificationTypeRepo
	templates     *mockNotificationTemplateRepo
	prefs         *mockPreferenceRepo
	notifications *mockNotificationRepo
	devices       *mockDeviceTokenRepo
	convs         *mockConversationRepo
	messages      *mockMessageRepo
	topics        *mockTopicRepo
	posts         *mockPostRepo
	subs          *mockSubscriptionRepo

	mail   *fakeMailer
	push   *fakePush
	cache  *fakeCache
	logger *zap.Logger
}

func newTestEnv() *testEnv {
	users := newMockUserRepo()
	types := newMockNotificationTypeRepo()
	e := &testEnv{
		users:         users,
		types:         types,
		templates:     newMockNotificationTemplateRepo(),
		prefs:         newMockPreferenceRepo(users),
		notifications: newMockNotificationRepo(types),
		devices:       newMockDeviceTokenRepo(),
		convs:         newMockConversationRepo(),
		messages:      newMockMessageRepo(),
		topics:        newMockTopicRepo(),
		posts:         newMockPostRepo(),
		subs:          newMockSubscriptionRepo(),
		mail:          &fakeMailer{},
		push:          newFakePush(),
		cache:         newFakeCache(),
		logger:        zap.NewNop(),
	}
	e.repo = &repository.Repository{
		User:                 e.users,
		NotificationType:     e.types,
		NotificationTemplate: e.templates,
		Preference:           e.prefs,
		Notification:         e.notifications,
		DeviceToken:          e.devices,
		Conversation:         e.convs,
		Message:              e.messages,
		Topic:                e.topics,
		Post:                 e.posts,
		Subscription:         e.subs,
	}
	return e
}

// seedBuiltinTypes 写入内置的 new_message / forum_new_post
func (e *testEnv) seedBuiltinTypes() {
	for _, t := range model.BuiltinNotificationTypes() {
		t := t
		_ = e.types.Create(context.Background(), &t)
	}
}

func (e *testEnv) addType(t model.NotificationType) *model.NotificationType {
	_ = e.types.Create(context.Background(), &t)
	return &t
}

func (e *testEnv) typeByCode(code string) *model.NotificationType {
	t, err := e.types.GetByCode(context.Background(), code)
	if err != nil {
		panic(fmt.Sprintf("type %s not seeded", code))
	}
	return t
}

func (e *testEnv) addUser(id, name string) *model.User {
	u := &model.User{
		UserID:   id,
		Name:     name,
		Email:    id + "@example.com",
		Role:     model.RoleMember,
		IsActive: true,
	}
	_ = e.users.Create(context.Background(), u)
	return u
}

func (e *testEnv) addDevice(userID, token, platform string) *model.DeviceToken {
	d := &model.DeviceToken{UserID: userID, Token: token, Platform: platform, IsActive: true}
	_ = e.devices.Create(context.Background(), d)
	return d
}

func (e *testEnv) deliverer() *Deliverer {
	return NewDeliverer(e.repo, e.mail, e.push, "https://campus.example.com", e.logger)
}

func (e *testEnv) notificationService() *notificationService {
	return NewNotificationService(e.repo, e.deliverer(), e.cache, e.logger).(*notificationService)
}

func (e *testEnv) fanout(sink NotificationSink) *FanoutCoordinator {
	return NewFanoutCoordinator(e.repo, sink, e.logger)
}

// fixedClock 返回一个可推进的时钟
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func boolPtr(b bool) *bool { return &b }
