package api

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shaiso/infra/internal/config"
	"github.com/shaiso/infra/internal/domain"
	"github.com/shaiso/infra/internal/repo"
)

// memStore — хранилище в памяти, реализующее все интерфейсы Handler.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	users   []domain.User
	subs    []domain.Subscription
	sources []domain.Source
	topics  []domain.Topic
	alerts  []domain.Alert

	lastFilter repo.SubscriptionFilter
	lastMute   time.Time
}

func newMemStore() *memStore {
	return &memStore{
		nextID: 100,
		users: []domain.User{
			{ID: 1, TgID: 123, PlanTier: domain.PlanTierFree},
			{ID: 2, TgID: 456, PlanTier: domain.PlanTierFree},
		},
		alerts: []domain.Alert{
			{ID: 10, DedupKey: "ingest:rss", Title: "RSS down", Message: "timeout", Severity: "warning", Status: domain.AlertStatusOpen},
		},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) user(id int64) *domain.User {
	for i := range m.users {
		if m.users[i].ID == id {
			return &m.users[i]
		}
	}
	return nil
}

// --- SubscriptionStore ---

func (m *memStore) List(ctx context.Context, f repo.SubscriptionFilter) ([]domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f

	out := []domain.Subscription{}
	for _, s := range m.subs {
		if f.PlanTier != "" && s.PlanTier != f.PlanTier {
			continue
		}
		if f.UserID != nil && s.UserID != *f.UserID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// resolve повторяет поиск пользователя репозитория: user_id, затем tg_id.
func (m *memStore) resolve(userID, tgID *int64) (*domain.User, error) {
	var u *domain.User
	if userID != nil {
		u = m.user(*userID)
		if u != nil && tgID != nil && u.TgID != *tgID {
			return nil, repo.ErrUserMismatch
		}
	}
	if u == nil && tgID != nil {
		for i := range m.users {
			if m.users[i].TgID == *tgID {
				u = &m.users[i]
			}
		}
	}
	if u == nil {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func (m *memStore) Assign(ctx context.Context, p repo.AssignParams) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := m.resolve(p.UserID, p.TgID)
	if err != nil {
		return nil, err
	}

	sub := domain.Subscription{
		ID:        m.id(),
		UserID:    u.ID,
		PlanTier:  p.PlanTier,
		Status:    p.Status,
		AmountRub: p.AmountRub,
		StartedAt: p.StartedAt,
		ExpiresAt: p.ExpiresAt,
		CreatedAt: p.StartedAt,
	}
	m.subs = append(m.subs, sub)
	u.PlanTier = p.PlanTier
	u.PlanExpiresAt = p.ExpiresAt
	return &sub, nil
}

func (m *memStore) Revoke(ctx context.Context, userID, tgID *int64) (*repo.RevokeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := m.resolve(userID, tgID)
	if err != nil {
		return nil, err
	}

	res := &repo.RevokeResult{}
	for i := range m.subs {
		if m.subs[i].UserID == u.ID && m.subs[i].Status == domain.SubscriptionStatusActive {
			m.subs[i].Status = domain.SubscriptionStatusCancelled
			res.Cancelled++
		}
	}
	u.PlanTier = domain.PlanTierFree
	u.PlanExpiresAt = nil
	res.User = *u
	return res, nil
}

func (m *memStore) Summary(ctx context.Context, from, to *time.Time, now time.Time) (*domain.FinancialSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = repo.SubscriptionFilter{From: from, To: to}

	s := &domain.FinancialSummary{ByTier: map[domain.PlanTier]domain.TierSummary{}}
	for _, sub := range m.subs {
		t := s.ByTier[sub.PlanTier]
		t.RevenueRub += sub.AmountRub
		t.Count++
		s.ByTier[sub.PlanTier] = t
		s.RevenueRub += sub.AmountRub
		s.PaymentsCount++
		if sub.IsActiveAt(now) {
			s.ActiveSubscriptionsCount++
		}
	}
	s.NewSubscriptionsCount = s.PaymentsCount
	return s, nil
}

// --- StatsStore ---

func (m *memStore) Overview(ctx context.Context) (*domain.Overview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &domain.Overview{Users: int64(len(m.users)), Topics: int64(len(m.topics)), Sources: int64(len(m.sources))}
	for _, a := range m.alerts {
		if a.Status == domain.AlertStatusOpen {
			o.AlertsOpen++
		}
	}
	return o, nil
}

// Адаптеры memStore для остальных сущностей.
type sourceStore struct{ m *memStore }

func (s sourceStore) List(ctx context.Context) ([]domain.Source, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return append([]domain.Source{}, s.m.sources...), nil
}

func (s sourceStore) GetByID(ctx context.Context, id int64) (*domain.Source, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i := range s.m.sources {
		if s.m.sources[i].ID == id {
			src := s.m.sources[i]
			return &src, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s sourceStore) Create(ctx context.Context, src *domain.Source) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.sources {
		if existing.Name == src.Name {
			return repo.ErrAlreadyExists
		}
	}
	src.ID = s.m.id()
	src.CreatedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.m.sources = append(s.m.sources, *src)
	return nil
}

func (s sourceStore) Update(ctx context.Context, id int64, p repo.SourcePatch) (*domain.Source, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i := range s.m.sources {
		if s.m.sources[i].ID != id {
			continue
		}
		src := &s.m.sources[i]
		if p.Name != nil {
			src.Name = *p.Name
		}
		if p.TrustManual != nil {
			src.TrustManual = *p.TrustManual
		}
		if p.URL != nil {
			src.URL = p.URL
		}
		out := *src
		return &out, nil
	}
	return nil, repo.ErrNotFound
}

func (s sourceStore) Delete(ctx context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i := range s.m.sources {
		if s.m.sources[i].ID == id {
			s.m.sources = append(s.m.sources[:i], s.m.sources[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

type topicStore struct{ m *memStore }

func (t topicStore) List(ctx context.Context) ([]domain.Topic, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	return append([]domain.Topic{}, t.m.topics...), nil
}

func (t topicStore) Create(ctx context.Context, topic *domain.Topic) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	topic.ID = t.m.id()
	t.m.topics = append(t.m.topics, *topic)
	return nil
}

func (t topicStore) Update(ctx context.Context, id int64, p repo.TopicPatch) (*domain.Topic, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for i := range t.m.topics {
		if t.m.topics[i].ID == id {
			if p.Name != nil {
				t.m.topics[i].Name = *p.Name
			}
			if p.Description != nil {
				t.m.topics[i].Description = p.Description
			}
			out := t.m.topics[i]
			return &out, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (t topicStore) Delete(ctx context.Context, id int64) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for i := range t.m.topics {
		if t.m.topics[i].ID == id {
			t.m.topics = append(t.m.topics[:i], t.m.topics[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

type alertStore struct{ m *memStore }

func (a alertStore) find(id int64) *domain.Alert {
	for i := range a.m.alerts {
		if a.m.alerts[i].ID == id {
			return &a.m.alerts[i]
		}
	}
	return nil
}

func (a alertStore) List(ctx context.Context) ([]domain.Alert, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	return append([]domain.Alert{}, a.m.alerts...), nil
}

func (a alertStore) Ack(ctx context.Context, id int64) (*domain.Alert, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	al := a.find(id)
	if al == nil {
		return nil, repo.ErrNotFound
	}
	al.Acknowledged = true
	out := *al
	return &out, nil
}

func (a alertStore) Mute(ctx context.Context, id int64, until time.Time) (*domain.Alert, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	al := a.find(id)
	if al == nil {
		return nil, repo.ErrNotFound
	}
	a.m.lastMute = until
	al.MutedUntil = &until
	out := *al
	return &out, nil
}

func (a alertStore) Resolve(ctx context.Context, id int64, message string) (*domain.Alert, *domain.Alert, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	al := a.find(id)
	if al == nil {
		return nil, nil, repo.ErrNotFound
	}
	al.Status = domain.AlertStatusResolved
	out := *al
	resolved := domain.Alert{
		ID:       a.m.id(),
		DedupKey: al.DedupKey,
		Title:    repo.ResolvedTitle,
		Message:  message,
		Severity: "info",
		Status:   domain.AlertStatusResolved,
	}
	a.m.alerts = append(a.m.alerts, resolved)
	return &out, &resolved, nil
}

// fakePublisher записывает опубликованные события.
type fakePublisher struct {
	mu       sync.Mutex
	subs     []domain.Subscription
	resolved []domain.Alert
	err      error
}

func (p *fakePublisher) PublishSubscriptionCreated(ctx context.Context, sub *domain.Subscription) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, *sub)
	return p.err
}

func (p *fakePublisher) PublishAlertResolved(ctx context.Context, resolved *domain.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = append(p.resolved, *resolved)
	return p.err
}

func (p *fakePublisher) counts() (subs, resolved int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs), len(p.resolved)
}

var testNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

const (
	testUsername = "admin"
	testPassword = "s3cret-password"
	testSecret   = "0123456789abcdef0123456789abcdef"
)

type testEnv struct {
	store     *memStore
	publisher *fakePublisher
	handler   *Handler
}

func newTestEnv(mutate func(*Config)) *testEnv {
	store := newMemStore()
	pub := &fakePublisher{}
	cfg := Config{
		Sources:       sourceStore{store},
		Topics:        topicStore{store},
		Alerts:        alertStore{store},
		Subscriptions: store,
		Stats:         store,
		Publisher:     pub,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Auth: config.AdminAuth{
			Username:  testUsername,
			Password:  testPassword,
			JWTSecret: testSecret,
			JWTTTLMin: 120,
		},
		Origins: []string{"http://localhost:8080"},
		Now:     func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return &testEnv{store: store, publisher: pub, handler: NewHandler(cfg)}
}
