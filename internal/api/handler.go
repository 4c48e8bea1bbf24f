package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/infra/internal/auth"
	"github.com/shaiso/infra/internal/config"
	"github.com/shaiso/infra/internal/domain"
	"github.com/shaiso/infra/internal/repo"
)

// SourceStore — хранилище источников.
type SourceStore interface {
	List(ctx context.Context) ([]domain.Source, error)
	GetByID(ctx context.Context, id int64) (*domain.Source, error)
	Create(ctx context.Context, s *domain.Source) error
	Update(ctx context.Context, id int64, p repo.SourcePatch) (*domain.Source, error)
	Delete(ctx context.Context, id int64) error
}

// TopicStore — хранилище тем.
type TopicStore interface {
	List(ctx context.Context) ([]domain.Topic, error)
	Create(ctx context.Context, t *domain.Topic) error
	Update(ctx context.Context, id int64, p repo.TopicPatch) (*domain.Topic, error)
	Delete(ctx context.Context, id int64) error
}

// AlertStore — хранилище алертов.
type AlertStore interface {
	List(ctx context.Context) ([]domain.Alert, error)
	Ack(ctx context.Context, id int64) (*domain.Alert, error)
	Mute(ctx context.Context, id int64, until time.Time) (*domain.Alert, error)
	Resolve(ctx context.Context, id int64, message string) (*domain.Alert, *domain.Alert, error)
}

// SubscriptionStore — хранилище подписок.
type SubscriptionStore interface {
	List(ctx context.Context, f repo.SubscriptionFilter) ([]domain.Subscription, error)
	Assign(ctx context.Context, p repo.AssignParams) (*domain.Subscription, error)
	Revoke(ctx context.Context, userID, tgID *int64) (*repo.RevokeResult, error)
	Summary(ctx context.Context, from, to *time.Time, now time.Time) (*domain.FinancialSummary, error)
}

// StatsStore — агрегаты главной страницы.
type StatsStore interface {
	Overview(ctx context.Context) (*domain.Overview, error)
}

// EventPublisher публикует события админки. Ошибка публикации
// не отменяет запрос.
type EventPublisher interface {
	PublishSubscriptionCreated(ctx context.Context, sub *domain.Subscription) error
	PublishAlertResolved(ctx context.Context, resolved *domain.Alert) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	sources       SourceStore
	topics        TopicStore
	alerts        AlertStore
	subscriptions SubscriptionStore
	stats         StatsStore
	publisher     EventPublisher
	logger        *slog.Logger

	auth    config.AdminAuth
	tokens  *auth.TokenIssuer
	prod    bool
	origins map[string]struct{}
	now     func() time.Time
}

// Config — конфигурация для создания Handler.
type Config struct {
	Sources       SourceStore
	Topics        TopicStore
	Alerts        AlertStore
	Subscriptions SubscriptionStore
	Stats         StatsStore
	Publisher     EventPublisher // опционально
	Logger        *slog.Logger

	Auth    config.AdminAuth
	Prod    bool
	Origins []string
	Now     func() time.Time
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	origins := make(map[string]struct{}, len(cfg.Origins))
	for _, o := range cfg.Origins {
		origins[o] = struct{}{}
	}

	ttl := time.Duration(cfg.Auth.JWTTTLMin) * time.Minute

	return &Handler{
		sources:       cfg.Sources,
		topics:        cfg.Topics,
		alerts:        cfg.Alerts,
		subscriptions: cfg.Subscriptions,
		stats:         cfg.Stats,
		publisher:     cfg.Publisher,
		logger:        cfg.Logger,
		auth:          cfg.Auth,
		tokens:        auth.NewTokenIssuer(cfg.Auth.JWTSecret, ttl, now),
		prod:          cfg.Prod,
		origins:       origins,
		now:           now,
	}
}
