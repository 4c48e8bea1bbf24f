package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/infra/internal/domain"
	"github.com/shaiso/infra/internal/repo"
	"github.com/shaiso/infra/internal/telemetry"
)

const (
	msgSourceNotFound = "Источник не найден."
	msgTopicNotFound  = "Тема не найдена."
	msgAlertNotFound  = "Алерт не найден."
	msgNameRequired   = "Укажите название."

	resolvedManually = "Алерт закрыт вручную."
)

// parseID читает положительный числовой {id} из пути.
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Overview возвращает счётчики главной страницы.
// GET /api/admin/overview
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.stats.Overview(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	Success(w, o)
}

// --- Sources ---

// ListSources возвращает все источники.
// GET /api/admin/sources
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sources.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	Success(w, sources)
}

// CreateSource создаёт источник.
// POST /api/admin/sources
func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req CreateSourceRequest
	if err := decodeJSON(r, &req, false); err != nil {
		Unprocessable(w, msgInvalidBody)
		return
	}

	source := req.ToDomain()
	if source.Name == "" {
		Unprocessable(w, msgNameRequired)
		return
	}

	if err := h.sources.Create(r.Context(), source); HandleRepoError(w, h.logger, err, "") {
		return
	}
	Created(w, source)
}

// UpdateSource частично обновляет источник.
// PUT /api/admin/sources/{id}
func (h *Handler) UpdateSource(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		BadRequest(w, msgInvalidID)
		return
	}

	var req UpdateSourceRequest
	if err := decodeJSON(r, &req, false); err != nil {
		Unprocessable(w, msgInvalidBody)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		Unprocessable(w, msgNameRequired)
		return
	}

	source, err := h.sources.Update(r.Context(), id, req.ToPatch())
	if HandleRepoError(w, h.logger, err, msgSourceNotFound) {
		return
	}
	Success(w, source)
}

// DeleteSource удаляет источник.
// DELETE /api/admin/sources/{id}
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		BadRequest(w, msgInvalidID)
		return
	}

	if err := h.sources.Delete(r.Context(), id); HandleRepoError(w, h.logger, err, msgSourceNotFound) {
		return
	}
	Success(w, MessageResponse{Message: "Источник удалён."})
}

// SourceState возвращает состояние ингестии источника.
// GET /api/admin/sources/{id}/state
func (h *Handler) SourceState(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		BadRequest(w, msgInvalidID)
		return
	}

	source, err := h.sources.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, msgSourceNotFound) {
		return
	}

	state := source.State
	if state == nil {
		state = map[string]any{}
	}
	Success(w, SourceStateResponse{ID: source.ID, State: state})
}

// --- Topics ---

// ListTopics возвращает все темы.
// GET /api/admin/topics
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.topics.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	Success(w, topics)
}

// CreateTopic создаёт тему.
// POST /api/admin/topics
func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req CreateTopicRequest
	if err := decodeJSON(r, &req, false); err != nil {
		Unprocessable(w, msgInvalidBody)
		return
	}

	topic := &domain.Topic{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if topic.Name == "" {
		Unprocessable(w, msgNameRequired)
		return
	}

	if err := h.topics.Create(r.Context(), topic); HandleRepoError(w, h.logger, err, "") {
		return
	}
	Created(w, topic)
}

// UpdateTopic частично обновляет тему.
// PUT /api/admin/topics/{id}
func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		BadRequest(w, msgInvalidID)
		return
	}

	var req UpdateTopicRequest
	if err := decodeJSON(r, &req, false); err != nil {
		Unprocessable(w, msgInvalidBody)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		Unprocessable(w, msgNameRequired)
		return
	}

	topic, err := h.topics.Update(r.Context(), id, repo.TopicPatch{Name: req.Name, Description: req.Description})
	if HandleRepoError(w, h.logger, err, msgTopicNotFound) {
		return
	}
	Success(w, topic)
}

// DeleteTopic удаляет тему.
// DELETE /api/admin/topics/{id}
func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		BadRequest(w, msgInvalidID)
		return
	}

	if err := h.topics.Delete(r.Context(), id); HandleRepoError(w, h.logger, err, msgTopicNotFound) {
		return
	}
	Success(w, MessageResponse{Message: "Тема удалена."})
}

// --- Alerts ---

// ListAlerts возвращает алерты, новые первыми.
// GET /api/admin/alerts
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	Success(w, alerts)
}

// AckAlert помечает алерт просмотренным.
// POST /api/admin/alerts/{id}/ack
func (h *Handler) AckAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		BadRequest(w, msgInvalidID)
		return
	}

	alert, err := h.alerts.Ack(r.Context(), id)
	if HandleRepoError(w, h.logger, err, msgAlertNotFound) {
		return
	}
	Success(w, alert)
}

// MuteAlert заглушает алерт. Без тела — на DefaultMuteMinutes минут.
// POST /api/admin/alerts/{id}/mute
func (h *Handler) MuteAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		BadRequest(w, msgInvalidID)
		return
	}

	var req MuteAlertRequest
	if err := decodeJSON(r, &req, true); err != nil {
		Unprocessable(w, msgInvalidBody)
		return
	}
	minutes := domain.DefaultMuteMinutes
	if req.Minutes != nil {
		minutes = *req.Minutes
	}
	if minutes <= 0 {
		Unprocessable(w, "Длительность должна быть положительной.")
		return
	}

	until := h.now().UTC().Add(time.Duration(minutes) * time.Minute)
	alert, err := h.alerts.Mute(r.Context(), id, until)
	if HandleRepoError(w, h.logger, err, msgAlertNotFound) {
		return
	}
	Success(w, alert)
}

// ResolveAlert закрывает алерт и публикует alert.resolved.
// POST /api/admin/alerts/{id}/resolve
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		BadRequest(w, msgInvalidID)
		return
	}

	alert, resolved, err := h.alerts.Resolve(r.Context(), id, resolvedManually)
	if HandleRepoError(w, h.logger, err, msgAlertNotFound) {
		return
	}

	h.publish(r.Context(), "alert.resolved", func(ctx context.Context) error {
		return h.publisher.PublishAlertResolved(ctx, resolved)
	})
	Success(w, alert)
}

// publish отправляет событие, если publisher настроен. Ошибка только
// логируется: запись в БД уже выполнена.
func (h *Handler) publish(ctx context.Context, event string, fn func(ctx context.Context) error) {
	if h.publisher == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		telemetry.FromContext(ctx).Warn("failed to publish event", "event", event, "error", err)
	}
}
