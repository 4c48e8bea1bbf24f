package client

import (
	"context"
	"strconv"
)

// --- Overview ---

// Overview возвращает счётчики главной страницы.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	if err := c.get(ctx, "/api/admin/overview", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// --- Sources ---

// ListSources возвращает все источники.
func (c *Client) ListSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	err := c.get(ctx, "/api/admin/sources", nil, &sources)
	return sources, err
}

// CreateSource создаёт источник.
func (c *Client) CreateSource(ctx context.Context, req SourceCreate) (*Source, error) {
	var source Source
	if err := c.post(ctx, "/api/admin/sources", req, &source); err != nil {
		return nil, err
	}
	return &source, nil
}

// UpdateSource обновляет источник.
func (c *Client) UpdateSource(ctx context.Context, id int64, req SourceUpdate) (*Source, error) {
	var source Source
	if err := c.put(ctx, sourcePath(id), req, &source); err != nil {
		return nil, err
	}
	return &source, nil
}

// DeleteSource удаляет источник.
func (c *Client) DeleteSource(ctx context.Context, id int64) error {
	return c.delete(ctx, sourcePath(id))
}

// SourceState возвращает состояние ингестии источника.
func (c *Client) SourceState(ctx context.Context, id int64) (*SourceState, error) {
	var state SourceState
	if err := c.get(ctx, sourcePath(id)+"/state", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func sourcePath(id int64) string {
	return "/api/admin/sources/" + strconv.FormatInt(id, 10)
}

// --- Topics ---

// ListTopics возвращает все темы.
func (c *Client) ListTopics(ctx context.Context) ([]Topic, error) {
	var topics []Topic
	err := c.get(ctx, "/api/admin/topics", nil, &topics)
	return topics, err
}

// CreateTopic создаёт тему.
func (c *Client) CreateTopic(ctx context.Context, req TopicCreate) (*Topic, error) {
	var topic Topic
	if err := c.post(ctx, "/api/admin/topics", req, &topic); err != nil {
		return nil, err
	}
	return &topic, nil
}

// UpdateTopic обновляет тему.
func (c *Client) UpdateTopic(ctx context.Context, id int64, req TopicUpdate) (*Topic, error) {
	var topic Topic
	if err := c.put(ctx, topicPath(id), req, &topic); err != nil {
		return nil, err
	}
	return &topic, nil
}

// DeleteTopic удаляет тему.
func (c *Client) DeleteTopic(ctx context.Context, id int64) error {
	return c.delete(ctx, topicPath(id))
}

func topicPath(id int64) string {
	return "/api/admin/topics/" + strconv.FormatInt(id, 10)
}

// --- Alerts ---

// ListAlerts возвращает алерты, новые первыми.
func (c *Client) ListAlerts(ctx context.Context) ([]Alert, error) {
	var alerts []Alert
	err := c.get(ctx, "/api/admin/alerts", nil, &alerts)
	return alerts, err
}

// AckAlert подтверждает алерт.
func (c *Client) AckAlert(ctx context.Context, id int64) (*Alert, error) {
	return c.alertAction(ctx, id, "ack", nil)
}

// MuteAlert заглушает алерт на minutes минут. minutes <= 0 — значение сервера.
func (c *Client) MuteAlert(ctx context.Context, id int64, minutes int) (*Alert, error) {
	body := map[string]int{}
	if minutes > 0 {
		body["minutes"] = minutes
	}
	return c.alertAction(ctx, id, "mute", body)
}

// ResolveAlert закрывает алерт вручную.
func (c *Client) ResolveAlert(ctx context.Context, id int64) (*Alert, error) {
	return c.alertAction(ctx, id, "resolve", nil)
}

func (c *Client) alertAction(ctx context.Context, id int64, action string, body any) (*Alert, error) {
	var alert Alert
	path := "/api/admin/alerts/" + strconv.FormatInt(id, 10) + "/" + action
	if err := c.post(ctx, path, body, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}
