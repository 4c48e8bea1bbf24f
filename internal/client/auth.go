package client

import "context"

// Me возвращает текущую сессию администратора.
// Без сессии сервер отвечает 401 — это *APIError.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var me MeResponse
	if err := c.get(ctx, "/api/admin/auth/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// Login обменивает учётные данные на cookies сессии.
// Ответ сервера не используется: состояние сессии проверяется через Me.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.post(ctx, "/api/admin/auth/login", LoginRequest{Username: username, Password: password}, nil)
}

// Logout завершает сессию на сервере.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/api/admin/auth/logout", nil, nil)
}
