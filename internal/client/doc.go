// Package client реализует аутентифицированный HTTP-клиент админского API.
//
// # Контракт
//
// Client.Do выполняет один запрос к BaseURL+path и возвращает ровно один
// из двух результатов: разобранный JSON или ошибку с сообщением.
//
//   - Все запросы credentialed: cookies сессии из jar отправляются всегда.
//   - POST/PUT/PATCH/DELETE получают заголовок X-CSRF-Token со значением
//     cookie csrf_token (если она есть). GET — никогда.
//   - 2xx + JSON — успех.
//   - не 2xx + JSON — *APIError с detail сервера или status text.
//   - не 2xx + не JSON — *APIError со status text.
//   - 2xx + не JSON — ErrNotJSON (нарушение контракта сервером).
//   - сбой транспорта — *TransportError.
//
// Ни повторов, ни кэша, ни собственного таймаута: время жизни запроса
// ограничивает только context вызывающего.
//
//	c, err := client.New("http://localhost:8000")
//	me, err := c.Me(ctx)
package client
