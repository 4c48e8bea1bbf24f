package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shaiso/infra/internal/client"
	"github.com/shaiso/infra/internal/session"
)

// ErrLoginRequired — команде нужна активная сессия.
var ErrLoginRequired = errors.New("сессия не активна, выполните: infra-admin login")

// App — общее состояние команд одного запуска: адрес API, режим
// вывода и хранилище сессии. Клиент создаётся лениво, после парсинга
// флагов.
type App struct {
	APIURL      string
	JSON        bool
	SessionFile string

	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Logger *slog.Logger

	// HTTPClient подменяется в тестах.
	HTTPClient *http.Client

	client  *client.Client
	session *session.Session
	store   *session.FileStore
}

// Output возвращает форматтер вывода.
func (a *App) Output() *Output {
	return NewOutput(a.JSON, a.Stdout, a.Stderr)
}

// Client создаёт клиент и восстанавливает cookies из файла сессии.
func (a *App) Client() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	opts := []client.Option{client.WithLogger(a.logger())}
	if a.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(a.HTTPClient))
	}
	c, err := client.New(a.APIURL, opts...)
	if err != nil {
		return nil, err
	}

	store, err := session.NewFileStore(a.SessionFile, a.logger())
	if err != nil {
		return nil, err
	}
	if err := store.Load(c); err != nil {
		return nil, err
	}

	a.client = c
	a.store = store
	a.session = session.New(c, a.logger())
	return c, nil
}

// Session возвращает контекст авторизации. До Bootstrap фаза Loading.
func (a *App) Session() (*session.Session, error) {
	if _, err := a.Client(); err != nil {
		return nil, err
	}
	return a.session, nil
}

// Authed проверяет сессию через /me и возвращает клиент.
// Вне фазы Authenticated возвращает ErrLoginRequired.
func (a *App) Authed(ctx context.Context) (*client.Client, error) {
	s, err := a.Session()
	if err != nil {
		return nil, err
	}

	st := s.Bootstrap(ctx)
	if st.Phase != session.PhaseAuthenticated {
		if st.Message != "" {
			return nil, fmt.Errorf("%w (%s)", ErrLoginRequired, st.Message)
		}
		return nil, ErrLoginRequired
	}
	return a.client, nil
}

// SaveSession записывает текущие cookies в файл сессии.
func (a *App) SaveSession() error {
	if a.client == nil {
		return nil
	}
	return a.store.Save(a.client)
}

// ErrorMessage возвращает текст ошибки для пользователя. 401 в ответе
// на любую команду означает, что сессия истекла.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrLoginRequired):
		return err.Error()
	case client.IsStatus(err, http.StatusUnauthorized):
		return client.Message(err) + " Выполните: infra-admin login"
	default:
		return client.Message(err)
	}
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
