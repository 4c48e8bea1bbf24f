// Package session хранит состояние авторизации администратора.
//
// Session создаётся явно (New) и передаётся страницам; глобального
// состояния нет. Фазы:
//
//	Loading → Authenticated(username)
//	        ↘ Unauthenticated
//
// Login не доверяет ответу /login: фазу определяет повторный запрос /me.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/shaiso/infra/internal/client"
)

// Phase — фаза сессии.
type Phase int

const (
	// PhaseLoading — состояние ещё не проверено.
	PhaseLoading Phase = iota

	// PhaseAuthenticated — сервер подтвердил сессию.
	PhaseAuthenticated

	// PhaseUnauthenticated — сессии нет (или её не удалось проверить).
	PhaseUnauthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// ErrNotAuthenticated — действие требует активной сессии.
var ErrNotAuthenticated = errors.New("not authenticated")

// API — вызовы авторизации, которые использует Session.
type API interface {
	Me(ctx context.Context) (*client.MeResponse, error)
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	ClearCookies()
}

// State — снимок состояния сессии.
type State struct {
	Phase    Phase
	Username string

	// Message — последняя ошибка для показа пользователю.
	Message string
}

// Session — контекст авторизации администратора.
type Session struct {
	api    API
	logger *slog.Logger

	mu    sync.RWMutex
	state State
}

// New создаёт Session в фазе Loading.
func New(api API, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{api: api, logger: logger}
}

// State возвращает текущее состояние.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated возвращает true в фазе Authenticated.
func (s *Session) Authenticated() bool {
	return s.State().Phase == PhaseAuthenticated
}

// Require возвращает ErrNotAuthenticated вне фазы Authenticated.
func (s *Session) Require() error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// MsgNotConfirmed — login прошёл, но /me не подтвердил сессию.
const MsgNotConfirmed = "Сессия не подтверждена сервером."

// Bootstrap проверяет сессию через /me.
func (s *Session) Bootstrap(ctx context.Context) State {
	s.set(State{Phase: PhaseLoading})
	return s.revalidate(ctx)
}

// Login отправляет учётные данные и перепроверяет сессию через /me.
// Возвращает ошибку login или /me; состояние обновляется в любом случае.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if err := s.api.Login(ctx, username, password); err != nil {
		s.logger.Debug("login failed", "username", username, "error", err)
		s.set(State{Phase: PhaseUnauthenticated, Message: client.Message(err)})
		return err
	}

	st := s.revalidate(ctx)
	if st.Phase != PhaseAuthenticated {
		if st.Message == "" {
			st.Message = MsgNotConfirmed
			s.set(st)
		}
		return errors.New(st.Message)
	}
	return nil
}

// Logout завершает сессию. Локальное состояние очищается даже при
// ошибке сервера.
func (s *Session) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	if err != nil {
		s.logger.Warn("logout request failed", "error", err)
	}
	s.api.ClearCookies()
	s.set(State{Phase: PhaseUnauthenticated})
	return err
}

func (s *Session) revalidate(ctx context.Context) State {
	me, err := s.api.Me(ctx)

	var st State
	switch {
	case err != nil:
		st = State{Phase: PhaseUnauthenticated}
		// 401 — обычное состояние "не вошли", не ошибка
		if !client.IsStatus(err, http.StatusUnauthorized) {
			st.Message = client.Message(err)
		}
	case !me.Authenticated:
		st = State{Phase: PhaseUnauthenticated}
	default:
		st = State{Phase: PhaseAuthenticated, Username: me.Username}
	}

	s.set(st)
	return st
}

func (s *Session) set(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}
