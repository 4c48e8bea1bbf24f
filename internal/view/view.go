// Package view хранит состояние загрузки данных страницы.
//
// Каждая страница админки держит один или несколько Loader: результат
// запроса живёт, пока страница открыта, и отбрасывается после Close.
package view

import (
	"context"
	"sync"

	"github.com/shaiso/infra/internal/client"
)

// Phase — фаза загрузки.
type Phase int

const (
	// Idle — загрузка ещё не запускалась.
	Idle Phase = iota

	// Loading — запрос в полёте.
	Loading

	// Loaded — данные получены.
	Loaded

	// Failed — запрос завершился ошибкой.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result — состояние данных страницы: Idle | Loading | Loaded(Data) | Failed(Message).
type Result[T any] struct {
	Phase   Phase
	Data    T
	Message string
}

// LoadedResult создаёт Result в фазе Loaded.
func LoadedResult[T any](data T) Result[T] {
	return Result[T]{Phase: Loaded, Data: data}
}

// FailedResult создаёт Result в фазе Failed с сообщением для пользователя.
func FailedResult[T any](err error) Result[T] {
	return Result[T]{Phase: Failed, Message: client.Message(err)}
}

// Fetcher загружает данные страницы.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Loader выполняет Fetcher и публикует результат.
//
// Параллельные вызовы Load не склеиваются и не отменяют друг друга.
// Ответ применяется, только если Loader не закрыт и более поздний
// запуск ещё не применил свой результат.
type Loader[T any] struct {
	fetch Fetcher[T]

	mu       sync.Mutex
	result   Result[T]
	started  uint64
	applied  uint64
	closed   bool
	onChange func(Result[T])
}

// NewLoader создаёт Loader в фазе Idle.
func NewLoader[T any](fetch Fetcher[T]) *Loader[T] {
	return &Loader[T]{fetch: fetch}
}

// OnChange задаёт функцию, вызываемую при каждой смене состояния.
// Вызывается под блокировкой Loader: fn не должна вызывать методы Loader.
func (l *Loader[T]) OnChange(fn func(Result[T])) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Result возвращает текущее состояние.
func (l *Loader[T]) Result() Result[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result
}

// Load выполняет запрос и возвращает состояние после него.
// Если ответ устарел или Loader закрыт, состояние не меняется.
func (l *Loader[T]) Load(ctx context.Context) Result[T] {
	l.mu.Lock()
	if l.closed {
		res := l.result
		l.mu.Unlock()
		return res
	}
	l.started++
	seq := l.started
	l.set(Result[T]{Phase: Loading, Data: l.result.Data})
	l.mu.Unlock()

	data, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || seq < l.applied {
		return l.result
	}
	l.applied = seq

	if err != nil {
		l.set(FailedResult[T](err))
	} else {
		l.set(LoadedResult(data))
	}
	return l.result
}

// Close отвязывает Loader от страницы: поздние ответы игнорируются.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.onChange = nil
}

func (l *Loader[T]) set(res Result[T]) {
	l.result = res
	if l.onChange != nil {
		l.onChange(res)
	}
}
