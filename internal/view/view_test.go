package view

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shaiso/infra/internal/client"
)

func TestLoader_Phases(t *testing.T) {
	var phases []Phase
	l := NewLoader(func(context.Context) (int, error) { return 42, nil })
	l.OnChange(func(r Result[int]) { phases = append(phases, r.Phase) })

	if l.Result().Phase != Idle {
		t.Fatalf("expected Idle, got %s", l.Result().Phase)
	}

	res := l.Load(context.Background())
	if res.Phase != Loaded || res.Data != 42 {
		t.Errorf("expected Loaded(42), got %+v", res)
	}
	if len(phases) != 2 || phases[0] != Loading || phases[1] != Loaded {
		t.Errorf("expected [loading loaded], got %v", phases)
	}
}

func TestLoader_Failed(t *testing.T) {
	l := NewLoader(func(context.Context) (string, error) {
		return "", &client.APIError{Status: 500, StatusText: "Internal Server Error", Message: "boom"}
	})

	res := l.Load(context.Background())
	if res.Phase != Failed {
		t.Fatalf("expected Failed, got %s", res.Phase)
	}
	if res.Message != "boom" {
		t.Errorf("expected server message, got %q", res.Message)
	}
}

func TestLoader_KeepsDataWhileReloading(t *testing.T) {
	calls := 0
	release := make(chan struct{})
	l := NewLoader(func(context.Context) (int, error) {
		calls++
		if calls == 2 {
			<-release
		}
		return calls, nil
	})
	l.Load(context.Background())

	done := make(chan Result[int])
	go func() { done <- l.Load(context.Background()) }()

	// Ждём, пока второй запуск перейдёт в Loading
	for l.Result().Phase != Loading {
	}
	if l.Result().Data != 1 {
		t.Errorf("previous data should stay visible while loading, got %d", l.Result().Data)
	}

	close(release)
	if res := <-done; res.Data != 2 {
		t.Errorf("expected 2, got %d", res.Data)
	}
}

func TestLoader_StaleResponseDropped(t *testing.T) {
	var mu sync.Mutex
	gates := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	n := 0

	l := NewLoader(func(context.Context) (int, error) {
		mu.Lock()
		n++
		id := n
		mu.Unlock()
		<-gates[id]
		return id, nil
	})

	first := make(chan Result[int])
	go func() { first <- l.Load(context.Background()) }()
	waitStarted(t, &mu, &n, 1)

	second := make(chan Result[int])
	go func() { second <- l.Load(context.Background()) }()
	waitStarted(t, &mu, &n, 2)

	// Второй запрос отвечает первым
	close(gates[2])
	if res := <-second; res.Data != 2 {
		t.Fatalf("expected 2, got %d", res.Data)
	}

	close(gates[1])
	<-first
	if l.Result().Data != 2 {
		t.Errorf("stale response must not overwrite newer data, got %d", l.Result().Data)
	}
}

func TestLoader_CloseDropsLateResponse(t *testing.T) {
	release := make(chan struct{})
	l := NewLoader(func(context.Context) (int, error) {
		<-release
		return 0, errors.New("late")
	})

	done := make(chan struct{})
	go func() {
		l.Load(context.Background())
		close(done)
	}()
	for l.Result().Phase != Loading {
	}

	l.Close()
	close(release)
	<-done

	if l.Result().Phase != Loading {
		t.Errorf("closed loader must ignore late response, got %s", l.Result().Phase)
	}
	if res := l.Load(context.Background()); res.Phase != Loading {
		t.Errorf("closed loader must not start new loads, got %s", res.Phase)
	}
}

func waitStarted(t *testing.T, mu *sync.Mutex, n *int, want int) {
	t.Helper()
	for {
		mu.Lock()
		got := *n
		mu.Unlock()
		if got >= want {
			return
		}
	}
}
