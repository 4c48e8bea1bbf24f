package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// CookieJar — доступ к cookies клиента для BaseURL.
type CookieJar interface {
	BaseURL() string
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
}

// FileStore сохраняет cookies сессии между запусками CLI.
//
// Файл хранит cookies по BaseURL, поэтому один файл обслуживает
// несколько окружений.
type FileStore struct {
	path   string
	logger *slog.Logger
}

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	SavedAt time.Time `json:"saved_at"`
}

// NewFileStore создаёт FileStore. Пустой path — файл в каталоге
// пользовательской конфигурации.
//
// Повреждённый файл читается как пустой с предупреждением в logger,
// чтобы login мог его перезаписать.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("user config dir: %w", err)
		}
		path = filepath.Join(dir, "infra-admin", "session.json")
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Path возвращает путь к файлу.
func (s *FileStore) Path() string {
	return s.path
}

// Load восстанавливает cookies в jar. Отсутствие файла — не ошибка.
func (s *FileStore) Load(jar CookieJar) error {
	all, err := s.read()
	if err != nil {
		return err
	}

	stored := all[jar.BaseURL()]
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	if len(cookies) > 0 {
		jar.SetCookies(cookies)
	}
	return nil
}

// Save записывает текущие cookies jar. Пустой jar удаляет запись BaseURL.
func (s *FileStore) Save(jar CookieJar) error {
	all, err := s.read()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	cookies := jar.Cookies()
	if len(cookies) == 0 {
		delete(all, jar.BaseURL())
	} else {
		stored := make([]storedCookie, 0, len(cookies))
		for _, c := range cookies {
			stored = append(stored, storedCookie{Name: c.Name, Value: c.Value, SavedAt: now})
		}
		all[jar.BaseURL()] = stored
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string][]storedCookie, error) {
	all := map[string][]storedCookie{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, &all); err != nil {
		s.logger.Warn("session file is corrupt, ignoring", "path", s.path, "error", err)
		return map[string][]storedCookie{}, nil
	}
	// файл с null
	if all == nil {
		all = map[string][]storedCookie{}
	}
	return all, nil
}
