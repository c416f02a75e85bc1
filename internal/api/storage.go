package api

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"modelc/internal/dsl"
)

// Loader собирает модель из каталога (разбор, дескриптор, разрешение FK)
type Loader func(dir string) (*dsl.Model, error)

// Build: одна попытка загрузки модели
type Build struct {
	ID       string      `json:"id"`
	At       time.Time   `json:"at"`
	Dir      string      `json:"dir"`
	OK       bool        `json:"ok"`
	Entities int         `json:"entities"`
	Report   *dsl.Report `json:"report,omitempty"` // ошибки разбора
	Error    string      `json:"error,omitempty"`  // FK или ввод-вывод
	Warnings []string    `json:"warnings,omitempty"`

	model *dsl.Model
}

type Store struct {
	mu      sync.RWMutex
	current *Build // последняя успешная сборка
	last    *Build // последняя попытка
	dir     string
	load    Loader
	log     *slog.Logger
	entropy io.Reader
}

// NewStore готов к работе; модель загружается через Reload
func NewStore(dir string, load Loader, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Store{
		dir:     dir,
		load:    load,
		log:     log,
		entropy: ulid.Monotonic(src, 0),
	}
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Build собирает модель без публикации. dir == "" — текущий каталог стора.
func (s *Store) Build(dir string) *Build {
	s.mu.Lock()
	if dir == "" {
		dir = s.dir
	}
	id := s.newID()
	s.mu.Unlock()

	b := &Build{ID: id, At: time.Now().UTC(), Dir: dir}
	m, err := s.load(dir)
	b.model = m
	if m != nil {
		b.Entities = len(m.Entities)
		for _, w := range m.Warnings {
			b.Warnings = append(b.Warnings, w.Error())
		}
	}
	var perr *dsl.ModelParsingError
	switch {
	case err == nil:
		b.OK = true
	case errors.As(err, &perr):
		rep := perr.Report()
		b.Report = &rep
		b.Error = perr.Error()
	default:
		b.Error = err.Error()
	}
	return b
}

// Publish делает сборку последней попыткой; успешная становится текущей моделью
func (s *Store) Publish(b *Build) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = b
	if b.OK {
		s.current = b
		s.dir = b.Dir
	}
	s.log.Info("model build", "id", b.ID, "dir", b.Dir, "ok", b.OK, "entities", b.Entities)
}

// Reload = Build + Publish
func (s *Store) Reload(dir string) *Build {
	b := s.Build(dir)
	s.Publish(b)
	return b
}

// Model: текущая (последняя успешно собранная) модель или nil
func (s *Store) Model() *dsl.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return s.current.model
}

func (s *Store) Current() *Build {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Last() *Build {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
