package dsl

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// EntityFileExt: расширение файлов сущностей
const EntityFileExt = ".entity"

var (
	ErrNameMismatch    = errors.New("entity name does not match file name")
	ErrDuplicateEntity = errors.New("duplicate entity")
	ErrEntityNotFound  = errors.New("entity not found")
)

type Options struct {
	Name     string // имя модели; по умолчанию — имя каталога
	Registry *Registry
	Logger   *slog.Logger
	// Workers > 1 — файлы разбираются параллельно (не больше Workers одновременно)
	Workers int
}

func (o Options) withDefaults(dir string) Options {
	if o.Registry == nil {
		o.Registry = DefaultRegistry()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Name == "" {
		o.Name = filepath.Base(filepath.Clean(dir))
	}
	return o
}

// EntityFiles перечисляет *.entity каталога в порядке файловой системы (os.ReadDir — по имени)
func EntityFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, d := range entries {
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), EntityFileExt) {
			continue
		}
		out = append(out, filepath.Join(dir, d.Name()))
	}
	return out, nil
}

// EntityNameFromFile: "models/Book.entity" -> "Book"
func EntityNameFromFile(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadModel разбирает все файлы каталога и, если ошибок нет, разрешает FK.
// При ошибках разбора возвращается частично собранная модель и *ModelParsingError,
// сущности без ошибок в ней разрешены (ResolveClean);
// при ошибке FK — модель без разрешения и *Error вида KindForeignKey.
func LoadModel(dir string, opts Options) (*Model, error) {
	opts = opts.withDefaults(dir)
	files, err := EntityFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("read model dir %s: %w", dir, err)
	}
	m, err := ParseModelFiles(files, opts)
	if m != nil {
		m.Dir = dir
	}
	if err != nil {
		var perr *ModelParsingError
		if m != nil && errors.As(err, &perr) {
			ResolveClean(m, perr)
		}
		return m, err
	}
	if err := Resolve(m); err != nil {
		return m, err
	}
	for _, w := range m.Warnings {
		opts.Logger.Warn("model diagnostic", "entity", w.Entity, "field", w.Field, "message", w.Message)
	}
	opts.Logger.Debug("model resolved", "model", m.Name, "entities", len(m.Entities), "foreign_keys", len(m.ForeignKeys))
	return m, nil
}

type fileResult struct {
	file   string
	entity *Entity
	err    *EntityParsingError
}

// ParseModelFiles: структурный проход по файлам без разрешения FK.
// Набор имён сущностей берётся из имён файлов, поэтому ссылки вперёд работают.
func ParseModelFiles(files []string, opts Options) (*Model, error) {
	opts = opts.withDefaults(".")
	declared := make(EntitySet, len(files))
	for _, f := range files {
		declared[EntityNameFromFile(f)] = struct{}{}
	}

	results := make([]fileResult, len(files))
	parse := func(i int) {
		results[i] = parseFile(files[i], declared, opts.Registry)
		opts.Logger.Debug("entity file parsed", "file", files[i], "entity", results[i].entity.Name,
			"fields", len(results[i].entity.Fields), "errors", len(results[i].entity.Errors))
	}
	if opts.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range files {
			g.Go(func() error {
				parse(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range files {
			parse(i)
		}
	}

	m := NewModel(opts.Name)
	perr := &ModelParsingError{Model: m.Name}
	for _, r := range results {
		ent := r.entity
		expected := EntityNameFromFile(r.file)
		if ent.Name == "" {
			ent.Name = expected
		}
		if r.err != nil {
			perr.add(ent.Name, r.file, r.err.Errors...)
		}
		if ent.Name != expected {
			e := &Error{Kind: KindModel, Entity: ent.Name, Line: 1, Token: ent.Name,
				Message: ErrNameMismatch.Error() + " " + filepath.Base(r.file), Cause: ErrNameMismatch}
			ent.Errors = append(ent.Errors, e)
			perr.add(ent.Name, r.file, e)
		}
		if !m.Add(ent) {
			e := &Error{Kind: KindModel, Entity: ent.Name, Line: 1, Token: ent.Name,
				Message: ErrDuplicateEntity.Error(), Cause: ErrDuplicateEntity}
			perr.add(ent.Name, r.file, e)
		}
	}

	// цели ссылок проверяются только после разбора всех файлов
	for _, ent := range m.Entities {
		for _, f := range ent.Links() {
			if _, ok := m.Entity(f.Link.Target); ok {
				continue
			}
			e := &Error{Kind: KindModel, Entity: ent.Name, Field: f.Name, Line: f.Line, Token: f.Link.Target,
				Message: ErrEntityNotFound.Error(), Cause: ErrEntityNotFound}
			ent.Errors = append(ent.Errors, e)
			perr.add(ent.Name, ent.File, e)
		}
	}

	if len(perr.Entities) > 0 {
		return m, perr
	}
	return m, nil
}

func parseFile(path string, declared EntitySet, reg *Registry) fileResult {
	els, err := LexFile(path)
	if err != nil {
		name := EntityNameFromFile(path)
		lexErr, ok := err.(*Error)
		if !ok {
			lexErr = &Error{Kind: KindLex, Message: err.Error(), Cause: err}
		}
		lexErr.Entity = name
		ent := &Entity{Name: name, File: path, Errors: []*Error{lexErr}}
		return fileResult{file: path, entity: ent, err: &EntityParsingError{Entity: name, File: path, Errors: ent.Errors}}
	}
	ent, perr := ParseEntity(path, els, declared, reg)
	return fileResult{file: path, entity: ent, err: perr}
}
