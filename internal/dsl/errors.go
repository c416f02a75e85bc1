package dsl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind: дискриминант ошибки разбора
type ErrorKind int

const (
	KindLex             ErrorKind = iota + 1 // файл не прочитан или не токенизируется
	KindParam                                // параметр аннотации/тега, поле остаётся
	KindFieldType                            // поле отброшено (тип, структура поля)
	KindEntityStructure                      // структура сущности (скобки, имя)
	KindForeignKey                           // разрешение FK, фатально для модели
	KindModel                                // межфайловые проверки
)

var kindNames = map[ErrorKind]string{
	KindLex:             "lex",
	KindParam:           "param",
	KindFieldType:       "field",
	KindEntityStructure: "entity",
	KindForeignKey:      "foreign_key",
	KindModel:           "model",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Сообщения параметров. Сравнивать через errors.Is.
var (
	ErrUnexpectedParameter = errors.New("unexpected parameter")
	ErrParameterRequired   = errors.New("parameter required")
	ErrInvalidInteger      = errors.New("invalid integer parameter")
	ErrInvalidDecimal      = errors.New("invalid decimal parameter")
	ErrInvalidBoolean      = errors.New("invalid boolean parameter")
	ErrInvalidSize         = errors.New("invalid size parameter")
	ErrInvalidList         = errors.New("list parameter required")
	ErrNumericRequired     = errors.New("numeric parameter required")
	ErrOpenParenMissing    = errors.New("'(' missing")
	ErrCloseParenMissing   = errors.New("')' missing")
	ErrUnbalanced          = errors.New("unbalanced parentheses")
	ErrInvalidName         = errors.New("invalid name")
	ErrUnknownAnnotation   = errors.New("unknown annotation")
	ErrAnnotationScope     = errors.New("annotation not allowed here")

	ErrFKComma      = errors.New("0 or 1 ',' expected")
	ErrFKDot        = errors.New("0 or 1 '.' expected")
	ErrFKEntityName = errors.New("referenced entity name required")
)

// Error: одна найденная проблема с позицией.
// Field пустой у ошибок уровня сущности, Entity пустой у ошибок лексера до чтения имени.
type Error struct {
	Kind    ErrorKind
	Entity  string
	Field   string
	Line    int
	Token   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Entity != "" {
		sb.WriteString(e.Entity)
		if e.Field != "" {
			sb.WriteString(".")
			sb.WriteString(e.Field)
		}
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d: ", e.Line)
	}
	sb.WriteString(e.Message)
	if e.Token != "" {
		fmt.Fprintf(&sb, " (%q)", e.Token)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Fatal: true, если ошибка отбрасывает поле (или больше).
// Ошибки параметров оставляют поле в модели.
func (e *Error) Fatal() bool { return e.Kind != KindParam }

func newError(kind ErrorKind, el Element, cause error) *Error {
	return &Error{
		Kind:    kind,
		Line:    el.Line,
		Token:   el.Text,
		Message: cause.Error(),
		Cause:   cause,
	}
}

// EntityParsingError собирает все ошибки одного файла сущности.
type EntityParsingError struct {
	Entity string
	File   string
	Errors []*Error
}

func (e *EntityParsingError) Error() string {
	return fmt.Sprintf("entity %s: %d error(s)", e.Entity, len(e.Errors))
}

// FieldErrorCount: количество ошибок, привязанных к полям.
func (e *EntityParsingError) FieldErrorCount() int {
	n := 0
	for _, it := range e.Errors {
		if it.Field != "" {
			n++
		}
	}
	return n
}

// ModelParsingError: итог по всей модели: по одной записи на сущность с ошибками.
type ModelParsingError struct {
	Model    string
	Entities []*EntityParsingError
}

func (e *ModelParsingError) Error() string {
	total := 0
	for _, ee := range e.Entities {
		total += len(ee.Errors)
	}
	return fmt.Sprintf("model %s: %d entity(ies) with errors, %d error(s) total", e.Model, len(e.Entities), total)
}

// Entity возвращает ошибки сущности по имени.
func (e *ModelParsingError) Entity(name string) (*EntityParsingError, bool) {
	for _, ee := range e.Entities {
		if ee.Entity == name {
			return ee, true
		}
	}
	return nil, false
}

func (e *ModelParsingError) add(entity, file string, errs ...*Error) {
	if len(errs) == 0 {
		return
	}
	for _, it := range errs {
		if it.Entity == "" {
			it.Entity = entity
		}
	}
	for _, ee := range e.Entities {
		if ee.Entity == entity && ee.File == file {
			ee.Errors = append(ee.Errors, errs...)
			return
		}
	}
	e.Entities = append(e.Entities, &EntityParsingError{Entity: entity, File: file, Errors: errs})
}

// ===== отчёт для внешнего конвертера / CLI =====

type ReportEntry struct {
	Kind    string `json:"kind" yaml:"kind"`
	Entity  string `json:"entity" yaml:"entity"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
	Token   string `json:"token,omitempty" yaml:"token,omitempty"`
	Message string `json:"message" yaml:"message"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
}

type FieldReport struct {
	Field  string        `json:"field" yaml:"field"`
	Errors []ReportEntry `json:"errors" yaml:"errors"`
}

type EntityReport struct {
	Entity string        `json:"entity" yaml:"entity"`
	File   string        `json:"file,omitempty" yaml:"file,omitempty"`
	Errors []ReportEntry `json:"errors,omitempty" yaml:"errors,omitempty"`
	Fields []FieldReport `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type Report struct {
	Model    string         `json:"model" yaml:"model"`
	Entities []EntityReport `json:"entities" yaml:"entities"`
}

func entryOf(e *Error) ReportEntry {
	return ReportEntry{
		Kind:    e.Kind.String(),
		Entity:  e.Entity,
		Field:   e.Field,
		Token:   e.Token,
		Message: e.Message,
		Line:    e.Line,
	}
}

// Report группирует ошибки: сущность -> поле -> записи. Порядок полей — порядок первой ошибки.
func (e *ModelParsingError) Report() Report {
	r := Report{Model: e.Model, Entities: make([]EntityReport, 0, len(e.Entities))}
	for _, ee := range e.Entities {
		er := EntityReport{Entity: ee.Entity, File: ee.File}
		byField := map[string]int{}
		for _, it := range ee.Errors {
			if it.Field == "" {
				er.Errors = append(er.Errors, entryOf(it))
				continue
			}
			idx, ok := byField[it.Field]
			if !ok {
				idx = len(er.Fields)
				byField[it.Field] = idx
				er.Fields = append(er.Fields, FieldReport{Field: it.Field})
			}
			er.Fields[idx].Errors = append(er.Fields[idx].Errors, entryOf(it))
		}
		r.Entities = append(r.Entities, er)
	}
	return r
}
