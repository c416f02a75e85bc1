package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

// NamedMap: упорядоченная коллекция по имени. Повторное имя перезаписывает значение,
// позиция первой вставки сохраняется.
type NamedMap[T any] struct {
	names  []string
	values map[string]T
}

func (m *NamedMap[T]) Put(name string, v T) {
	if m.values == nil {
		m.values = make(map[string]T)
	}
	if _, exists := m.values[name]; !exists {
		m.names = append(m.names, name)
	}
	m.values[name] = v
}

func (m *NamedMap[T]) Get(name string) (T, bool) {
	v, ok := m.values[name]
	return v, ok
}

func (m *NamedMap[T]) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

func (m *NamedMap[T]) Len() int { return len(m.names) }

func (m *NamedMap[T]) Names() []string { return append([]string(nil), m.names...) }

// All возвращает значения в порядке вставки
func (m *NamedMap[T]) All() []T {
	out := make([]T, 0, len(m.names))
	for _, n := range m.names {
		out = append(out, m.values[n])
	}
	return out
}

// Annotation: типизированная директива @Name(param)
type Annotation struct {
	Name  string
	Kind  ParamKind
	Value any // nil | int | float64 | string | bool | Size | []string | *FKElement
}

func (a *Annotation) Int() int       { v, _ := a.Value.(int); return v }
func (a *Annotation) Float() float64 { v, _ := a.Value.(float64); return v }
func (a *Annotation) Str() string    { v, _ := a.Value.(string); return v }
func (a *Annotation) Bool() bool     { v, _ := a.Value.(bool); return v }
func (a *Annotation) Size() Size     { v, _ := a.Value.(Size); return v }
func (a *Annotation) List() []string { v, _ := a.Value.([]string); return v }
func (a *Annotation) FK() *FKElement { v, _ := a.Value.(*FKElement); return v }

func (a *Annotation) ParameterText() string {
	return formatParam(a.Kind, a.Value)
}

// String: каноническая запись, как в исходнике
func (a *Annotation) String() string {
	if a.Kind == ParamNone {
		return "@" + a.Name
	}
	return "@" + a.Name + "(" + a.ParameterText() + ")"
}

func formatParam(kind ParamKind, v any) string {
	switch kind {
	case ParamInteger:
		i, _ := v.(int)
		return strconv.Itoa(i)
	case ParamDecimal:
		f, _ := v.(float64)
		return strconv.FormatFloat(f, 'f', -1, 64)
	case ParamBoolean:
		b, _ := v.(bool)
		return strconv.FormatBool(b)
	case ParamString:
		s, _ := v.(string)
		return Quote(s)
	case ParamSize:
		s, _ := v.(Size)
		return s.String()
	case ParamList:
		l, _ := v.([]string)
		return strings.Join(l, ",")
	case ParamFK:
		if fk, ok := v.(*FKElement); ok && fk != nil {
			return fk.String()
		}
	}
	return ""
}

// Tag: нетипизированная директива #Name(param)
type Tag struct {
	Name     string
	Param    string
	HasParam bool
}

func (t *Tag) String() string {
	if !t.HasParam {
		return "#" + t.Name
	}
	return "#" + t.Name + "(" + Quote(t.Param) + ")"
}

// Size: параметр вида "N" или "N,M"
type Size struct {
	Precision int
	Scale     int
	HasScale  bool
}

func (s Size) String() string {
	if s.HasScale {
		return fmt.Sprintf("%d,%d", s.Precision, s.Scale)
	}
	return strconv.Itoa(s.Precision)
}

type Cardinality int

const (
	CardinalityOne Cardinality = iota + 1
	CardinalityMany
)

func (c Cardinality) String() string {
	if c == CardinalityMany {
		return "many"
	}
	return "one"
}

// Link: поле, тип которого ссылается на другую сущность
type Link struct {
	Target      string
	Cardinality Cardinality

	// заполняется при разрешении; пусто — вывод колонок остаётся конвертеру
	JoinFK         string
	JoinAttributes []string
}

// Resolved: удалось ли определить колонки соединения
func (l *Link) Resolved() bool { return len(l.JoinAttributes) > 0 }

// FKPart: участие атрибута в одном FK
type FKPart struct {
	FKName              string
	ReferencedEntity    string
	ReferencedAttribute string
}

// Field: поле сущности: атрибут (нейтральный тип) или ссылка
type Field struct {
	Name        string
	Line        int
	NeutralType string
	Link        *Link
	Annotations NamedMap[*Annotation]
	Tags        NamedMap[*Tag]
	Errors      []*Error
	// @FK может повторяться; в Annotations остаётся последний
	FKElements []*FKElement

	// результат разрешения FK
	FKParts          []FKPart
	FKSimple         bool
	FKComposite      bool
	ReferencedEntity string
}

func (f *Field) IsLink() bool      { return f.Link != nil }
func (f *Field) IsAttribute() bool { return f.Link == nil }
func (f *Field) IsID() bool        { return f.Annotations.Has("Id") }
func (f *Field) IsFK() bool        { return f.FKSimple || f.FKComposite }

// TypeName: тип как в исходнике ("int", "Book", "Book[]")
func (f *Field) TypeName() string {
	if f.Link == nil {
		return f.NeutralType
	}
	if f.Link.Cardinality == CardinalityMany {
		return f.Link.Target + "[]"
	}
	return f.Link.Target
}

// Entity: разобранный файл *.entity
type Entity struct {
	Name        string
	File        string
	Fields      []*Field
	Annotations NamedMap[*Annotation]
	Tags        NamedMap[*Tag]
	Errors      []*Error

	// FK, где сущность — источник (после разрешения)
	ForeignKeys []*ForeignKey
}

// Field ищет поле по имени
func (e *Entity) Field(name string) (*Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (e *Entity) IDFields() []*Field {
	var out []*Field
	for _, f := range e.Fields {
		if f.IsID() {
			out = append(out, f)
		}
	}
	return out
}

func (e *Entity) Attributes() []*Field {
	var out []*Field
	for _, f := range e.Fields {
		if f.IsAttribute() {
			out = append(out, f)
		}
	}
	return out
}

func (e *Entity) Links() []*Field {
	var out []*Field
	for _, f := range e.Fields {
		if f.IsLink() {
			out = append(out, f)
		}
	}
	return out
}

// ForeignKey ищет FK сущности по имени
func (e *Entity) ForeignKey(name string) (*ForeignKey, bool) {
	for _, fk := range e.ForeignKeys {
		if fk.Name == name {
			return fk, true
		}
	}
	return nil, false
}

// FKAttributePair: пара (атрибут источника, атрибут цели)
type FKAttributePair struct {
	Origin     string
	Referenced string
}

type ForeignKey struct {
	Name       string
	Origin     string
	Referenced string
	Attributes []FKAttributePair
	Explicit   bool // имя задано в аннотации
}

func (fk *ForeignKey) IsComposite() bool { return len(fk.Attributes) > 1 }

func (fk *ForeignKey) OriginAttributes() []string {
	out := make([]string, 0, len(fk.Attributes))
	for _, p := range fk.Attributes {
		out = append(out, p.Origin)
	}
	return out
}

func (fk *ForeignKey) ReferencedAttributes() []string {
	out := make([]string, 0, len(fk.Attributes))
	for _, p := range fk.Attributes {
		out = append(out, p.Referenced)
	}
	return out
}

// Info: данные дескриптора модели (title/version/description)
type Info struct {
	Title       string
	Version     string
	Description string
}

// Model: вся модель: сущности в порядке файлов
type Model struct {
	Name        string
	Dir         string
	Info        Info
	Entities    []*Entity
	ForeignKeys []*ForeignKey
	Warnings    []*Error

	byName map[string]*Entity
}

func NewModel(name string) *Model {
	return &Model{Name: name, byName: map[string]*Entity{}}
}

// Add регистрирует сущность; false — имя уже занято
func (m *Model) Add(e *Entity) bool {
	if m.byName == nil {
		m.byName = map[string]*Entity{}
	}
	if _, exists := m.byName[e.Name]; exists {
		return false
	}
	m.byName[e.Name] = e
	m.Entities = append(m.Entities, e)
	return true
}

func (m *Model) Entity(name string) (*Entity, bool) {
	e, ok := m.byName[name]
	return e, ok
}

func (m *Model) EntityNames() []string {
	out := make([]string, 0, len(m.Entities))
	for _, e := range m.Entities {
		out = append(out, e.Name)
	}
	return out
}
