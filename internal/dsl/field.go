package dsl

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidElement    = errors.New("invalid element")
	ErrUnexpectedElement = errors.New("unexpected element")
	ErrInvalidType       = errors.New("invalid type")
	ErrInvalidFieldName  = errors.New("invalid field name")
	ErrColonExpected     = errors.New("':' expected")
	ErrTypeExpected      = errors.New("type expected")
	ErrSemicolonExpected = errors.New("';' expected")
	ErrUnexpectedOpen    = errors.New("unexpected '{'")
	ErrUnexpectedClose   = errors.New("unexpected '}'")
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// blockParser разбирает содержимое блока { ... } (аннотации, теги, разделители ',').
// Используется и для поля, и для сущности.
type blockParser struct {
	reg         *Registry
	scope       Scope
	entity      string
	numeric     bool
	annotations *NamedMap[*Annotation]
	tags        *NamedMap[*Tag]
	fks         *[]*FKElement // все @FK по порядку; nil — FK в блоке недопустимы
	errs        []*Error

	prevClosed bool // предыдущий элемент закончился ')'
	separated  bool // в блоке уже был принят разделитель ','
}

func (b *blockParser) fail(el Element, cause error) {
	b.errs = append(b.errs, newError(KindParam, el, cause))
}

// item обрабатывает один элемент внутри блока (не '{' и не '}')
func (b *blockParser) item(el Element) {
	text := el.Text
	if text == "," {
		if !b.prevClosed {
			b.fail(el, ErrInvalidElement)
			return
		}
		b.prevClosed = false
		b.separated = true
		return
	}
	if b.separated && len(text) > 1 && strings.HasSuffix(text, ",") {
		// "@NotNull," в списке через запятую — та же запятая-разделитель
		text = strings.TrimSuffix(text, ",")
		b.prevClosed = false
	} else {
		b.prevClosed = strings.HasSuffix(text, ")")
	}

	switch text[0] {
	case '@':
		b.annotation(el, text)
	case '#':
		b.tag(el, text)
	default:
		b.prevClosed = false
		b.fail(el, ErrInvalidElement)
	}
}

func (b *blockParser) annotation(el Element, text string) {
	name, err := ExtractName(text)
	if err != nil {
		b.fail(el, err)
		return
	}
	def, ok := b.reg.Lookup(name)
	if !ok {
		b.fail(el, ErrUnknownAnnotation)
		return
	}
	if def.Scope&b.scope == 0 {
		b.fail(el, ErrAnnotationScope)
		return
	}
	if def.NumericOnly && !b.numeric {
		b.fail(el, ErrNumericRequired)
		return
	}
	raw, present, err := ExtractParameter(text)
	if err != nil {
		b.fail(el, err)
		return
	}
	v, err := ParseParameter(def.Kind, raw, present, b.entity)
	if err != nil {
		b.fail(el, err)
		return
	}
	b.annotations.Put(name, &Annotation{Name: name, Kind: def.Kind, Value: v})
	if fk, ok := v.(*FKElement); ok && b.fks != nil {
		*b.fks = append(*b.fks, fk)
	}
}

func (b *blockParser) tag(el Element, text string) {
	name, err := ExtractName(text)
	if err != nil {
		b.fail(el, err)
		return
	}
	raw, present, err := ExtractParameter(text)
	if err != nil {
		b.fail(el, err)
		return
	}
	t := &Tag{Name: name, HasParam: present}
	if present {
		t.Param = Unquote(raw)
	}
	b.tags.Put(name, t)
}

type fieldState int

const (
	stName fieldState = iota
	stColon
	stType
	stAfterType
	stBlock
	stAfterBlock
	stEnd
)

// fieldProcessor: автомат одного поля: NAME ':' TYPE [ '{' ... '}' ] ';'
type fieldProcessor struct {
	entity   string
	declared EntitySet
	reg      *Registry
}

// process возвращает поле и его ошибки. Фатальная ошибка (тип, структура) —
// поле nil и ровно одна ошибка; ошибки аннотаций/тегов поле не отменяют.
func (p *fieldProcessor) process(els []Element) (*Field, []*Error) {
	if len(els) == 0 {
		return nil, nil
	}
	f := &Field{Name: els[0].Text, Line: els[0].Line}
	fatal := func(el Element, cause error) (*Field, []*Error) {
		e := newError(KindFieldType, el, cause)
		e.Entity = p.entity
		e.Field = f.Name
		return nil, []*Error{e}
	}

	b := &blockParser{
		reg:         p.reg,
		scope:       ScopeField,
		entity:      p.entity,
		annotations: &f.Annotations,
		tags:        &f.Tags,
		fks:         &f.FKElements,
	}

	state := stName
	for _, el := range els {
		switch state {
		case stName:
			if !identRe.MatchString(el.Text) {
				return fatal(el, ErrInvalidFieldName)
			}
			state = stColon
		case stColon:
			if !el.is(":") {
				return fatal(el, ErrColonExpected)
			}
			state = stType
		case stType:
			if el.is(";") || el.is("{") || el.is("}") {
				return fatal(el, ErrTypeExpected)
			}
			if !p.resolveType(f, el.Text) {
				return fatal(el, ErrInvalidType)
			}
			b.numeric = f.Link == nil && IsNumericType(f.NeutralType)
			state = stAfterType
		case stAfterType:
			switch {
			case el.is(";"):
				state = stEnd
			case el.is("{"):
				state = stBlock
			default:
				return fatal(el, ErrUnexpectedElement)
			}
		case stBlock:
			switch {
			case el.is("{"):
				return fatal(el, ErrUnexpectedOpen)
			case el.is("}"):
				state = stAfterBlock
			default:
				b.item(el)
			}
		case stAfterBlock:
			switch {
			case el.is(";"):
				state = stEnd
			case el.is("}"):
				return fatal(el, ErrUnexpectedClose)
			case el.is("{"):
				return fatal(el, ErrUnexpectedOpen)
			default:
				return fatal(el, ErrSemicolonExpected)
			}
		case stEnd:
			return fatal(el, ErrUnexpectedElement)
		}
	}
	if state != stEnd {
		return fatal(els[len(els)-1], ErrSemicolonExpected)
	}

	for _, e := range b.errs {
		e.Entity = p.entity
		e.Field = f.Name
	}
	f.Errors = b.errs
	return f, b.errs
}

// resolveType: нейтральный тип или объявленная сущность ("Book", "Book[]")
func (p *fieldProcessor) resolveType(f *Field, typ string) bool {
	card := CardinalityOne
	if base, ok := strings.CutSuffix(typ, "[]"); ok {
		typ = base
		card = CardinalityMany
	}
	if IsNeutralType(typ) {
		if card == CardinalityMany {
			return false
		}
		f.NeutralType = typ
		return true
	}
	if p.declared.Has(typ) {
		f.Link = &Link{Target: typ, Cardinality: card}
		return true
	}
	return false
}
