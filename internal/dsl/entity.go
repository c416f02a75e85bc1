package dsl

import (
	"errors"
	"strings"
)

var (
	ErrEntityNameExpected = errors.New("entity name expected")
	ErrInvalidEntityName  = errors.New("invalid entity name")
	ErrOpenBraceExpected  = errors.New("'{' expected")
	ErrCloseBraceExpected = errors.New("'}' expected at end of entity")
	ErrEmptyField         = errors.New("empty field declaration")
)

// ParseEntity разбирает элементы одного файла:
//
//	Name [ "{" аннотации/теги "}" ] "{" поля "}"
//
// Все поля разбираются до конца; если есть хоть одна ошибка — возвращается
// EntityParsingError со всем списком, сама сущность возвращается всегда.
func ParseEntity(file string, els []Element, declared EntitySet, reg *Registry) (*Entity, *EntityParsingError) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	ent := &Entity{File: file}
	var errs []*Error
	structural := func(el Element, cause error) {
		e := newError(KindEntityStructure, el, cause)
		e.Entity = ent.Name
		errs = append(errs, e)
	}
	done := func() (*Entity, *EntityParsingError) {
		ent.Errors = errs
		if len(errs) == 0 {
			return ent, nil
		}
		return ent, &EntityParsingError{Entity: ent.Name, File: file, Errors: errs}
	}

	if len(els) == 0 {
		structural(Element{Line: 1}, ErrEntityNameExpected)
		return done()
	}
	ent.Name = els[0].Text
	if !identRe.MatchString(ent.Name) {
		structural(els[0], ErrInvalidEntityName)
	}
	rest := els[1:]
	if len(rest) == 0 || !rest[0].is("{") {
		at := els[0]
		if len(rest) > 0 {
			at = rest[0]
		}
		structural(at, ErrOpenBraceExpected)
		return done()
	}

	// блок аннотаций сущности: начинается с @/# или пустой "{ }" перед "{"
	if isEntityAnnotationBlock(rest) {
		b := &blockParser{
			reg:         reg,
			scope:       ScopeEntity,
			entity:      ent.Name,
			annotations: &ent.Annotations,
			tags:        &ent.Tags,
		}
		i := 1
		for ; i < len(rest) && !rest[i].is("}"); i++ {
			if rest[i].is("{") {
				structural(rest[i], ErrUnexpectedOpen)
				continue
			}
			b.item(rest[i])
		}
		for _, e := range b.errs {
			e.Entity = ent.Name
		}
		errs = append(errs, b.errs...)
		if i >= len(rest) {
			structural(rest[len(rest)-1], ErrCloseBraceExpected)
			return done()
		}
		rest = rest[i+1:]
		if len(rest) == 0 || !rest[0].is("{") {
			at := els[len(els)-1]
			if len(rest) > 0 {
				at = rest[0]
			}
			structural(at, ErrOpenBraceExpected)
			return done()
		}
	}

	// тело: "{" ... "}"; закрывающая скобка — последний элемент файла
	body := rest[1:]
	if n := len(body); n == 0 || !body[n-1].is("}") {
		structural(rest[len(rest)-1], ErrCloseBraceExpected)
	} else {
		body = body[:n-1]
	}

	proc := &fieldProcessor{entity: ent.Name, declared: declared, reg: reg}
	for _, fieldEls := range splitFields(body) {
		if len(fieldEls) == 1 && fieldEls[0].is(";") {
			structural(fieldEls[0], ErrEmptyField)
			continue
		}
		f, ferrs := proc.process(fieldEls)
		errs = append(errs, ferrs...)
		if f != nil {
			putField(ent, f)
		}
	}
	return done()
}

// putField: повторное имя поля заменяет прежнее на его позиции
func putField(ent *Entity, f *Field) {
	for i, old := range ent.Fields {
		if old.Name == f.Name {
			ent.Fields[i] = f
			return
		}
	}
	ent.Fields = append(ent.Fields, f)
}

func isEntityAnnotationBlock(rest []Element) bool {
	if len(rest) < 2 {
		return false
	}
	next := rest[1].Text
	if strings.HasPrefix(next, "@") || strings.HasPrefix(next, "#") {
		return true
	}
	return next == "}" && len(rest) > 2 && rest[2].is("{")
}

// splitFields режет тело по ';' (';' остаётся в конце каждой части)
func splitFields(body []Element) [][]Element {
	var out [][]Element
	start := 0
	for i, el := range body {
		if el.is(";") {
			out = append(out, body[start:i+1])
			start = i + 1
		}
	}
	if start < len(body) {
		out = append(out, body[start:])
	}
	return out
}
