package dsl

import (
	"errors"
	"fmt"
)

var (
	ErrAttributeNotFound   = errors.New("attribute not found")
	ErrFKTargetConflict    = errors.New("foreign key references more than one entity")
	ErrFKOnLink            = errors.New("foreign key attribute must not be a link")
	ErrFKReferencedUnknown = errors.New("cannot determine referenced attribute")
	ErrFKNotFound          = errors.New("foreign key not found")
	ErrFKWrongTarget       = errors.New("foreign key does not reference link target")
	ErrMultipleSimpleFK    = errors.New("attribute has several simple foreign keys, first one kept")
)

// fkRef: FK с позицией объявления, для сообщений
type fkRef struct {
	fk    *ForeignKey
	lines []int
}

// Resolve: второй проход по полностью разобранной модели:
// собирает FK из @FK, разрешает сущности и атрибуты, размечает атрибуты,
// выводит колонки соединения для ссылок. Первая фатальная ошибка прерывает проход.
func Resolve(m *Model) error {
	refs, err := collectForeignKeys(m)
	if err != nil {
		return err
	}

	m.ForeignKeys = m.ForeignKeys[:0]
	for _, ent := range m.Entities {
		ent.ForeignKeys = nil
	}
	for _, r := range refs {
		if err := resolveForeignKey(m, r); err != nil {
			return err
		}
		origin, _ := m.Entity(r.fk.Origin)
		origin.ForeignKeys = append(origin.ForeignKeys, r.fk)
		m.ForeignKeys = append(m.ForeignKeys, r.fk)
	}

	m.Warnings = nil
	classifyAttributes(m)

	for _, ent := range m.Entities {
		for _, f := range ent.Links() {
			if err := linkJoinColumns(ent, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func fkError(entity, field string, line int, token string, cause error) *Error {
	return &Error{
		Kind:    KindForeignKey,
		Entity:  entity,
		Field:   field,
		Line:    line,
		Token:   token,
		Message: cause.Error(),
		Cause:   cause,
	}
}

// collectForeignKeys группирует @FK по (сущность, имя FK) в порядке полей
func collectForeignKeys(m *Model) ([]*fkRef, error) {
	var out []*fkRef
	for _, ent := range m.Entities {
		refs, err := entityForeignKeys(ent)
		if err != nil {
			return nil, err
		}
		out = append(out, refs...)
	}
	return out, nil
}

func entityForeignKeys(ent *Entity) ([]*fkRef, error) {
	var out []*fkRef
	byName := map[string]*fkRef{}
	for _, f := range ent.Fields {
		for _, el := range f.FKElements {
			token := "@FK(" + el.String() + ")"
			if f.IsLink() {
				return nil, fkError(ent.Name, f.Name, f.Line, token, ErrFKOnLink)
			}
			r, exists := byName[el.Name]
			if !exists {
				r = &fkRef{fk: &ForeignKey{
					Name:       el.Name,
					Origin:     ent.Name,
					Referenced: el.Entity,
					Explicit:   el.Explicit,
				}}
				byName[el.Name] = r
				out = append(out, r)
			} else if r.fk.Referenced != el.Entity {
				return nil, fkError(ent.Name, f.Name, f.Line, token,
					fmt.Errorf("%w: %s and %s", ErrFKTargetConflict, r.fk.Referenced, el.Entity))
			}
			r.fk.Attributes = append(r.fk.Attributes, FKAttributePair{Origin: f.Name, Referenced: el.Field})
			r.lines = append(r.lines, f.Line)
		}
	}
	return out, nil
}

// ResolveClean разрешает то, что можно, в модели с ошибками разбора.
// Источники FK и ссылок: только сущности без ошибок в perr; цели могут быть любыми
// (у сущности с ошибками остаются её уцелевшие поля). FK, который не разрешился,
// пропускается, ссылка без колонок остаётся неразрешённой.
func ResolveClean(m *Model, perr *ModelParsingError) {
	clean := func(e *Entity) bool {
		if perr == nil {
			return true
		}
		_, bad := perr.Entity(e.Name)
		return !bad
	}

	m.ForeignKeys = m.ForeignKeys[:0]
	for _, ent := range m.Entities {
		ent.ForeignKeys = nil
	}
	for _, ent := range m.Entities {
		if !clean(ent) {
			continue
		}
		refs, err := entityForeignKeys(ent)
		if err != nil {
			continue
		}
		for _, r := range refs {
			if resolveForeignKey(m, r) != nil {
				continue
			}
			ent.ForeignKeys = append(ent.ForeignKeys, r.fk)
			m.ForeignKeys = append(m.ForeignKeys, r.fk)
		}
	}

	m.Warnings = nil
	classifyAttributes(m)

	for _, ent := range m.Entities {
		for _, f := range ent.Links() {
			f.Link.JoinFK, f.Link.JoinAttributes = "", nil
			if clean(ent) {
				_ = linkJoinColumns(ent, f)
			}
		}
	}
}

func resolveForeignKey(m *Model, r *fkRef) error {
	fk := r.fk
	origin, ok := m.Entity(fk.Origin)
	if !ok {
		return fkError(fk.Origin, "", 0, fk.Name, fmt.Errorf("%w: %s", ErrEntityNotFound, fk.Origin))
	}
	ref, ok := m.Entity(fk.Referenced)
	if !ok {
		return fkError(fk.Origin, fk.Attributes[0].Origin, r.lines[0], fk.Referenced,
			fmt.Errorf("%w: %s", ErrEntityNotFound, fk.Referenced))
	}
	ids := ref.IDFields()
	for i := range fk.Attributes {
		pair := &fk.Attributes[i]
		if _, ok := origin.Field(pair.Origin); !ok {
			return fkError(fk.Origin, pair.Origin, r.lines[i], pair.Origin, ErrAttributeNotFound)
		}
		if pair.Referenced == "" {
			// без явного поля: @Id цели на той же позиции
			if len(ids) != len(fk.Attributes) {
				return fkError(fk.Origin, pair.Origin, r.lines[i], fk.Referenced, ErrFKReferencedUnknown)
			}
			pair.Referenced = ids[i].Name
		}
		target, ok := ref.Field(pair.Referenced)
		if !ok {
			return fkError(fk.Origin, pair.Origin, r.lines[i], fk.Referenced+"."+pair.Referenced, ErrAttributeNotFound)
		}
		if target.IsLink() {
			return fkError(fk.Origin, pair.Origin, r.lines[i], fk.Referenced+"."+pair.Referenced, ErrFKOnLink)
		}
	}
	return nil
}

// classifyAttributes: один FK с одной парой — simple, больше пар — composite.
// Подсказку ReferencedEntity ставит первый simple FK и больше не меняет;
// composite ставит её, только если simple ещё не встречался и подсказки нет.
func classifyAttributes(m *Model) {
	for _, ent := range m.Entities {
		for _, f := range ent.Fields {
			f.FKParts = nil
			f.FKSimple, f.FKComposite = false, false
			f.ReferencedEntity = ""
		}
	}
	simpleSeen := map[*Field]bool{}
	for _, fk := range m.ForeignKeys {
		origin, _ := m.Entity(fk.Origin)
		for _, pair := range fk.Attributes {
			f, _ := origin.Field(pair.Origin)
			f.FKParts = append(f.FKParts, FKPart{
				FKName:              fk.Name,
				ReferencedEntity:    fk.Referenced,
				ReferencedAttribute: pair.Referenced,
			})
			if fk.IsComposite() {
				f.FKComposite = true
				if !simpleSeen[f] && f.ReferencedEntity == "" {
					f.ReferencedEntity = fk.Referenced
				}
				continue
			}
			f.FKSimple = true
			if simpleSeen[f] {
				m.Warnings = append(m.Warnings, &Error{
					Kind:    KindForeignKey,
					Entity:  origin.Name,
					Field:   f.Name,
					Line:    f.Line,
					Token:   fk.Name,
					Message: ErrMultipleSimpleFK.Error(),
					Cause:   ErrMultipleSimpleFK,
				})
				continue
			}
			simpleSeen[f] = true
			f.ReferencedEntity = fk.Referenced
		}
	}
}

// linkJoinColumns: явные @LinkByFK / @LinkByAttr проверяются, иначе ищется
// ровно один FK источника на цель ссылки. 0 или несколько — остаётся неразрешённым.
func linkJoinColumns(origin *Entity, f *Field) error {
	l := f.Link
	l.JoinFK = ""
	l.JoinAttributes = nil

	if an, ok := f.Annotations.Get("LinkByFK"); ok {
		fk, found := origin.ForeignKey(an.Str())
		if !found {
			return fkError(origin.Name, f.Name, f.Line, an.String(), ErrFKNotFound)
		}
		if fk.Referenced != l.Target {
			return fkError(origin.Name, f.Name, f.Line, an.String(), ErrFKWrongTarget)
		}
		l.JoinFK = fk.Name
		l.JoinAttributes = fk.OriginAttributes()
		return nil
	}
	if an, ok := f.Annotations.Get("LinkByAttr"); ok {
		for _, name := range an.List() {
			attr, found := origin.Field(name)
			if !found || attr.IsLink() {
				return fkError(origin.Name, f.Name, f.Line, name, ErrAttributeNotFound)
			}
		}
		l.JoinAttributes = append([]string(nil), an.List()...)
		return nil
	}
	if l.Cardinality == CardinalityMany {
		// обратная сторона связи, колонки у цели
		return nil
	}

	var match *ForeignKey
	for _, fk := range origin.ForeignKeys {
		if fk.Referenced != l.Target {
			continue
		}
		if match != nil {
			return nil
		}
		match = fk
	}
	if match != nil {
		l.JoinFK = match.Name
		l.JoinAttributes = match.OriginAttributes()
	}
	return nil
}
