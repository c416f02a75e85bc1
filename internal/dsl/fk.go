package dsl

import "strings"

// FKElement: разобранный параметр @FK: [name ","] entity ["." field]
type FKElement struct {
	Name     string
	Entity   string
	Field    string // пусто — берётся @Id целевой сущности
	Explicit bool   // имя задано явно и не пустое
}

func (e *FKElement) String() string {
	ref := e.Entity
	if e.Field != "" {
		ref += "." + e.Field
	}
	if e.Explicit {
		return e.Name + "," + ref
	}
	return ref
}

// DefaultFKName: имя FK, когда оно не задано
func DefaultFKName(origin, referenced string) string {
	return "FK_" + origin + "_" + referenced
}

// ParseFKParameter разбирает "Entity", "Entity.field", "Name,Entity", "Name,Entity.field".
// Пробелы вокруг частей игнорируются.
func ParseFKParameter(raw, origin string) (*FKElement, error) {
	parts := strings.Split(raw, ",")
	if len(parts) > 2 {
		return nil, ErrFKComma
	}
	name := ""
	ref := parts[0]
	if len(parts) == 2 {
		name = strings.TrimSpace(parts[0])
		ref = parts[1]
	}

	refParts := strings.Split(ref, ".")
	if len(refParts) > 2 {
		return nil, ErrFKDot
	}
	el := &FKElement{Entity: strings.TrimSpace(refParts[0])}
	if el.Entity == "" {
		return nil, ErrFKEntityName
	}
	if len(refParts) == 2 {
		el.Field = strings.TrimSpace(refParts[1])
	}

	if name != "" {
		el.Name = name
		el.Explicit = true
	} else {
		el.Name = DefaultFKName(origin, el.Entity)
	}
	return el, nil
}
