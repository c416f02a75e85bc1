// api/names.go
package api

import (
	"strings"

	"modelc/internal/dsl"
)

// NormalizeEntityName находит сущность по имени: сначала точное совпадение,
// потом регистронезависимое, но только если оно единственное.
func NormalizeEntityName(m *dsl.Model, name string) (*dsl.Entity, bool) {
	name = strings.TrimSpace(name)
	if m == nil || name == "" {
		return nil, false
	}
	if e, ok := m.Entity(name); ok {
		return e, true
	}
	var found *dsl.Entity
	for _, e := range m.Entities {
		if strings.EqualFold(e.Name, name) {
			if found != nil { // неуникально
				return nil, false
			}
			found = e
		}
	}
	return found, found != nil
}
