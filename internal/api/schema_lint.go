// api/schema_lint.go
package api

import (
	"errors"
	"fmt"
	"strings"

	"modelc/internal/dsl"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type SchemaIssue struct {
	Entity   string   `json:"entity"`
	Field    string   `json:"field,omitempty"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Blocking: ошибки блокируют всегда, предупреждения — только в strict
func (i SchemaIssue) Blocking(strict bool) bool {
	return i.Severity == SeverityError || strict
}

func blocking(issues []SchemaIssue, strict bool) []SchemaIssue {
	var out []SchemaIssue
	for _, it := range issues {
		if it.Blocking(strict) {
			out = append(out, it)
		}
	}
	return out
}

// SchemaLint проверяет разрешённую модель на противоречия, которые разбор пропускает.
func SchemaLint(m *dsl.Model) []SchemaIssue {
	if m == nil {
		return nil
	}
	var issues []SchemaIssue

	for _, e := range m.Entities {
		if len(e.IDFields()) == 0 {
			issues = append(issues, SchemaIssue{
				Entity:   e.Name,
				Code:     "entity_without_id",
				Severity: SeverityWarning,
				Message:  "entity has no @Id attribute",
			})
		}

		for _, f := range e.Fields {
			// to-many ссылки колонок не имеют, молчим
			if f.IsLink() && f.Link.Cardinality == dsl.CardinalityOne && !f.Link.Resolved() {
				issues = append(issues, SchemaIssue{
					Entity:   e.Name,
					Field:    f.Name,
					Code:     "link_unresolved",
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("join columns for link to %s are not determined; add @LinkByFK or @LinkByAttr", f.Link.Target),
				})
			}

			t, ok := f.Tags.Get("OnDelete")
			if !ok {
				continue
			}
			od := strings.TrimSpace(strings.ToLower(t.Param))
			switch od {
			case "restrict", "set_null", "cascade":
			default:
				issues = append(issues, SchemaIssue{
					Entity:   e.Name,
					Field:    f.Name,
					Code:     "on_delete_unknown",
					Severity: SeverityError,
					Message:  fmt.Sprintf("unknown on_delete policy %q (allowed: restrict|set_null|cascade)", od),
				})
			}
			if !f.IsFK() {
				issues = append(issues, SchemaIssue{
					Entity:   e.Name,
					Field:    f.Name,
					Code:     "on_delete_not_fk",
					Severity: SeverityWarning,
					Message:  "#OnDelete on an attribute without @FK is ignored",
				})
			}
			// NOT NULL + set_null — конфликт
			if od == "set_null" && (f.IsID() || f.Annotations.Has("NotNull")) {
				issues = append(issues, SchemaIssue{
					Entity:   e.Name,
					Field:    f.Name,
					Code:     "on_delete_set_null_not_null",
					Severity: SeverityError,
					Message:  "not null attribute cannot have on_delete=set_null; use restrict (or drop @NotNull)",
				})
			}
		}
	}

	for _, w := range m.Warnings {
		code := "model_warning"
		if errors.Is(w, dsl.ErrMultipleSimpleFK) {
			code = "multiple_simple_fk"
		}
		issues = append(issues, SchemaIssue{
			Entity:   w.Entity,
			Field:    w.Field,
			Code:     code,
			Severity: SeverityWarning,
			Message:  w.Message,
		})
	}
	return issues
}
