package api

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"modelc/internal/dsl"
)

// ==== Параметры листинга сущностей ====

type SortKey struct {
	Field string
	Desc  bool
}

type ListParams struct {
	Limit      int
	Offset     int
	Sort       []SortKey
	Q          string   // подстрока имени сущности
	Annotation []string // сущность должна иметь все эти аннотации
	Tag        []string
}

// ==== Парсинг query-параметров ====

func parseListParams(q url.Values) ListParams {
	// limit
	limit := 100
	lv := q.Get("_limit")
	if lv == "" {
		lv = q.Get("limit")
	}
	if lv != "" {
		if n, err := strconv.Atoi(lv); err == nil && n >= 0 && n <= 1000 {
			limit = n
		}
	}

	// offset
	offset := 0
	ov := q.Get("_offset")
	if ov == "" {
		ov = q.Get("offset")
	}
	if ov != "" {
		if n, err := strconv.Atoi(ov); err == nil && n >= 0 {
			offset = n
		}
	}

	// sort: name | fields | file, "-" — по убыванию
	var sortKeys []SortKey
	sv := strings.TrimSpace(q.Get("_sort"))
	if sv == "" {
		sv = strings.TrimSpace(q.Get("sort"))
	}
	if sv != "" {
		for _, p := range strings.Split(sv, ",") {
			p = strings.TrimSpace(p)
			desc := false
			if strings.HasPrefix(p, "-") {
				desc = true
				p = strings.TrimPrefix(p, "-")
			} else if strings.HasPrefix(p, "+") {
				p = strings.TrimPrefix(p, "+")
			}
			if p != "" {
				sortKeys = append(sortKeys, SortKey{Field: p, Desc: desc})
			}
		}
	}

	return ListParams{
		Limit:      limit,
		Offset:     offset,
		Sort:       sortKeys,
		Q:          strings.ToLower(strings.TrimSpace(q.Get("q"))),
		Annotation: nonEmpty(q["annotation"]),
		Tag:        nonEmpty(q["tag"]),
	}
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (lp ListParams) match(e *dsl.Entity) bool {
	if lp.Q != "" && !strings.Contains(strings.ToLower(e.Name), lp.Q) {
		return false
	}
	for _, a := range lp.Annotation {
		if !e.Annotations.Has(a) {
			return false
		}
	}
	for _, t := range lp.Tag {
		if !e.Tags.Has(t) {
			return false
		}
	}
	return true
}

func cmpByKey(a, b *dsl.Entity, key string) int {
	switch key {
	case "fields":
		return len(a.Fields) - len(b.Fields)
	case "file":
		return strings.Compare(a.File, b.File)
	default:
		return strings.Compare(a.Name, b.Name)
	}
}

// filterEntities: фильтр, сортировка (стабильная, по умолчанию — порядок модели), страница
func filterEntities(all []*dsl.Entity, lp ListParams) (page []*dsl.Entity, total int) {
	var out []*dsl.Entity
	for _, e := range all {
		if lp.match(e) {
			out = append(out, e)
		}
	}
	if len(lp.Sort) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, k := range lp.Sort {
				c := cmpByKey(out[i], out[j], k.Field)
				if c == 0 {
					continue
				}
				if k.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	total = len(out)
	if lp.Offset >= len(out) {
		return []*dsl.Entity{}, total
	}
	out = out[lp.Offset:]
	if lp.Limit < len(out) {
		out = out[:lp.Limit]
	}
	return out, total
}
