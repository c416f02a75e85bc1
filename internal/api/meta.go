package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"modelc/internal/dsl"
	"modelc/internal/pg"
)

// ===== META HANDLERS =====

type metaEntityListItem struct {
	Entity      string `json:"entity"`
	File        string `json:"file"`
	Fields      int    `json:"fields"`
	Links       int    `json:"links"`
	ForeignKeys int    `json:"foreignKeys"`
}

type metaList struct {
	Model string               `json:"model"`
	Total int                  `json:"total"`
	Items []metaEntityListItem `json:"items"`
}

// currentModel отвечает 503, если ни одна сборка ещё не удалась
func currentModel(c *gin.Context, store *Store) (*dsl.Model, bool) {
	m := store.Model()
	if m == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model not loaded"})
		return nil, false
	}
	return m, true
}

func MetaListHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := currentModel(c, store)
		if !ok {
			return
		}
		page, total := filterEntities(m.Entities, parseListParams(c.Request.URL.Query()))
		out := metaList{Model: m.Name, Total: total, Items: make([]metaEntityListItem, 0, len(page))}
		for _, e := range page {
			out.Items = append(out.Items, metaEntityListItem{
				Entity:      e.Name,
				File:        e.File,
				Fields:      len(e.Fields),
				Links:       len(e.Links()),
				ForeignKeys: len(e.ForeignKeys),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaLink struct {
	Target         string   `json:"target"`
	Cardinality    string   `json:"cardinality"`
	JoinFK         string   `json:"joinFk,omitempty"`
	JoinAttributes []string `json:"joinAttributes,omitempty"`
}

type metaField struct {
	Name             string       `json:"name"`
	Type             string       `json:"type"`
	Line             int          `json:"line"`
	ID               bool         `json:"id,omitempty"`
	Link             *metaLink    `json:"link,omitempty"`
	Annotations      []string     `json:"annotations,omitempty"`
	Tags             []string     `json:"tags,omitempty"`
	FK               []metaFKPart `json:"fk,omitempty"`
	ReferencedEntity string       `json:"referencedEntity,omitempty"`
}

type metaFKPart struct {
	Name      string `json:"name"`
	Entity    string `json:"entity"`
	Attribute string `json:"attribute"`
}

type metaForeignKey struct {
	Name       string   `json:"name"`
	Origin     string   `json:"origin"`
	Referenced string   `json:"referenced"`
	From       []string `json:"from"`
	To         []string `json:"to"`
	Explicit   bool     `json:"explicit"`
}

type metaEntity struct {
	Model       string           `json:"model"`
	Entity      string           `json:"entity"`
	File        string           `json:"file"`
	Annotations []string         `json:"annotations,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Fields      []metaField      `json:"fields"`
	ForeignKeys []metaForeignKey `json:"foreignKeys,omitempty"`
}

func annotationStrings(nm *dsl.NamedMap[*dsl.Annotation]) []string {
	var out []string
	for _, a := range nm.All() {
		out = append(out, a.String())
	}
	return out
}

func tagStrings(nm *dsl.NamedMap[*dsl.Tag]) []string {
	var out []string
	for _, t := range nm.All() {
		out = append(out, t.String())
	}
	return out
}

func toMetaFK(fk *dsl.ForeignKey) metaForeignKey {
	return metaForeignKey{
		Name:       fk.Name,
		Origin:     fk.Origin,
		Referenced: fk.Referenced,
		From:       fk.OriginAttributes(),
		To:         fk.ReferencedAttributes(),
		Explicit:   fk.Explicit,
	}
}

func toMetaField(f *dsl.Field) metaField {
	mf := metaField{
		Name:             f.Name,
		Type:             f.TypeName(),
		Line:             f.Line,
		ID:               f.IsID(),
		Annotations:      annotationStrings(&f.Annotations),
		Tags:             tagStrings(&f.Tags),
		ReferencedEntity: f.ReferencedEntity,
	}
	for _, p := range f.FKParts {
		mf.FK = append(mf.FK, metaFKPart{Name: p.FKName, Entity: p.ReferencedEntity, Attribute: p.ReferencedAttribute})
	}
	if f.Link != nil {
		mf.Link = &metaLink{
			Target:         f.Link.Target,
			Cardinality:    f.Link.Cardinality.String(),
			JoinFK:         f.Link.JoinFK,
			JoinAttributes: append([]string(nil), f.Link.JoinAttributes...),
		}
	}
	return mf
}

func MetaEntityHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := currentModel(c, store)
		if !ok {
			return
		}
		e, ok := NormalizeEntityName(m, c.Param("entity"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}

		fields := make([]metaField, 0, len(e.Fields))
		for _, f := range e.Fields {
			fields = append(fields, toMetaField(f))
		}
		var fks []metaForeignKey
		for _, fk := range e.ForeignKeys {
			fks = append(fks, toMetaFK(fk))
		}

		c.JSON(http.StatusOK, metaEntity{
			Model:       m.Name,
			Entity:      e.Name,
			File:        e.File,
			Annotations: annotationStrings(&e.Annotations),
			Tags:        tagStrings(&e.Tags),
			Fields:      fields,
			ForeignKeys: fks,
		})
	}
}

// ForeignKeysHandler: все FK модели; ?entity= — только исходящие из сущности
func ForeignKeysHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := currentModel(c, store)
		if !ok {
			return
		}
		fks := m.ForeignKeys
		if name := c.Query("entity"); name != "" {
			e, ok := NormalizeEntityName(m, name)
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
				return
			}
			fks = e.ForeignKeys
		}
		out := make([]metaForeignKey, 0, len(fks))
		for _, fk := range fks {
			out = append(out, toMetaFK(fk))
		}
		c.JSON(http.StatusOK, out)
	}
}

// ReportHandler: текущая сборка и последняя попытка (может быть неудачной)
func ReportHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"current": store.Current(),
			"last":    store.Last(),
		})
	}
}

func LintHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := currentModel(c, store)
		if !ok {
			return
		}
		issues := SchemaLint(m)
		if issues == nil {
			issues = []SchemaIssue{}
		}
		c.JSON(http.StatusOK, gin.H{"issues": issues})
	}
}

// DDLHandler отдаёт скрипт PostgreSQL для текущей модели; ?schema= — схема по умолчанию
func DDLHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := currentModel(c, store)
		if !ok {
			return
		}
		ddl, err := pg.GenerateDDL(m, strings.TrimSpace(c.Query("schema")))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "DDL generation failed", "details": err.Error()})
			return
		}
		c.String(http.StatusOK, pg.Script(ddl))
	}
}
