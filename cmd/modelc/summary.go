package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"modelc/internal/api"
	"modelc/internal/dsl"
)

type entitySummary struct {
	Name        string   `json:"name" yaml:"name"`
	Fields      int      `json:"fields" yaml:"fields"`
	Links       []string `json:"links,omitempty" yaml:"links,omitempty"`
	ForeignKeys []string `json:"foreignKeys,omitempty" yaml:"foreignKeys,omitempty"`
}

// summary: то, что CLI печатает после сборки
type summary struct {
	Model    string          `json:"model" yaml:"model"`
	Title    string          `json:"title,omitempty" yaml:"title,omitempty"`
	Version  string          `json:"version,omitempty" yaml:"version,omitempty"`
	Build    string          `json:"build" yaml:"build"`
	OK       bool            `json:"ok" yaml:"ok"`
	Entities []entitySummary `json:"entities,omitempty" yaml:"entities,omitempty"`
	Warnings []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   *dsl.Report     `json:"errors,omitempty" yaml:"errors,omitempty"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

func newSummary(b *api.Build, m *dsl.Model) summary {
	s := summary{Build: b.ID, OK: b.OK, Warnings: b.Warnings, Errors: b.Report}
	if b.Report != nil {
		s.Model = b.Report.Model
	} else {
		s.Error = b.Error
	}
	if m == nil {
		return s
	}
	s.Model, s.Title, s.Version = m.Name, m.Info.Title, m.Info.Version
	for _, e := range m.Entities {
		es := entitySummary{Name: e.Name, Fields: len(e.Fields)}
		for _, l := range e.Links() {
			link := l.Name + " -> " + l.TypeName()
			if l.Link.Resolved() {
				link += fmt.Sprintf(" via %s%v", l.Link.JoinFK, l.Link.JoinAttributes)
			}
			es.Links = append(es.Links, link)
		}
		for _, fk := range e.ForeignKeys {
			es.ForeignKeys = append(es.ForeignKeys, fmt.Sprintf("%s %v -> %s%v", fk.Name, fk.OriginAttributes(), fk.Referenced, fk.ReferencedAttributes()))
		}
		s.Entities = append(s.Entities, es)
	}
	return s
}

func writeSummary(w io.Writer, format string, s summary) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}
