// Package sections is the fixed registry of CV sections and the selector that
// resolves a request into the sections to render.
package sections

import (
	"slices"
	"strings"
)

// ID identifies a CV section.
type ID string

// Section identifiers in canonical order.
const (
	PersonalData     ID = "personal_data"
	Education        ID = "education"
	Employment       ID = "employment"
	Articles         ID = "articles"
	Books            ID = "books"
	Conferences      ID = "conferences"
	Courses          ID = "courses"
	Projects         ID = "projects"
	Theses           ID = "theses"
	TechDevelopments ID = "tech_developments"
)

// Entry describes one catalog section.
type Entry struct {
	ID      ID     `json:"id"`
	Title   string `json:"title"`
	Default bool   `json:"default"`
}

//nolint:gochecknoglobals // immutable registry
var catalog = []Entry{
	{ID: PersonalData, Title: "Personal Data", Default: true},
	{ID: Education, Title: "Education", Default: true},
	{ID: Employment, Title: "Employment", Default: true},
	{ID: Articles, Title: "Articles", Default: true},
	{ID: Books, Title: "Books and Chapters", Default: true},
	{ID: Conferences, Title: "Conferences", Default: true},
	{ID: Courses, Title: "Courses Taught", Default: true},
	{ID: Projects, Title: "Research Projects", Default: true},
	{ID: Theses, Title: "Theses Supervised", Default: true},
	{ID: TechDevelopments, Title: "Technological Developments", Default: true},
}

// aliases maps identifiers used by older clients onto catalog IDs.
//
//nolint:gochecknoglobals // immutable registry
var aliases = map[string]ID{
	"datos_generales":     PersonalData,
	"formacion_academica": Education,
	"experiencia_laboral": Employment,
	"articulos":           Articles,
	"libros":              Books,
	"congresos":           Conferences,
	"cursos":              Courses,
	"proyectos":           Projects,
	"tesis":               Theses,
	"desarrollos":         TechDevelopments,
}

// Catalog returns a copy of the registry in canonical order.
func Catalog() (entries []Entry) {
	entries = make([]Entry, len(catalog))
	copy(entries, catalog)
	return entries
}

// Parse maps a requested identifier (or alias) to a catalog ID.
func Parse(s string) (id ID, ok bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, e := range catalog {
		if string(e.ID) == key {
			id = e.ID
			ok = true
			return id, ok
		}
	}
	id, ok = aliases[key]
	return id, ok
}

// Title returns the display title for id, or the raw ID if unknown.
func Title(id ID) (title string) {
	for _, e := range catalog {
		if e.ID == id {
			title = e.Title
			return title
		}
	}
	title = string(id)
	return title
}

// Defaults returns the default selection in canonical order.
func Defaults() (ids []ID) {
	for _, e := range catalog {
		if e.Default {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Resolve returns the sections to render for a request, always in catalog order.
// Unknown identifiers are ignored; an empty or wholly unknown request yields the defaults.
func Resolve(requested []string) (ids []ID) {
	wanted := make(map[ID]bool, len(requested))
	for _, r := range requested {
		id, ok := Parse(r)
		if ok {
			wanted[id] = true
		}
	}

	if len(wanted) == 0 {
		ids = Defaults()
		return ids
	}

	for _, e := range catalog {
		if wanted[e.ID] {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Ensure adds id to ids if it is missing, keeping catalog order.
func Ensure(ids []ID, id ID) (out []ID) {
	if slices.Contains(ids, id) {
		out = ids
		return out
	}

	wanted := map[ID]bool{id: true}
	for _, existing := range ids {
		wanted[existing] = true
	}
	for _, e := range catalog {
		if wanted[e.ID] {
			out = append(out, e.ID)
		}
	}
	return out
}
