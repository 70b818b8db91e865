// Package compose turns a profile's records into an ordered, titled document
// that any renderer can lay out.
package compose

import (
	"github.com/nikogura/academic-cv/pkg/sections"
)

// Placeholder text for missing fields and open-ended periods.
const (
	NotProvided     = "Not provided"
	Present         = "Present"
	CurrentPosition = "Current Position"
	PriorHistory    = "Prior History"
)

// Document is the format-independent result of composition.
type Document struct {
	Template string        `json:"template,omitempty"`
	Title    string        `json:"title"`
	Contact  []string      `json:"contact,omitempty"`
	Sections []Section     `json:"sections"`
	Empty    []sections.ID `json:"empty,omitempty"`
}

// Section is one titled block group.
type Section struct {
	ID       sections.ID `json:"id"`
	Title    string      `json:"title"`
	Numbered bool        `json:"numbered,omitempty"`
	Blocks   []Block     `json:"blocks"`
}

// Block is one entry within a section.
// Label, when set, introduces a group that starts at this block.
type Block struct {
	Number  int      `json:"number,omitempty"`
	Label   string   `json:"label,omitempty"`
	Heading string   `json:"heading"`
	Lines   []string `json:"lines,omitempty"`
	Footer  string   `json:"footer,omitempty"`
}

// SectionIDs lists the sections present, in order.
func (d *Document) SectionIDs() (ids []sections.ID) {
	for _, s := range d.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

// Section returns the section with id, if present.
func (d *Document) Section(id sections.ID) (s Section, ok bool) {
	for _, candidate := range d.Sections {
		if candidate.ID == id {
			s = candidate
			ok = true
			return s, ok
		}
	}
	return s, ok
}
