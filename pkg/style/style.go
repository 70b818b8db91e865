// Package style holds the visual template definitions shared by all renderers.
// A Catalog is loaded once and is read-only afterwards.
package style

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Template identifiers shipped in the default catalog.
const (
	Institutional   = "institutional"
	Elegant         = "elegant"
	AcademicColored = "academic-colored"
)

// ErrUnknownTemplate is returned when a template ID is not in the catalog.
var ErrUnknownTemplate = errors.New("unknown template")

// DecorationKind selects how page headers and footers are drawn.
type DecorationKind string

// Decoration kinds.
const (
	DecorationRule        DecorationKind = "rule"
	DecorationBanner      DecorationKind = "banner"
	DecorationSplitBanner DecorationKind = "split-banner"
)

//go:embed styles.yaml
var defaultCatalogYAML []byte

// StyleSet is one named template.
type StyleSet struct {
	ID         string     `yaml:"id" json:"id"`
	Name       string     `yaml:"name" json:"name"`
	Palette    Palette    `yaml:"palette" json:"palette"`
	Typography Typography `yaml:"typography" json:"typography"`
	Decoration Decoration `yaml:"decoration" json:"decoration"`
	Layout     Layout     `yaml:"layout" json:"layout"`
}

// Palette is the primary/secondary/accent color triple.
type Palette struct {
	Primary   Color `yaml:"primary" json:"primary"`
	Secondary Color `yaml:"secondary" json:"secondary"`
	Accent    Color `yaml:"accent" json:"accent"`
}

// Typography sets per-block text weights.
type Typography struct {
	Title    Weight `yaml:"title" json:"title"`
	Subtitle Weight `yaml:"subtitle" json:"subtitle"`
	Heading  Weight `yaml:"heading" json:"heading"`
	Detail   Weight `yaml:"detail" json:"detail"`
}

// Weight is a font size in points plus emphasis.
type Weight struct {
	Size   float64 `yaml:"size" json:"size"`
	Bold   bool    `yaml:"bold" json:"bold,omitempty"`
	Italic bool    `yaml:"italic" json:"italic,omitempty"`
}

// Decoration describes what is drawn on every page.
type Decoration struct {
	Kind            DecorationKind `yaml:"kind" json:"kind"`
	Caption         string         `yaml:"caption" json:"caption,omitempty"`
	Ornaments       bool           `yaml:"ornaments" json:"ornaments,omitempty"`
	ShowDate        bool           `yaml:"show_date" json:"show_date"`
	PageNumberAlign string         `yaml:"page_number_align" json:"page_number_align"`
	RepeatTitle     bool           `yaml:"repeat_title" json:"repeat_title"`
	HeaderHeight    float64        `yaml:"header_height" json:"header_height"`
	FooterHeight    float64        `yaml:"footer_height" json:"footer_height"`
}

// Layout carries style data the composer consumes.
type Layout struct {
	SplitCurrentPosition bool `yaml:"split_current_position" json:"split_current_position"`
}

// Color is an RGB color written as #rrggbb.
type Color struct {
	R, G, B uint8
}

// ParseColor parses #rrggbb.
func ParseColor(s string) (c Color, err error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		err = errors.Errorf("invalid color %q: want #rrggbb", s)
		return c, err
	}

	var v uint64
	v, err = strconv.ParseUint(hex, 16, 32)
	if err != nil {
		err = errors.Wrapf(err, "invalid color %q", s)
		return c, err
	}

	c = Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
	return c, err
}

// RGB returns the components as ints for drawing APIs.
func (c Color) RGB() (r, g, b int) {
	r, g, b = int(c.R), int(c.G), int(c.B)
	return r, g, b
}

// Hex returns the color as rrggbb without a leading #.
func (c Color) Hex() (hex string) {
	const digits = "0123456789ABCDEF"
	buf := []byte{
		digits[c.R>>4], digits[c.R&0x0f],
		digits[c.G>>4], digits[c.G&0x0f],
		digits[c.B>>4], digits[c.B&0x0f],
	}
	hex = string(buf)
	return hex
}

// UnmarshalYAML decodes a #rrggbb scalar.
func (c *Color) UnmarshalYAML(node *yaml.Node) (err error) {
	var s string
	err = node.Decode(&s)
	if err != nil {
		return err
	}
	*c, err = ParseColor(s)
	return err
}

// MarshalText encodes the color as #rrggbb.
func (c Color) MarshalText() (text []byte, err error) {
	text = []byte("#" + c.Hex())
	return text, err
}

// Catalog is an immutable set of style sets.
type Catalog struct {
	sets  []StyleSet
	index map[string]int
}

type catalogFile struct {
	Templates []StyleSet `yaml:"templates"`
}

// DefaultCatalog parses the built-in templates.
func DefaultCatalog() (c *Catalog, err error) {
	c, err = ParseCatalog(defaultCatalogYAML)
	if err != nil {
		err = errors.Wrap(err, "built-in style catalog is invalid")
		return c, err
	}
	return c, err
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (c *Catalog, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read style catalog: %s", path)
		return c, err
	}

	c, err = ParseCatalog(data)
	if err != nil {
		err = errors.Wrapf(err, "failed to load style catalog: %s", path)
		return c, err
	}
	return c, err
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (c *Catalog, err error) {
	var file catalogFile
	err = yaml.Unmarshal(data, &file)
	if err != nil {
		err = errors.Wrap(err, "failed to parse style YAML")
		return c, err
	}

	if len(file.Templates) == 0 {
		err = errors.New("style catalog has no templates")
		return c, err
	}

	c = &Catalog{
		sets:  file.Templates,
		index: make(map[string]int, len(file.Templates)),
	}

	for i := range c.sets {
		set := &c.sets[i]
		err = set.validate()
		if err != nil {
			c = nil
			return c, err
		}
		if _, dup := c.index[set.ID]; dup {
			err = errors.Errorf("duplicate template id %q", set.ID)
			c = nil
			return c, err
		}
		c.index[set.ID] = i
	}

	return c, err
}

func (s *StyleSet) validate() (err error) {
	s.ID = strings.TrimSpace(s.ID)
	if s.ID == "" {
		err = errors.New("template id is required")
		return err
	}
	if s.Name == "" {
		s.Name = s.ID
	}

	switch s.Decoration.Kind {
	case DecorationRule, DecorationBanner, DecorationSplitBanner:
	default:
		err = errors.Errorf("template %s: unknown decoration kind %q", s.ID, s.Decoration.Kind)
		return err
	}

	switch s.Decoration.PageNumberAlign {
	case "":
		s.Decoration.PageNumberAlign = "right"
	case "left", "center", "right":
	default:
		err = errors.Errorf("template %s: invalid page_number_align %q", s.ID, s.Decoration.PageNumberAlign)
		return err
	}

	defaultSize(&s.Typography.Title, 18)
	defaultSize(&s.Typography.Subtitle, 10)
	defaultSize(&s.Typography.Heading, 13)
	defaultSize(&s.Typography.Detail, 10)

	if s.Decoration.HeaderHeight <= 0 {
		s.Decoration.HeaderHeight = 12
	}
	if s.Decoration.FooterHeight <= 0 {
		s.Decoration.FooterHeight = 10
	}

	return err
}

func defaultSize(w *Weight, size float64) {
	if w.Size <= 0 {
		w.Size = size
	}
}

// Lookup returns a copy of the style set with id.
func (c *Catalog) Lookup(id string) (set StyleSet, err error) {
	i, ok := c.index[strings.TrimSpace(id)]
	if !ok {
		err = errors.Wrapf(ErrUnknownTemplate, "%q", id)
		return set, err
	}
	set = c.sets[i]
	return set, err
}

// Default returns the first template in the catalog.
func (c *Catalog) Default() (set StyleSet) {
	set = c.sets[0]
	return set
}

// IDs lists template IDs in declaration order.
func (c *Catalog) IDs() (ids []string) {
	ids = make([]string, 0, len(c.sets))
	for _, s := range c.sets {
		ids = append(ids, s.ID)
	}
	return ids
}

// All returns copies of every style set in declaration order.
func (c *Catalog) All() (sets []StyleSet) {
	sets = make([]StyleSet, len(c.sets))
	copy(sets, c.sets)
	return sets
}
