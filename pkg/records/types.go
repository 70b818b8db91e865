package records

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Bundle is the normalized set of academic records for one profile.
type Bundle struct {
	Profile          *Profile                `json:"profile"`
	Educations       []EducationRecord       `json:"educations"`
	Employments      []EmploymentRecord      `json:"employments"`
	Publications     []PublicationRecord     `json:"publications"`
	Books            []PublicationRecord     `json:"books"`
	Conferences      []ConferenceRecord      `json:"conferences"`
	Courses          []CourseRecord          `json:"courses"`
	Projects         []ProjectRecord         `json:"projects"`
	Theses           []ThesisRecord          `json:"theses"`
	TechDevelopments []TechDevelopmentRecord `json:"tech_developments"`
}

// Profile holds identity and contact facts.
type Profile struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	ORCID          string `json:"orcid,omitempty"`
	CVU            string `json:"cvu,omitempty"`
	ResearcherID   string `json:"researcher_id,omitempty"`
	ScopusAuthorID string `json:"scopus_author_id,omitempty"`
	NationalID     string `json:"national_id,omitempty"`
	TaxID          string `json:"tax_id,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	BirthDate      *Date  `json:"birth_date,omitempty"`
	BirthPlace     string `json:"birth_place,omitempty"`
}

// DisplayName returns the full name, falling back to the ID.
func (p *Profile) DisplayName() (name string) {
	name = strings.TrimSpace(p.FullName)
	if name == "" {
		name = strings.TrimSpace(p.ID)
	}
	return name
}

// EducationRecord is one academic degree.
type EducationRecord struct {
	Level       string `json:"level"`
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Country     string `json:"country"`
	StartDate   *Date  `json:"start_date,omitempty"`
	EndDate     *Date  `json:"end_date,omitempty"`
}

// EmploymentRecord is one position held.
type EmploymentRecord struct {
	Title        string `json:"title"`
	Institution  string `json:"institution"`
	StartDate    *Date  `json:"start_date,omitempty"`
	EndDate      *Date  `json:"end_date,omitempty"`
	Achievements string `json:"achievements,omitempty"`
}

// Publication kinds.
const (
	KindArticle = "article"
	KindBook    = "book"
	KindChapter = "chapter"
)

// PublicationRecord is an article, book, or book chapter.
type PublicationRecord struct {
	Kind         string   `json:"kind,omitempty"`
	Title        string   `json:"title"`
	ChapterTitle string   `json:"chapter_title,omitempty"`
	Authors      []string `json:"authors"`
	Venue        string   `json:"venue,omitempty"`
	Publisher    string   `json:"publisher,omitempty"`
	Year         int      `json:"year,omitempty"`
	DOI          string   `json:"doi,omitempty"`
	ISBN         string   `json:"isbn,omitempty"`
	Volume       string   `json:"volume,omitempty"`
	Issue        string   `json:"issue,omitempty"`
	Pages        string   `json:"pages,omitempty"`
}

// ConferenceRecord is a talk given at an event.
type ConferenceRecord struct {
	EventName string `json:"event_name"`
	TalkTitle string `json:"talk_title"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	Date      *Date  `json:"date,omitempty"`
}

// CourseRecord is a course taught.
type CourseRecord struct {
	Name      string `json:"name"`
	Program   string `json:"program,omitempty"`
	StartDate *Date  `json:"start_date,omitempty"`
	EndDate   *Date  `json:"end_date,omitempty"`
}

// ProjectRecord is a research project.
type ProjectRecord struct {
	Name          string `json:"name"`
	ResearchLine  string `json:"research_line,omitempty"`
	Objective     string `json:"objective,omitempty"`
	FundingSource string `json:"funding_source,omitempty"`
	Status        string `json:"status,omitempty"`
	StartDate     *Date  `json:"start_date,omitempty"`
	EndDate       *Date  `json:"end_date,omitempty"`
}

// ThesisRecord is a supervised thesis.
type ThesisRecord struct {
	Title       string `json:"title"`
	StudentName string `json:"student_name"`
	Level       string `json:"level,omitempty"`
	Institution string `json:"institution,omitempty"`
	Status      string `json:"status,omitempty"`
	StartDate   *Date  `json:"start_date,omitempty"`
	EndDate     *Date  `json:"end_date,omitempty"`
}

// TechDevelopmentRecord is a technological development such as software or a patent.
type TechDevelopmentRecord struct {
	Name          string `json:"name"`
	Type          string `json:"type,omitempty"`
	MaturityLevel string `json:"maturity_level,omitempty"`
	Description   string `json:"description,omitempty"`
}

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// dateLayouts are tried in order when decoding.
//
//nolint:gochecknoglobals // read-only parse table
var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// NewDate builds a Date from its parts.
func NewDate(year int, month time.Month, day int) (d *Date) {
	d = &Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
	return d
}

// ParseDate accepts YYYY-MM-DD, YYYY-MM, or YYYY.
func ParseDate(s string) (d *Date, err error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		var t time.Time
		t, err = time.Parse(layout, s)
		if err == nil {
			d = &Date{Time: t}
			return d, err
		}
	}
	err = errors.Errorf("invalid date: %q", s)
	return d, err
}

// UnmarshalJSON decodes a date string; empty strings and null leave the date zero.
func (d *Date) UnmarshalJSON(data []byte) (err error) {
	if string(data) == "null" {
		return err
	}

	var s string
	err = json.Unmarshal(data, &s)
	if err != nil {
		err = errors.Wrap(err, "date must be a string")
		return err
	}

	if strings.TrimSpace(s) == "" {
		return err
	}

	var parsed *Date
	parsed, err = ParseDate(s)
	if err != nil {
		return err
	}

	d.Time = parsed.Time
	return err
}

// MarshalJSON encodes the date as YYYY-MM-DD.
func (d Date) MarshalJSON() (data []byte, err error) {
	data, err = json.Marshal(d.Format("2006-01-02"))
	return data, err
}

// Known reports whether the date pointer carries a value.
func Known(d *Date) (ok bool) {
	ok = d != nil && !d.IsZero()
	return ok
}
