package compose

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikogura/academic-cv/pkg/records"
	"github.com/nikogura/academic-cv/pkg/sections"
)

func d(y int, m time.Month) *records.Date {
	return records.NewDate(y, m, 1)
}

func profile() *records.Profile {
	return &records.Profile{ID: "p-1", FullName: "Ana López", Email: "ana@example.edu"}
}

func fullBundle() records.Bundle {
	return records.Bundle{
		Profile:     profile(),
		Educations:  []records.EducationRecord{{Level: "doctoral", Degree: "PhD", Institution: "UNAM", Country: "Mexico", StartDate: d(2005, 9), EndDate: d(2010, 6)}},
		Employments: []records.EmploymentRecord{{Title: "Researcher", Institution: "CINVESTAV", StartDate: d(2011, 1)}},
		Publications: []records.PublicationRecord{
			{Title: "A", Authors: []string{"X"}, Venue: "J", Year: 2019},
		},
		Books:            []records.PublicationRecord{{Kind: records.KindBook, Title: "B", Year: 2018}},
		Conferences:      []records.ConferenceRecord{{EventName: "Conf", TalkTitle: "Talk", Date: d(2020, 3)}},
		Courses:          []records.CourseRecord{{Name: "Algebra", StartDate: d(2015, 1)}},
		Projects:         []records.ProjectRecord{{Name: "Proj", StartDate: d(2016, 1)}},
		Theses:           []records.ThesisRecord{{Title: "T", StudentName: "S", StartDate: d(2017, 1)}},
		TechDevelopments: []records.TechDevelopmentRecord{{Name: "Tool"}},
	}
}

func TestComposeMissingProfile(t *testing.T) {
	_, err := Compose(nil, records.Bundle{}, sections.Defaults(), Options{})
	assert.ErrorIs(t, err, ErrMissingProfile)
}

func TestComposeDefaultsSkipEmptySections(t *testing.T) {
	bundle := records.Bundle{
		Profile:     profile(),
		Educations:  []records.EducationRecord{{Degree: "BSc", StartDate: d(2000, 1), EndDate: d(2004, 1)}},
		Employments: []records.EmploymentRecord{{Title: "Lecturer", StartDate: d(2005, 1)}},
	}

	doc, err := Compose(bundle.Profile, bundle, sections.Resolve(nil), Options{Template: "institutional"})
	require.NoError(t, err)

	assert.Equal(t, []sections.ID{sections.PersonalData, sections.Education, sections.Employment}, doc.SectionIDs())
	for _, s := range doc.Sections {
		assert.NotEqual(t, "Articles", s.Title)
	}
}

func TestComposeFullBundleIncludesAllSections(t *testing.T) {
	bundle := fullBundle()

	doc, err := Compose(bundle.Profile, bundle, sections.Resolve(nil), Options{})
	require.NoError(t, err)

	assert.Equal(t, sections.Defaults(), doc.SectionIDs())
	assert.Empty(t, doc.Empty)
}

func TestComposeRequestedButEmpty(t *testing.T) {
	bundle := records.Bundle{Profile: profile()}

	// tech_developments was requested, so it is skipped for being empty, not for being excluded.
	ids := sections.Resolve([]string{"tech_developments"})
	assert.Equal(t, []sections.ID{sections.TechDevelopments}, ids)

	doc, err := Compose(bundle.Profile, bundle, ids, Options{})
	require.NoError(t, err)
	assert.Empty(t, doc.Sections)
	assert.Equal(t, []sections.ID{sections.TechDevelopments}, doc.Empty)

	// Personal data is shown whenever requested.
	ids = sections.Resolve([]string{"tech_developments", "personal_data", "books"})
	doc, err = Compose(bundle.Profile, bundle, ids, Options{})
	require.NoError(t, err)
	assert.Equal(t, []sections.ID{sections.PersonalData}, doc.SectionIDs())
	assert.Equal(t, []sections.ID{sections.Books, sections.TechDevelopments}, doc.Empty)
}

func TestComposeCanonicalOrder(t *testing.T) {
	bundle := fullBundle()

	doc, err := Compose(bundle.Profile, bundle, sections.Resolve([]string{"courses", "education"}), Options{})
	require.NoError(t, err)
	assert.Equal(t, []sections.ID{sections.Education, sections.Courses}, doc.SectionIDs())
}

func TestComposeArticlesSortedAndNumbered(t *testing.T) {
	bundle := records.Bundle{
		Profile: profile(),
		Publications: []records.PublicationRecord{
			{Title: "old", Year: 2001},
			{Title: "undated"},
			{Title: "new-first", Year: 2020},
			{Title: "mid", Year: 2010},
			{Title: "new-second", Year: 2020},
		},
	}

	doc, err := Compose(bundle.Profile, bundle, []sections.ID{sections.Articles}, Options{})
	require.NoError(t, err)

	s, ok := doc.Section(sections.Articles)
	require.True(t, ok)
	assert.True(t, s.Numbered)

	var titles []string
	for i, b := range s.Blocks {
		titles = append(titles, b.Heading)
		assert.Equal(t, i+1, b.Number)
	}
	assert.Equal(t, []string{"new-first", "new-second", "mid", "old", "undated"}, titles)
}

func TestComposeDOIOnlyWhenPresent(t *testing.T) {
	bundle := records.Bundle{
		Profile: profile(),
		Publications: []records.PublicationRecord{
			{Title: "with", Authors: []string{"A", "B"}, Venue: "Nature", Year: 2021, DOI: "10.1038/x", Volume: "5", Issue: "2", Pages: "1-9"},
			{Title: "without", Authors: []string{"C"}, Venue: "Science", Year: 2020},
		},
	}

	doc, err := Compose(bundle.Profile, bundle, []sections.ID{sections.Articles}, Options{})
	require.NoError(t, err)

	s, _ := doc.Section(sections.Articles)
	require.Len(t, s.Blocks, 2)

	assert.Equal(t, []string{"A, B", "Nature (2021), Vol. 5(2), pp. 1-9. DOI: 10.1038/x"}, s.Blocks[0].Lines)
	assert.Equal(t, []string{"C", "Science (2020)"}, s.Blocks[1].Lines)

	for _, line := range s.Blocks[1].Lines {
		assert.NotContains(t, line, "DOI")
		assert.NotContains(t, line, "None")
	}
}

func TestComposeEmploymentOpenEndAndSplit(t *testing.T) {
	bundle := records.Bundle{
		Profile: profile(),
		Employments: []records.EmploymentRecord{
			{Title: "Assistant", Institution: "U1", StartDate: d(2001, 2), EndDate: d(2005, 8)},
			{Title: "Professor", Institution: "U2", StartDate: d(2006, 1)},
			{Title: "Visiting", Institution: "U3"},
		},
	}

	doc, err := Compose(bundle.Profile, bundle, []sections.ID{sections.Employment}, Options{SplitCurrentPosition: true})
	require.NoError(t, err)

	s, _ := doc.Section(sections.Employment)
	require.Len(t, s.Blocks, 3)

	assert.Equal(t, "Professor", s.Blocks[0].Heading)
	assert.Equal(t, CurrentPosition, s.Blocks[0].Label)
	assert.Equal(t, "01/2006 - Present", s.Blocks[0].Footer)

	assert.Equal(t, "Assistant", s.Blocks[1].Heading)
	assert.Equal(t, PriorHistory, s.Blocks[1].Label)
	assert.Equal(t, "02/2001 - 08/2005", s.Blocks[1].Footer)

	// Records without a start date sort last.
	assert.Equal(t, "Visiting", s.Blocks[2].Heading)
	assert.Empty(t, s.Blocks[2].Label)
	assert.Equal(t, NotProvided, s.Blocks[2].Footer)

	for _, b := range s.Blocks {
		assert.NotEmpty(t, b.Footer)
	}
}

func TestComposeEmploymentTieGoesToLastInserted(t *testing.T) {
	bundle := records.Bundle{
		Profile: profile(),
		Employments: []records.EmploymentRecord{
			{Title: "first-inserted", StartDate: d(2010, 1)},
			{Title: "second-inserted", StartDate: d(2010, 1)},
		},
	}

	doc, err := Compose(bundle.Profile, bundle, []sections.ID{sections.Employment}, Options{SplitCurrentPosition: true})
	require.NoError(t, err)

	s, _ := doc.Section(sections.Employment)
	assert.Equal(t, "second-inserted", s.Blocks[0].Heading)
	assert.Equal(t, CurrentPosition, s.Blocks[0].Label)
}

func TestComposeWithoutSplitHasNoLabels(t *testing.T) {
	bundle := fullBundle()

	doc, err := Compose(bundle.Profile, bundle, []sections.ID{sections.Employment}, Options{})
	require.NoError(t, err)

	s, _ := doc.Section(sections.Employment)
	for _, b := range s.Blocks {
		assert.Empty(t, b.Label)
	}
}

func TestComposeEducationOngoingFirst(t *testing.T) {
	bundle := records.Bundle{
		Profile: profile(),
		Educations: []records.EducationRecord{
			{Level: "undergraduate", Degree: "BSc", Institution: "UNAM", Country: "Mexico", StartDate: d(1998, 8), EndDate: d(2002, 6)},
			{Level: "doctoral", Degree: "PhD", StartDate: d(2008, 8)},
			{Level: "graduate", Degree: "MSc", Institution: "MIT", StartDate: d(2003, 8), EndDate: d(2005, 6)},
		},
	}

	doc, err := Compose(bundle.Profile, bundle, []sections.ID{sections.Education}, Options{})
	require.NoError(t, err)

	s, _ := doc.Section(sections.Education)
	require.Len(t, s.Blocks, 3)

	assert.Equal(t, "DOCTORAL - PhD", s.Blocks[0].Heading)
	assert.Equal(t, []string{NotProvided}, s.Blocks[0].Lines)
	assert.Equal(t, "08/2008 - Present", s.Blocks[0].Footer)

	assert.Equal(t, "GRADUATE - MSc", s.Blocks[1].Heading)
	assert.Equal(t, []string{"MIT"}, s.Blocks[1].Lines)

	assert.Equal(t, "UNDERGRADUATE - BSc", s.Blocks[2].Heading)
	assert.Equal(t, []string{"UNAM, Mexico"}, s.Blocks[2].Lines)
}

func TestComposePersonalDataPlaceholders(t *testing.T) {
	p := &records.Profile{ID: "p-9", FullName: "Luis Pérez", TaxID: "PEPL800101"}

	doc, err := Compose(p, records.Bundle{Profile: p}, []sections.ID{sections.PersonalData}, Options{})
	require.NoError(t, err)

	s, _ := doc.Section(sections.PersonalData)
	require.Len(t, s.Blocks, 1)

	lines := strings.Join(s.Blocks[0].Lines, "\n")
	assert.Contains(t, lines, "Email: "+NotProvided)
	assert.Contains(t, lines, "Date of birth: "+NotProvided)
	assert.Contains(t, lines, "Tax ID: PEPL800101")
	assert.NotContains(t, lines, "Scopus")

	assert.Equal(t, "Luis Pérez", doc.Title)
	assert.Empty(t, doc.Contact)
}

func TestComposeBooksAndChapters(t *testing.T) {
	bundle := records.Bundle{
		Profile: profile(),
		Books: []records.PublicationRecord{
			{Kind: records.KindChapter, Title: "Handbook", ChapterTitle: "Lasers", Authors: []string{"A"}, Publisher: "Springer", Year: 2015, ISBN: "978-1"},
			{Kind: records.KindBook, Title: "Monograph", Year: 2019},
		},
	}

	doc, err := Compose(bundle.Profile, bundle, []sections.ID{sections.Books}, Options{})
	require.NoError(t, err)

	s, _ := doc.Section(sections.Books)
	require.Len(t, s.Blocks, 2)

	assert.Equal(t, "Monograph", s.Blocks[0].Heading)
	assert.Equal(t, []string{NotProvided, NotProvided + " (2019)"}, s.Blocks[0].Lines)

	assert.Equal(t, 2, s.Blocks[1].Number)
	assert.Equal(t, []string{"Chapter: Lasers", "A", "Springer (2015)", "ISBN: 978-1"}, s.Blocks[1].Lines)
}

func TestComposeTechDevelopmentsKeepInputOrder(t *testing.T) {
	bundle := records.Bundle{
		Profile: profile(),
		TechDevelopments: []records.TechDevelopmentRecord{
			{Name: "zeta"}, {Name: "alpha"}, {Name: "mu"},
		},
	}

	doc, err := Compose(bundle.Profile, bundle, []sections.ID{sections.TechDevelopments}, Options{})
	require.NoError(t, err)

	s, _ := doc.Section(sections.TechDevelopments)
	var names []string
	for _, b := range s.Blocks {
		names = append(names, b.Heading)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mu"}, names)
}

func TestComposeDoesNotMutateInput(t *testing.T) {
	bundle := records.Bundle{
		Profile: profile(),
		Publications: []records.PublicationRecord{
			{Title: "old", Year: 2001},
			{Title: "new", Year: 2020},
		},
	}

	_, err := Compose(bundle.Profile, bundle, []sections.ID{sections.Articles}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "old", bundle.Publications[0].Title)
}

func TestPeriod(t *testing.T) {
	tests := []struct {
		name  string
		start *records.Date
		end   *records.Date
		want  string
	}{
		{name: "closed", start: d(2001, 2), end: d(2003, 11), want: "02/2001 - 11/2003"},
		{name: "open end", start: d(2001, 2), end: nil, want: "02/2001 - Present"},
		{name: "no start", start: nil, end: d(2003, 11), want: NotProvided + " - 11/2003"},
		{name: "no dates", start: nil, end: nil, want: NotProvided},
		{name: "zero end", start: d(2001, 2), end: &records.Date{}, want: "02/2001 - Present"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, period(tt.start, tt.end))
		})
	}
}
