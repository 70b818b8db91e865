package compose

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/nikogura/academic-cv/pkg/records"
	"github.com/nikogura/academic-cv/pkg/sections"
)

// ErrMissingProfile aborts composition when there is no profile to describe.
var ErrMissingProfile = errors.New("missing profile: complete your profile first")

// Options carries layout data from the chosen style.
// Template is recorded on the document only; composition never branches on it.
type Options struct {
	Template             string
	SplitCurrentPosition bool
}

// Compose builds the document for the given sections, in the order given.
// A section is emitted only when its collection has entries, except personal data.
// Requested sections left out for having no entries are listed in doc.Empty.
func Compose(profile *records.Profile, bundle records.Bundle, ids []sections.ID, opts Options) (doc Document, err error) {
	if profile == nil {
		err = ErrMissingProfile
		return doc, err
	}

	doc = Document{
		Template: opts.Template,
		Title:    orNotProvided(profile.DisplayName()),
		Contact:  contactLines(profile),
		Sections: make([]Section, 0, len(ids)),
	}

	for _, id := range ids {
		var blocks []Block
		numbered := false

		switch id {
		case sections.PersonalData:
			blocks = personalBlocks(profile)
		case sections.Education:
			blocks = educationBlocks(bundle.Educations)
		case sections.Employment:
			blocks = employmentBlocks(bundle.Employments, opts.SplitCurrentPosition)
		case sections.Articles:
			blocks = articleBlocks(bundle.Publications)
			numbered = true
		case sections.Books:
			blocks = bookBlocks(bundle.Books)
			numbered = true
		case sections.Conferences:
			blocks = conferenceBlocks(bundle.Conferences)
		case sections.Courses:
			blocks = courseBlocks(bundle.Courses)
		case sections.Projects:
			blocks = projectBlocks(bundle.Projects)
		case sections.Theses:
			blocks = thesisBlocks(bundle.Theses)
		case sections.TechDevelopments:
			blocks = techBlocks(bundle.TechDevelopments)
		}

		if len(blocks) == 0 {
			doc.Empty = append(doc.Empty, id)
			continue
		}

		doc.Sections = append(doc.Sections, Section{
			ID:       id,
			Title:    sections.Title(id),
			Numbered: numbered,
			Blocks:   blocks,
		})
	}

	return doc, err
}

func contactLines(p *records.Profile) (lines []string) {
	if email := strings.TrimSpace(p.Email); email != "" {
		lines = append(lines, email)
	}
	if orcid := strings.TrimSpace(p.ORCID); orcid != "" {
		lines = append(lines, "ORCID: "+orcid)
	}
	return lines
}

func personalBlocks(p *records.Profile) (blocks []Block) {
	lines := []string{
		labeled("Email", p.Email),
		labeled("ORCID", p.ORCID),
		labeled("CVU", p.CVU),
		labeled("Nationality", p.Nationality),
		"Date of birth: " + dayMonthYear(p.BirthDate),
		labeled("Place of birth", p.BirthPlace),
	}

	// Registry identifiers that only some profiles carry.
	optional := []struct{ label, value string }{
		{"Phone", p.Phone},
		{"Researcher ID", p.ResearcherID},
		{"Scopus Author ID", p.ScopusAuthorID},
		{"National ID", p.NationalID},
		{"Tax ID", p.TaxID},
	}
	for _, o := range optional {
		if v := strings.TrimSpace(o.value); v != "" {
			lines = append(lines, o.label+": "+v)
		}
	}

	blocks = []Block{{Heading: orNotProvided(p.DisplayName()), Lines: lines}}
	return blocks
}

func dayMonthYear(d *records.Date) (out string) {
	if !records.Known(d) {
		out = NotProvided
		return out
	}
	out = d.Format("02/01/2006")
	return out
}

func educationBlocks(in []records.EducationRecord) (blocks []Block) {
	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b records.EducationRecord) int {
		if c := newerFirst(a.EndDate, b.EndDate, true); c != 0 {
			return c
		}
		return newerFirst(a.StartDate, b.StartDate, false)
	})

	for _, e := range sorted {
		heading := orNotProvided(e.Degree)
		if level := strings.TrimSpace(e.Level); level != "" {
			heading = strings.ToUpper(level) + " - " + heading
		}
		blocks = append(blocks, Block{
			Heading: heading,
			Lines:   []string{orNotProvided(joinPresent(", ", e.Institution, e.Country))},
			Footer:  period(e.StartDate, e.EndDate),
		})
	}
	return blocks
}

// employmentBlocks orders positions by start date, newest first, with ties going
// to the later-inserted record. The first entry is the current position.
func employmentBlocks(in []records.EmploymentRecord, split bool) (blocks []Block) {
	order := make([]int, len(in))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		if c := newerFirst(in[i].StartDate, in[j].StartDate, false); c != 0 {
			return c
		}
		return cmp.Compare(j, i)
	})

	for pos, idx := range order {
		e := in[idx]
		lines := []string{orNotProvided(e.Institution)}
		if a := strings.TrimSpace(e.Achievements); a != "" {
			lines = append(lines, "Achievements: "+a)
		}

		block := Block{
			Heading: orNotProvided(e.Title),
			Lines:   lines,
			Footer:  period(e.StartDate, e.EndDate),
		}
		if split {
			switch pos {
			case 0:
				block.Label = CurrentPosition
			case 1:
				block.Label = PriorHistory
			}
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func byYearDesc(in []records.PublicationRecord) (sorted []records.PublicationRecord) {
	sorted = slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b records.PublicationRecord) int {
		switch {
		case a.Year <= 0 && b.Year <= 0:
			return 0
		case a.Year <= 0:
			return 1
		case b.Year <= 0:
			return -1
		}
		return cmp.Compare(b.Year, a.Year)
	})
	return sorted
}

func articleBlocks(in []records.PublicationRecord) (blocks []Block) {
	for i, p := range byYearDesc(in) {
		cited := citation(p.Venue, p.Year, p.Volume, p.Issue, p.Pages)
		if doi := strings.TrimSpace(p.DOI); doi != "" {
			cited += ". DOI: " + doi
		}
		blocks = append(blocks, Block{
			Number:  i + 1,
			Heading: orNotProvided(p.Title),
			Lines:   []string{authorsLine(p.Authors), cited},
		})
	}
	return blocks
}

func bookBlocks(in []records.PublicationRecord) (blocks []Block) {
	for i, p := range byYearDesc(in) {
		var lines []string
		if p.Kind == records.KindChapter {
			lines = append(lines, "Chapter: "+orNotProvided(p.ChapterTitle))
		}
		lines = append(lines,
			authorsLine(p.Authors),
			citation(firstNonBlank(p.Publisher, p.Venue), p.Year, p.Volume, p.Issue, p.Pages),
		)
		if isbn := strings.TrimSpace(p.ISBN); isbn != "" {
			lines = append(lines, "ISBN: "+isbn)
		}
		if doi := strings.TrimSpace(p.DOI); doi != "" {
			lines = append(lines, "DOI: "+doi)
		}
		blocks = append(blocks, Block{
			Number:  i + 1,
			Heading: orNotProvided(p.Title),
			Lines:   lines,
		})
	}
	return blocks
}

func conferenceBlocks(in []records.ConferenceRecord) (blocks []Block) {
	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b records.ConferenceRecord) int {
		return newerFirst(a.Date, b.Date, false)
	})

	for _, c := range sorted {
		blocks = append(blocks, Block{
			Heading: orNotProvided(c.TalkTitle),
			Lines: []string{
				orNotProvided(c.EventName),
				orNotProvided(joinPresent(", ", c.City, c.Country)),
			},
			Footer: monthYear(c.Date),
		})
	}
	return blocks
}

func courseBlocks(in []records.CourseRecord) (blocks []Block) {
	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b records.CourseRecord) int {
		return newerFirst(a.StartDate, b.StartDate, false)
	})

	for _, c := range sorted {
		blocks = append(blocks, Block{
			Heading: orNotProvided(c.Name),
			Lines:   []string{labeled("Program", c.Program)},
			Footer:  period(c.StartDate, c.EndDate),
		})
	}
	return blocks
}

func projectBlocks(in []records.ProjectRecord) (blocks []Block) {
	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b records.ProjectRecord) int {
		return newerFirst(a.StartDate, b.StartDate, false)
	})

	for _, p := range sorted {
		lines := []string{
			labeled("Research line", p.ResearchLine),
			labeled("Objective", p.Objective),
		}
		if f := strings.TrimSpace(p.FundingSource); f != "" {
			lines = append(lines, "Funding: "+f)
		}
		lines = append(lines, labeled("Status", p.Status))

		blocks = append(blocks, Block{
			Heading: orNotProvided(p.Name),
			Lines:   lines,
			Footer:  period(p.StartDate, p.EndDate),
		})
	}
	return blocks
}

func thesisBlocks(in []records.ThesisRecord) (blocks []Block) {
	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b records.ThesisRecord) int {
		return newerFirst(a.StartDate, b.StartDate, false)
	})

	for _, t := range sorted {
		blocks = append(blocks, Block{
			Heading: orNotProvided(t.Title),
			Lines: []string{
				labeled("Student", t.StudentName),
				orNotProvided(joinPresent(" - ", strings.ToUpper(strings.TrimSpace(t.Level)), t.Institution)),
				labeled("Status", t.Status),
			},
			Footer: period(t.StartDate, t.EndDate),
		})
	}
	return blocks
}

// techBlocks keeps input order; developments carry no dates.
func techBlocks(in []records.TechDevelopmentRecord) (blocks []Block) {
	for _, d := range in {
		lines := []string{
			labeled("Type", d.Type),
			labeled("Maturity level", d.MaturityLevel),
		}
		if desc := strings.TrimSpace(d.Description); desc != "" {
			lines = append(lines, desc)
		}
		blocks = append(blocks, Block{
			Heading: orNotProvided(d.Name),
			Lines:   lines,
		})
	}
	return blocks
}

// newerFirst orders later dates before earlier ones. Unknown dates go first
// when unknownFirst is set (ongoing records), last otherwise.
func newerFirst(a, b *records.Date, unknownFirst bool) (order int) {
	ak, bk := records.Known(a), records.Known(b)
	switch {
	case !ak && !bk:
		order = 0
	case !ak:
		order = 1
		if unknownFirst {
			order = -1
		}
	case !bk:
		order = -1
		if unknownFirst {
			order = 1
		}
	default:
		order = b.Compare(a.Time)
	}
	return order
}

func firstNonBlank(values ...string) (out string) {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = v
			return out
		}
	}
	return out
}
