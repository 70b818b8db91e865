// Package pgstore reads record bundles from the profile database.
package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/nikogura/academic-cv/pkg/records"
)

// Querier is the subset of pgxpool.Pool used by the store.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a records.Provider backed by PostgreSQL.
type Store struct {
	db Querier
}

// New wraps an existing pool or connection.
func New(db Querier) (s *Store) {
	s = &Store{db: db}
	return s
}

// Open connects a pool to databaseURL and pings it.
func Open(ctx context.Context, databaseURL string) (s *Store, pool *pgxpool.Pool, err error) {
	pool, err = pgxpool.New(ctx, databaseURL)
	if err != nil {
		err = errors.Wrap(err, "failed to create database pool")
		return s, pool, err
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		pool = nil
		err = errors.Wrap(err, "failed to reach database")
		return s, pool, err
	}

	s = New(pool)
	return s, pool, err
}

// Bundle loads every collection for profileID.
func (s *Store) Bundle(ctx context.Context, profileID string) (bundle records.Bundle, err error) {
	bundle.Profile, err = s.profile(ctx, profileID)
	if err != nil {
		return bundle, err
	}

	loaders := []struct {
		name string
		load func(context.Context, string) error
	}{
		{"educations", func(ctx context.Context, id string) (err error) {
			bundle.Educations, err = s.educations(ctx, id)
			return err
		}},
		{"employments", func(ctx context.Context, id string) (err error) {
			bundle.Employments, err = s.employments(ctx, id)
			return err
		}},
		{"publications", func(ctx context.Context, id string) (err error) {
			bundle.Publications, bundle.Books, err = s.publications(ctx, id)
			return err
		}},
		{"conferences", func(ctx context.Context, id string) (err error) {
			bundle.Conferences, err = s.conferences(ctx, id)
			return err
		}},
		{"courses", func(ctx context.Context, id string) (err error) {
			bundle.Courses, err = s.courses(ctx, id)
			return err
		}},
		{"projects", func(ctx context.Context, id string) (err error) {
			bundle.Projects, err = s.projects(ctx, id)
			return err
		}},
		{"theses", func(ctx context.Context, id string) (err error) {
			bundle.Theses, err = s.theses(ctx, id)
			return err
		}},
		{"tech_developments", func(ctx context.Context, id string) (err error) {
			bundle.TechDevelopments, err = s.techDevelopments(ctx, id)
			return err
		}},
	}

	for _, l := range loaders {
		err = l.load(ctx, profileID)
		if err != nil {
			err = errors.Wrapf(err, "failed to load %s for profile %s", l.name, profileID)
			return bundle, err
		}
	}

	return bundle, err
}

func (s *Store) profile(ctx context.Context, profileID string) (p *records.Profile, err error) {
	row := s.db.QueryRow(ctx, queryProfile, profileID)

	var (
		id, fullName                                     string
		email, phone, orcid, cvu, researcherID, scopusID *string
		nationalID, taxID, nationality, birthPlace       *string
		birthDate                                        *time.Time
	)

	err = row.Scan(&id, &fullName, &email, &phone, &orcid, &cvu, &researcherID, &scopusID,
		&nationalID, &taxID, &nationality, &birthDate, &birthPlace)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = errors.Wrapf(records.ErrProfileNotFound, "no profile %s", profileID)
			return p, err
		}
		err = errors.Wrap(err, "failed to query profile")
		return p, err
	}

	p = &records.Profile{
		ID:             id,
		FullName:       fullName,
		Email:          text(email),
		Phone:          text(phone),
		ORCID:          text(orcid),
		CVU:            text(cvu),
		ResearcherID:   text(researcherID),
		ScopusAuthorID: text(scopusID),
		NationalID:     text(nationalID),
		TaxID:          text(taxID),
		Nationality:    text(nationality),
		BirthDate:      date(birthDate),
		BirthPlace:     text(birthPlace),
	}

	return p, err
}

func (s *Store) educations(ctx context.Context, profileID string) (out []records.EducationRecord, err error) {
	err = s.each(ctx, queryEducations, profileID, func(row pgx.Rows) (err error) {
		var level, degree, institution, country *string
		var start, end *time.Time
		err = row.Scan(&level, &degree, &institution, &country, &start, &end)
		if err != nil {
			return err
		}
		out = append(out, records.EducationRecord{
			Level:       text(level),
			Degree:      text(degree),
			Institution: text(institution),
			Country:     text(country),
			StartDate:   date(start),
			EndDate:     date(end),
		})
		return err
	})
	return out, err
}

func (s *Store) employments(ctx context.Context, profileID string) (out []records.EmploymentRecord, err error) {
	err = s.each(ctx, queryEmployments, profileID, func(row pgx.Rows) (err error) {
		var title, institution, achievements *string
		var start, end *time.Time
		err = row.Scan(&title, &institution, &start, &end, &achievements)
		if err != nil {
			return err
		}
		out = append(out, records.EmploymentRecord{
			Title:        text(title),
			Institution:  text(institution),
			StartDate:    date(start),
			EndDate:      date(end),
			Achievements: text(achievements),
		})
		return err
	})
	return out, err
}

// publications splits rows into articles and books/chapters.
func (s *Store) publications(ctx context.Context, profileID string) (articles, books []records.PublicationRecord, err error) {
	err = s.each(ctx, queryPublications, profileID, func(row pgx.Rows) (err error) {
		var kind, title, chapterTitle, venue, publisher, doi, isbn, volume, issue, pages *string
		var authors []string
		var year *int32
		err = row.Scan(&kind, &title, &chapterTitle, &authors, &venue, &publisher, &year, &doi, &isbn, &volume, &issue, &pages)
		if err != nil {
			return err
		}
		pub := records.PublicationRecord{
			Kind:         text(kind),
			Title:        text(title),
			ChapterTitle: text(chapterTitle),
			Authors:      authors,
			Venue:        text(venue),
			Publisher:    text(publisher),
			DOI:          text(doi),
			ISBN:         text(isbn),
			Volume:       text(volume),
			Issue:        text(issue),
			Pages:        text(pages),
		}
		if year != nil {
			pub.Year = int(*year)
		}
		switch pub.Kind {
		case records.KindBook, records.KindChapter:
			books = append(books, pub)
		default:
			pub.Kind = records.KindArticle
			articles = append(articles, pub)
		}
		return err
	})
	return articles, books, err
}

func (s *Store) conferences(ctx context.Context, profileID string) (out []records.ConferenceRecord, err error) {
	err = s.each(ctx, queryConferences, profileID, func(row pgx.Rows) (err error) {
		var event, talk, city, country *string
		var when *time.Time
		err = row.Scan(&event, &talk, &city, &country, &when)
		if err != nil {
			return err
		}
		out = append(out, records.ConferenceRecord{
			EventName: text(event),
			TalkTitle: text(talk),
			City:      text(city),
			Country:   text(country),
			Date:      date(when),
		})
		return err
	})
	return out, err
}

func (s *Store) courses(ctx context.Context, profileID string) (out []records.CourseRecord, err error) {
	err = s.each(ctx, queryCourses, profileID, func(row pgx.Rows) (err error) {
		var name, program *string
		var start, end *time.Time
		err = row.Scan(&name, &program, &start, &end)
		if err != nil {
			return err
		}
		out = append(out, records.CourseRecord{
			Name:      text(name),
			Program:   text(program),
			StartDate: date(start),
			EndDate:   date(end),
		})
		return err
	})
	return out, err
}

func (s *Store) projects(ctx context.Context, profileID string) (out []records.ProjectRecord, err error) {
	err = s.each(ctx, queryProjects, profileID, func(row pgx.Rows) (err error) {
		var name, line, objective, funding, status *string
		var start, end *time.Time
		err = row.Scan(&name, &line, &objective, &funding, &status, &start, &end)
		if err != nil {
			return err
		}
		out = append(out, records.ProjectRecord{
			Name:          text(name),
			ResearchLine:  text(line),
			Objective:     text(objective),
			FundingSource: text(funding),
			Status:        text(status),
			StartDate:     date(start),
			EndDate:       date(end),
		})
		return err
	})
	return out, err
}

func (s *Store) theses(ctx context.Context, profileID string) (out []records.ThesisRecord, err error) {
	err = s.each(ctx, queryTheses, profileID, func(row pgx.Rows) (err error) {
		var title, student, level, institution, status *string
		var start, end *time.Time
		err = row.Scan(&title, &student, &level, &institution, &status, &start, &end)
		if err != nil {
			return err
		}
		out = append(out, records.ThesisRecord{
			Title:       text(title),
			StudentName: text(student),
			Level:       text(level),
			Institution: text(institution),
			Status:      text(status),
			StartDate:   date(start),
			EndDate:     date(end),
		})
		return err
	})
	return out, err
}

func (s *Store) techDevelopments(ctx context.Context, profileID string) (out []records.TechDevelopmentRecord, err error) {
	err = s.each(ctx, queryTechDevelopments, profileID, func(row pgx.Rows) (err error) {
		var name, kind, maturity, description *string
		err = row.Scan(&name, &kind, &maturity, &description)
		if err != nil {
			return err
		}
		out = append(out, records.TechDevelopmentRecord{
			Name:          text(name),
			Type:          text(kind),
			MaturityLevel: text(maturity),
			Description:   text(description),
		})
		return err
	})
	return out, err
}

// each runs query for profileID and calls scan once per row.
func (s *Store) each(ctx context.Context, query, profileID string, scan func(pgx.Rows) error) (err error) {
	var rows pgx.Rows
	rows, err = s.db.Query(ctx, query, profileID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		err = scan(rows)
		if err != nil {
			return err
		}
	}

	err = rows.Err()
	return err
}

func text(s *string) (out string) {
	if s != nil {
		out = *s
	}
	return out
}

func date(t *time.Time) (d *records.Date) {
	if t == nil || t.IsZero() {
		return d
	}
	d = records.NewDate(t.Year(), t.Month(), t.Day())
	return d
}
