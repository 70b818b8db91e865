package pgstore

// Rows are read in insertion order (id ascending); the composer owns display order.
const (
	queryProfile = `
SELECT id::text, full_name, email, phone, orcid, cvu, researcher_id, scopus_author_id,
       national_id, tax_id, nationality, birth_date, birth_place
FROM profiles WHERE id::text = $1`

	queryEducations = `
SELECT level, degree, institution, country, start_date, end_date
FROM educations WHERE profile_id::text = $1 ORDER BY id`

	queryEmployments = `
SELECT title, institution, start_date, end_date, achievements
FROM employments WHERE profile_id::text = $1 ORDER BY id`

	queryPublications = `
SELECT kind, title, chapter_title, authors, venue, publisher, year, doi, isbn, volume, issue, pages
FROM publications WHERE profile_id::text = $1 ORDER BY id`

	queryConferences = `
SELECT event_name, talk_title, city, country, event_date
FROM conferences WHERE profile_id::text = $1 ORDER BY id`

	queryCourses = `
SELECT name, program, start_date, end_date
FROM courses WHERE profile_id::text = $1 ORDER BY id`

	queryProjects = `
SELECT name, research_line, objective, funding_source, status, start_date, end_date
FROM projects WHERE profile_id::text = $1 ORDER BY id`

	queryTheses = `
SELECT title, student_name, level, institution, status, start_date, end_date
FROM theses WHERE profile_id::text = $1 ORDER BY id`

	queryTechDevelopments = `
SELECT name, type, maturity_level, description
FROM tech_developments WHERE profile_id::text = $1 ORDER BY id`
)
