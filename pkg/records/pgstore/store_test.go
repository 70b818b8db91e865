package pgstore

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikogura/academic-cv/pkg/records"
)

type fakeRows struct {
	rows [][]any
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.rows[r.pos-1], dest)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

func assign(values, dest []any) error {
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}

// fakeDB answers each query by the table named in its FROM clause.
type fakeDB struct {
	profile []any
	tables  map[string][][]any
}

func (db *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if db.profile == nil {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: db.profile}
}

func (db *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	for table, rows := range db.tables {
		if strings.Contains(sql, "FROM "+table+" ") {
			return &fakeRows{rows: rows}, nil
		}
	}
	return &fakeRows{}, nil
}

func str(s string) *string { return &s }

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestStoreBundle(t *testing.T) {
	year := int32(2021)
	db := &fakeDB{
		profile: []any{"7", "Ana López", str("ana@example.edu"), nil, str("0000-0001"), nil, nil, nil, nil, nil, str("Mexican"), day(1980, time.April, 12), nil},
		tables: map[string][][]any{
			"educations": {
				{str("doctoral"), str("PhD"), str("UNAM"), str("Mexico"), day(2005, time.September, 1), nil},
			},
			"employments": {
				{str("Researcher"), str("CINVESTAV"), day(2011, time.January, 1), nil, nil},
			},
			"publications": {
				{str("article"), str("On Things"), nil, []string{"A. López"}, str("J. Phys."), nil, &year, str("10.1/x"), nil, nil, nil, nil},
				{str("chapter"), str("Big Book"), str("Small Chapter"), []string{"A. López"}, nil, str("Springer"), nil, nil, str("978-3"), nil, nil, str("1-20")},
				{nil, str("Untyped"), nil, nil, nil, nil, nil, nil, nil, nil, nil, nil},
			},
			"tech_developments": {
				{str("Tool"), str("software"), nil, nil},
			},
		},
	}

	bundle, err := New(db).Bundle(context.Background(), "7")
	require.NoError(t, err)

	require.NotNil(t, bundle.Profile)
	assert.Equal(t, "Ana López", bundle.Profile.FullName)
	assert.Equal(t, "0000-0001", bundle.Profile.ORCID)
	assert.Empty(t, bundle.Profile.Phone)
	require.NotNil(t, bundle.Profile.BirthDate)
	assert.Equal(t, 1980, bundle.Profile.BirthDate.Year())

	require.Len(t, bundle.Educations, 1)
	assert.Nil(t, bundle.Educations[0].EndDate)

	require.Len(t, bundle.Employments, 1)
	assert.Equal(t, "CINVESTAV", bundle.Employments[0].Institution)

	require.Len(t, bundle.Publications, 2)
	assert.Equal(t, 2021, bundle.Publications[0].Year)
	assert.Equal(t, records.KindArticle, bundle.Publications[1].Kind)

	require.Len(t, bundle.Books, 1)
	assert.Equal(t, records.KindChapter, bundle.Books[0].Kind)
	assert.Equal(t, "978-3", bundle.Books[0].ISBN)

	assert.Empty(t, bundle.Courses)
	require.Len(t, bundle.TechDevelopments, 1)
}

func TestStoreBundleMissingProfile(t *testing.T) {
	_, err := New(&fakeDB{}).Bundle(context.Background(), "404")
	assert.ErrorIs(t, err, records.ErrProfileNotFound)
}
