package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogOrder(t *testing.T) {
	want := []ID{PersonalData, Education, Employment, Articles, Books, Conferences, Courses, Projects, Theses, TechDevelopments}

	entries := Catalog()
	got := make([]ID, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.ID)
		assert.True(t, e.Default, "section %s should be on by default", e.ID)
		assert.NotEmpty(t, e.Title)
	}
	assert.Equal(t, want, got)

	// Callers cannot mutate the registry through the returned slice.
	entries[0].Title = "changed"
	assert.Equal(t, "Personal Data", Title(PersonalData))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		requested []string
		want      []ID
	}{
		{
			name:      "nil request yields defaults",
			requested: nil,
			want:      Defaults(),
		},
		{
			name:      "empty request yields defaults",
			requested: []string{},
			want:      Defaults(),
		},
		{
			name:      "caller order is ignored",
			requested: []string{"courses", "education"},
			want:      []ID{Education, Courses},
		},
		{
			name:      "unknown ids are dropped",
			requested: []string{"hobbies", "theses", "articles"},
			want:      []ID{Articles, Theses},
		},
		{
			name:      "only unknown ids yields defaults",
			requested: []string{"hobbies"},
			want:      Defaults(),
		},
		{
			name:      "duplicates collapse",
			requested: []string{"books", "books", " Books "},
			want:      []ID{Books},
		},
		{
			name:      "legacy aliases",
			requested: []string{"tesis", "datos_generales", "experiencia_laboral"},
			want:      []ID{PersonalData, Employment, Theses},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.requested))
		})
	}
}

func TestTitleUnknown(t *testing.T) {
	assert.Equal(t, "hobbies", Title(ID("hobbies")))
	assert.Equal(t, "Books and Chapters", Title(Books))
}

func TestEnsure(t *testing.T) {
	assert.Equal(t, []ID{PersonalData, TechDevelopments}, Ensure([]ID{TechDevelopments}, PersonalData))
	assert.Equal(t, []ID{PersonalData, Books}, Ensure([]ID{PersonalData, Books}, PersonalData))
	assert.Equal(t, []ID{Education}, Ensure(nil, Education))
}
