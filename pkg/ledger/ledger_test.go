package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikogura/academic-cv/pkg/config"
)

func TestPrepare(t *testing.T) {
	now := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.FixedZone("CST", -6*3600))

	entry := Prepare(Entry{ProfileID: "42"}, now)
	_, err := uuid.Parse(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, now.UTC(), entry.CreatedAt)

	kept := Prepare(Entry{ID: "fixed", CreatedAt: now}, time.Now())
	assert.Equal(t, "fixed", kept.ID)
	assert.Equal(t, now, kept.CreatedAt)
}

func TestPrepareGeneratesDistinctIDs(t *testing.T) {
	a := Prepare(Entry{}, time.Now())
	b := Prepare(Entry{}, time.Now())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewWithoutProjectIsNop(t *testing.T) {
	l, err := New(context.Background(), config.LedgerConfig{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, l)
	assert.NoError(t, l.Record(context.Background(), Entry{}))
}

func TestNewFirestoreLedgerDefaultsCollection(t *testing.T) {
	l := NewFirestoreLedger(nil, "")
	assert.Equal(t, config.DefaultLedgerCollection, l.collection)
}
