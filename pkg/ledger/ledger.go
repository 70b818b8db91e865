// Package ledger records every stored CV so generations can be audited later.
package ledger

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nikogura/academic-cv/pkg/config"
)

// Entry describes one stored document.
type Entry struct {
	ID        string    `firestore:"id" json:"id"`
	ProfileID string    `firestore:"profileId" json:"profile_id"`
	FileName  string    `firestore:"fileName" json:"file_name"`
	Location  string    `firestore:"location" json:"location"`
	Template  string    `firestore:"template" json:"template"`
	Format    string    `firestore:"format" json:"format"`
	Sections  []string  `firestore:"sections" json:"sections"`
	Pages     int       `firestore:"pages" json:"pages"`
	Bytes     int       `firestore:"bytes" json:"bytes"`
	CreatedAt time.Time `firestore:"createdAt" json:"created_at"`
}

// Ledger stores entries.
type Ledger interface {
	Record(ctx context.Context, entry Entry) (err error)
}

// Prepare fills in the ID and timestamp when they are missing.
func Prepare(entry Entry, now time.Time) (out Entry) {
	out = entry
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now.UTC()
	}
	return out
}

// Nop discards entries. It is used when no ledger is configured.
type Nop struct{}

// Record does nothing.
func (Nop) Record(context.Context, Entry) (err error) {
	return err
}

// FirestoreLedger writes entries as documents keyed by entry ID.
type FirestoreLedger struct {
	client     *firestore.Client
	collection string
}

// New returns a Firestore ledger when cfg names a project, and Nop otherwise.
func New(ctx context.Context, cfg config.LedgerConfig) (l Ledger, err error) {
	if cfg.ProjectID == "" {
		l = Nop{}
		return l, err
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		err = errors.Wrap(err, "failed to create Firestore client")
		return l, err
	}

	l = NewFirestoreLedger(client, cfg.Collection)
	return l, err
}

// NewFirestoreLedger wraps an existing client.
func NewFirestoreLedger(client *firestore.Client, collection string) (l *FirestoreLedger) {
	if collection == "" {
		collection = config.DefaultLedgerCollection
	}
	l = &FirestoreLedger{client: client, collection: collection}
	return l
}

// Record creates the entry's document. Recording the same ID twice fails.
func (l *FirestoreLedger) Record(ctx context.Context, entry Entry) (err error) {
	entry = Prepare(entry, time.Now())

	_, err = l.client.Collection(l.collection).Doc(entry.ID).Create(ctx, entry)
	if err != nil {
		err = errors.Wrapf(err, "failed to record generation %s", entry.ID)
		return err
	}

	return err
}

// Close releases the Firestore client.
func (l *FirestoreLedger) Close() (err error) {
	err = l.client.Close()
	return err
}
