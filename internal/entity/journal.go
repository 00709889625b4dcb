package entity

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by record stores when an id does not exist.
var ErrNotFound = errors.New("record not found")

type JournalKind string

const (
	JournalBrief      JournalKind = "brief"
	JournalContact    JournalKind = "contact"
	JournalCalculator JournalKind = "calculator"
)

// JournalEntry is the local trace of one submission and what happened on
// each channel. It is the recovery source when the record store was down.
type JournalEntry struct {
	ID          string
	Kind        JournalKind
	Operation   string
	FormType    string
	Email       string
	ExternalID  string
	Action      Action
	Score       int
	Temperature Temperature
	Channels    map[string]string
	Payload     []byte
	CreatedAt   time.Time
}

type JournalRepositoryInterface interface {
	Record(ctx context.Context, entry *JournalEntry) error
}
