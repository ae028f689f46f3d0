// Package timeline is the ordered, append-only log of project messages with
// per-record rendering classification.
package timeline

import (
	"strings"
	"sync"
	"time"

	"github.com/VarunWeb6/ALEX-AI/internal/api"
)

// AutomatedID is the distinguished sender id of the automated participant.
const AutomatedID = "alex-ai"

// Sender is a tagged variant: a human collaborator or the automated
// participant. Resolved once at ingestion, never re-derived downstream.
type Sender struct {
	automated bool
	User      api.UserRef
}

func Human(u api.UserRef) Sender {
	return Sender{User: u}
}

func AutomatedSender() Sender {
	return Sender{automated: true, User: api.UserRef{ID: AutomatedID, Email: "alex-ai"}}
}

// ResolveSender maps a wire-level sender ref onto the variant.
func ResolveSender(u api.UserRef) Sender {
	if u.ID == AutomatedID || strings.EqualFold(u.Email, "alex-ai") {
		return Sender{automated: true, User: u}
	}
	return Human(u)
}

func (s Sender) Automated() bool { return s.automated }

// Side marks whether a record belongs to the local user or a peer.
type Side string

const (
	SideSelf Side = "self"
	SidePeer Side = "peer"
)

// Record is one timeline entry. Immutable after append: Side and Kind are
// derived exactly once. Body is the raw wire body; Text is the displayable
// text (the parsed payload text for automated messages, otherwise Body).
type Record struct {
	ID     string
	Sender Sender
	Body   string
	Text   string
	Side   Side
	Kind   Kind
	At     time.Time
}

// NewRecord builds a fully classified record. selfID is the local user's id;
// the automated participant is never "self".
func NewRecord(id string, sender Sender, body, selfID string) Record {
	side := SidePeer
	if !sender.Automated() && sender.User.ID == selfID {
		side = SideSelf
	}
	kind, text := Classify(sender, body)
	return Record{
		ID:     id,
		Sender: sender,
		Body:   body,
		Text:   text,
		Side:   side,
		Kind:   kind,
		At:     time.Now(),
	}
}

// Timeline is an append-only sequence of records in receipt/send order. No
// reordering, no in-place mutation, no removal. Records carrying a
// correlation id are deduplicated: the server echo of an optimistically
// appended send is dropped.
type Timeline struct {
	mu      sync.Mutex
	records []Record
	seen    map[string]struct{}
}

func New() *Timeline {
	return &Timeline{seen: make(map[string]struct{})}
}

// Append adds rec unless its correlation id was already appended. Returns
// true when the record was added.
func (t *Timeline) Append(rec Record) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec.ID != "" {
		if _, dup := t.seen[rec.ID]; dup {
			return false
		}
		t.seen[rec.ID] = struct{}{}
	}
	t.records = append(t.records, rec)
	return true
}

// Records returns a snapshot of the log in append order.
func (t *Timeline) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}
