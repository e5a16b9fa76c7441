package draft

import (
	"strings"

	"congregation/internal/domain/attendance"
	"congregation/internal/domain/failure"
)

// KeyPrefix prefixes every date-keyed snapshot key.
const KeyPrefix = "attendance-"

// Editable field names accepted by Board.Update.
const (
	FieldName       = "name"
	FieldPhone      = "phone"
	FieldLocation   = "location"
	FieldBirthday   = "birthday"
	FieldFellowship = "fellowship"
	FieldFirstTimer = "firstTimer"
)

// Entry is an attendance record being composed at the entry desk.
type Entry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Location   string `json:"location"`
	Birthday   string `json:"birthday"`
	Fellowship string `json:"fellowship"`
	FirstTimer bool   `json:"firstTimer"`
}

// IsComplete reports whether every required field is non-empty after trimming.
func (e Entry) IsComplete() bool {
	return strings.TrimSpace(e.Name) != "" &&
		strings.TrimSpace(e.Phone) != "" &&
		strings.TrimSpace(e.Location) != "" &&
		strings.TrimSpace(e.Birthday) != "" &&
		strings.TrimSpace(e.Fellowship) != ""
}

// ToRecord stamps the entry with a creation date and attendance status.
// PRE: e.IsComplete()
// POST: Returns a normalized record ready for the store adapter
func (e Entry) ToRecord(date, status string) attendance.Record {
	r := attendance.Record{
		Date:           date,
		Name:           e.Name,
		Phone:          e.Phone,
		Location:       e.Location,
		Birthday:       e.Birthday,
		Fellowship:     e.Fellowship,
		FirstTimer:     e.FirstTimer,
		AttendanceDate: date,
		Status:         status,
	}
	r.Normalize()
	return r
}

// Snapshot is the persisted form of a board for one calendar day.
type Snapshot struct {
	Entries       []Entry  `json:"entries"`
	MarkedPresent []string `json:"markedPresent"`
	Date          string   `json:"date"`
}

// KeyFor returns the snapshot key for a YYYY-MM-DD date.
func KeyFor(date string) string {
	return KeyPrefix + date
}

// DateFromKey extracts the date from a snapshot key.
func DateFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, KeyPrefix), true
}

// Board holds the working set of drafts for one day.
// INVARIANT: len(Entries) >= 1 after any exported mutation
type Board struct {
	Entries   []Entry
	Present   map[string]bool
	EditingID string
	newID     func() string
}

// NewBoard returns a board with a single empty entry.
func NewBoard(newID func() string) *Board {
	b := &Board{Present: make(map[string]bool), newID: newID}
	b.Entries = []Entry{b.blank()}
	return b
}

// FromSnapshot rebuilds a board from persisted state.
// An empty entry list is replaced by one blank entry; unknown present IDs are dropped.
func FromSnapshot(s Snapshot, newID func() string) *Board {
	b := &Board{Present: make(map[string]bool), newID: newID}
	b.Entries = append([]Entry(nil), s.Entries...)
	if len(b.Entries) == 0 {
		b.Entries = []Entry{b.blank()}
	}
	for _, id := range s.MarkedPresent {
		if b.index(id) >= 0 {
			b.Present[id] = true
		}
	}
	return b
}

// Snapshot captures the board for persistence under date.
func (b *Board) Snapshot(date string) Snapshot {
	marked := make([]string, 0, len(b.Present))
	// Keep entry order so snapshots are stable.
	for _, e := range b.Entries {
		if b.Present[e.ID] {
			marked = append(marked, e.ID)
		}
	}
	return Snapshot{
		Entries:       append([]Entry(nil), b.Entries...),
		MarkedPresent: marked,
		Date:          date,
	}
}

func (b *Board) blank() Entry {
	return Entry{ID: b.newID()}
}

func (b *Board) index(id string) int {
	for i, e := range b.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Add prepends an empty draft and returns it.
func (b *Board) Add() Entry {
	e := b.blank()
	b.Entries = append([]Entry{e}, b.Entries...)
	return e
}

// Remove deletes the draft with id when more than one draft remains.
// Returns false when nothing was removed.
func (b *Board) Remove(id string) bool {
	if len(b.Entries) <= 1 {
		return false
	}
	i := b.index(id)
	if i < 0 {
		return false
	}
	b.Entries = append(b.Entries[:i], b.Entries[i+1:]...)
	delete(b.Present, id)
	b.EditingID = ""
	return true
}

// ToggleEdit puts the draft into edit mode, or leaves edit mode if it already is.
func (b *Board) ToggleEdit(id string) error {
	if b.index(id) < 0 {
		return failure.Validation("draft not found")
	}
	if b.EditingID == id {
		b.EditingID = ""
	} else {
		b.EditingID = id
	}
	return nil
}

// Update sets one field on the draft currently in edit mode.
func (b *Board) Update(id, field, value string) (Entry, error) {
	i := b.index(id)
	if i < 0 {
		return Entry{}, failure.Validation("draft not found")
	}
	if b.EditingID != id {
		return Entry{}, failure.Validation("draft is not in edit mode")
	}
	e := &b.Entries[i]
	switch field {
	case FieldName:
		e.Name = value
	case FieldPhone:
		e.Phone = value
	case FieldLocation:
		e.Location = value
	case FieldBirthday:
		e.Birthday = value
	case FieldFellowship:
		e.Fellowship = value
	case FieldFirstTimer:
		e.FirstTimer = attendance.ParseFirstTimer(value)
	default:
		return Entry{}, failure.Validation("unknown field: " + field)
	}
	return *e, nil
}

// TogglePresent flips the draft's membership in the present set.
func (b *Board) TogglePresent(id string) (bool, error) {
	if b.index(id) < 0 {
		return false, failure.Validation("draft not found")
	}
	if b.Present[id] {
		delete(b.Present, id)
		return false, nil
	}
	b.Present[id] = true
	return true, nil
}

// Qualifying returns complete drafts whose present flag equals present.
func (b *Board) Qualifying(present bool) []Entry {
	var out []Entry
	for _, e := range b.Entries {
		if b.Present[e.ID] == present && e.IsComplete() {
			out = append(out, e)
		}
	}
	return out
}

// Discard removes submitted drafts and clears their present flags.
// A board left empty gets a single blank entry.
func (b *Board) Discard(submitted []Entry) {
	gone := make(map[string]bool, len(submitted))
	for _, e := range submitted {
		gone[e.ID] = true
		delete(b.Present, e.ID)
	}
	kept := b.Entries[:0]
	for _, e := range b.Entries {
		if !gone[e.ID] {
			kept = append(kept, e)
		}
	}
	b.Entries = kept
	if len(b.Entries) == 0 {
		b.Entries = []Entry{b.blank()}
	}
	if gone[b.EditingID] {
		b.EditingID = ""
	}
}

// Replace swaps in a new draft set, dropping present flags and edit mode.
func (b *Board) Replace(entries []Entry) {
	b.Entries = append([]Entry(nil), entries...)
	if len(b.Entries) == 0 {
		b.Entries = []Entry{b.blank()}
	}
	b.Present = make(map[string]bool)
	b.EditingID = ""
}
