// package deck contains the normalized in-memory deck model and the two
// textual deck formats.
//
// A Deck is an ordered list of entries, one per distinct card reference.
// Lookup and merging are by normalized name, so "2 Forest" followed by
// "3 forest" collapses into a single entry with count 5 while keeping the
// position of the first occurrence.
package deck

import (
	"fmt"
	"strings"
)

// CardRef identifies a card by name. Equality and lookup use the normalized
// form; the raw name and the optional set code are carried through untouched.
type CardRef struct {
	Name       string
	Normalized string
	SetCode    string
}

// NewCardRef builds a CardRef from a raw name as written in a deck file.
func NewCardRef(name string) CardRef {
	name = strings.TrimSpace(name)
	return CardRef{
		Name:       name,
		Normalized: NormalizeName(name),
	}
}

// NormalizeName folds case and collapses interior whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// IsMultiFace reports whether the reference names a multi-face card
// ("Front // Back"). The combined name is kept verbatim for the resolver.
func (r CardRef) IsMultiFace() bool {
	return strings.Contains(r.Name, "//")
}

// FaceNames splits a combined multi-face name into its halves. A single-faced
// reference returns itself as the only element.
func (r CardRef) FaceNames() []string {
	if !r.IsMultiFace() {
		return []string{r.Name}
	}
	parts := strings.Split(r.Name, "//")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Entry pairs a card reference with the number of copies requested.
type Entry struct {
	Ref   CardRef
	Count int
}

// Deck is an ordered collection of entries with no duplicate references.
type Deck struct {
	entries []Entry
	index   map[string]int
}

// New creates an empty Deck.
func New() *Deck {
	return &Deck{index: make(map[string]int)}
}

// Add inserts count copies of ref, merging with an existing entry for the
// same normalized name.
func (d *Deck) Add(ref CardRef, count int) {
	if i, ok := d.index[ref.Normalized]; ok {
		d.entries[i].Count += count
		return
	}
	d.index[ref.Normalized] = len(d.entries)
	d.entries = append(d.entries, Entry{Ref: ref, Count: count})
}

// Entries returns the deck entries in first-occurrence order.
func (d *Deck) Entries() []Entry {
	return d.entries
}

// Len returns the number of distinct card references.
func (d *Deck) Len() int {
	return len(d.entries)
}

// Size returns the total number of requested copies across all entries.
func (d *Deck) Size() int {
	n := 0
	for _, e := range d.entries {
		n += e.Count
	}
	return n
}

// FormatError reports malformed deck text. Line is 1-based and set for the
// decklist format; Key is set for the structured format.
type FormatError struct {
	Line int
	Key  string
	Msg  string
}

func (e *FormatError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("deck format error at line %d: %s", e.Line, e.Msg)
	case e.Key != "":
		return fmt.Sprintf("deck format error at key %q: %s", e.Key, e.Msg)
	default:
		return fmt.Sprintf("deck format error: %s", e.Msg)
	}
}
