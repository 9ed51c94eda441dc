package deck

import (
	"fmt"
	"io"
	"strings"
)

// EncodeList writes the deck in the decklist format, one "<count> <name>"
// line per entry in deck order.
func (d *Deck) EncodeList(w io.Writer) error {
	for _, e := range d.entries {
		if _, err := fmt.Fprintf(w, "%d %s\n", e.Count, e.Ref.Name); err != nil {
			return fmt.Errorf("failed to write deck entry: %w", err)
		}
	}
	return nil
}

// EncodeTOML writes the deck in the structured format. Entries with a set
// code use the table form; the rest use the bare integer form. Keys are
// always quoted so names containing "//" stay valid TOML.
func (d *Deck) EncodeTOML(w io.Writer) error {
	for _, e := range d.entries {
		var err error
		if e.Ref.SetCode != "" {
			_, err = fmt.Fprintf(w, "[%s]\ncount = %d\nset = %q\n", quoteKey(e.Ref.Name), e.Count, e.Ref.SetCode)
		} else {
			_, err = fmt.Fprintf(w, "%s = %d\n", quoteKey(e.Ref.Name), e.Count)
		}
		if err != nil {
			return fmt.Errorf("failed to write deck entry: %w", err)
		}
	}
	return nil
}

func quoteKey(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `\"`) + `"`
}

// Encode writes the deck in the given format.
func (d *Deck) Encode(w io.Writer, f Format) error {
	if f == FormatTOML {
		return d.EncodeTOML(w)
	}
	return d.EncodeList(w)
}
