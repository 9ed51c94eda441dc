package deck

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Format identifies a deck file format.
type Format int

const (
	// FormatList is the line-oriented "<count> <name>" format.
	FormatList Format = iota
	// FormatTOML is the structured format with card names as top-level keys.
	FormatTOML
)

// DetectFormat selects a Format from a file extension. Unrecognized
// extensions fall back to the decklist format.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatList
}

// ParseFile reads and parses a deck file, selecting the format by extension.
func ParseFile(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck file: %w", err)
	}
	return Parse(data, DetectFormat(path))
}

// Parse parses raw deck text in the given format.
func Parse(data []byte, f Format) (*Deck, error) {
	if f == FormatTOML {
		return parseTOML(data)
	}
	return parseList(data)
}

// sideboard markers stripped from decklist lines. Sideboard entries still
// count toward the deck; the distinction is not preserved.
var sideboardMarkers = []string{"SB:", "Sideboard:"}

func parseList(data []byte) (*Deck, error) {
	d := New()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		for _, marker := range sideboardMarkers {
			if len(line) >= len(marker) && strings.EqualFold(line[:len(marker)], marker) {
				line = strings.TrimSpace(line[len(marker):])
				break
			}
		}

		countField, name, found := strings.Cut(line, " ")
		if !found {
			return nil, &FormatError{Line: lineNo, Msg: fmt.Sprintf("expected \"<count> <name>\", got %q", line)}
		}
		count, err := strconv.Atoi(countField)
		if err != nil {
			return nil, &FormatError{Line: lineNo, Msg: fmt.Sprintf("invalid count %q", countField)}
		}
		if count < 1 {
			return nil, &FormatError{Line: lineNo, Msg: fmt.Sprintf("count must be at least 1, got %d", count)}
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &FormatError{Line: lineNo, Msg: "missing card name"}
		}
		d.Add(NewCardRef(name), count)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan deck text: %w", err)
	}
	return d, nil
}

// tomlEntry is the mapping form of a structured deck value. Fields other than
// count are accepted and ignored.
type tomlEntry struct {
	Count *int64 `toml:"count"`
	Set   string `toml:"set"`
}

func parseTOML(data []byte) (*Deck, error) {
	var raw map[string]toml.Primitive
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, &FormatError{Msg: err.Error()}
	}

	d := New()
	// md.Keys preserves source order, which the deck model must keep.
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		name := key[0]
		prim, ok := raw[name]
		if !ok {
			continue
		}

		var count int64
		var setCode string
		if err := md.PrimitiveDecode(prim, &count); err != nil {
			var entry tomlEntry
			if err := md.PrimitiveDecode(prim, &entry); err != nil {
				return nil, &FormatError{Key: name, Msg: fmt.Sprintf("value must be an integer or a table: %v", err)}
			}
			if entry.Count == nil {
				return nil, &FormatError{Key: name, Msg: "missing required field \"count\""}
			}
			count = *entry.Count
			setCode = entry.Set
		}
		if count < 1 {
			return nil, &FormatError{Key: name, Msg: fmt.Sprintf("count must be at least 1, got %d", count)}
		}

		ref := NewCardRef(name)
		ref.SetCode = setCode
		d.Add(ref, int(count))
	}
	return d, nil
}
