package deck

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewCardRef(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantNormalized string
		wantMultiFace  bool
	}{
		{"simple name", "Forest", "forest", false},
		{"case and whitespace folded", "  Brutal   CATHAR ", "brutal cathar", false},
		{"multi-face name kept verbatim", "Brutal Cathar // Moonrage Brute", "brutal cathar // moonrage brute", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := NewCardRef(tt.input)
			if ref.Normalized != tt.wantNormalized {
				t.Errorf("Normalized = %q, want %q", ref.Normalized, tt.wantNormalized)
			}
			if ref.IsMultiFace() != tt.wantMultiFace {
				t.Errorf("IsMultiFace() = %v, want %v", ref.IsMultiFace(), tt.wantMultiFace)
			}
		})
	}
}

func TestCardRefFaceNames(t *testing.T) {
	ref := NewCardRef("Brutal Cathar // Moonrage Brute")
	want := []string{"Brutal Cathar", "Moonrage Brute"}
	if diff := cmp.Diff(want, ref.FaceNames()); diff != "" {
		t.Errorf("FaceNames() mismatch (-want +got):\n%s", diff)
	}

	single := NewCardRef("Forest")
	if diff := cmp.Diff([]string{"Forest"}, single.FaceNames()); diff != "" {
		t.Errorf("FaceNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestDeckAdd(t *testing.T) {
	d := New()
	d.Add(NewCardRef("Forest"), 2)
	d.Add(NewCardRef("Island"), 1)
	d.Add(NewCardRef("forest"), 3)

	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
	if d.Size() != 6 {
		t.Errorf("Size() = %d, want 6", d.Size())
	}

	entries := d.Entries()
	if entries[0].Ref.Name != "Forest" || entries[0].Count != 5 {
		t.Errorf("entry 0 = %v, want Forest x5", entries[0])
	}
	if entries[1].Ref.Name != "Island" || entries[1].Count != 1 {
		t.Errorf("entry 1 = %v, want Island x1", entries[1])
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantEntries int
		wantSize    int
		wantErrLine int
	}{
		{
			name:        "basic decklist",
			input:       "4 Forest\n2 Island\n",
			wantEntries: 2,
			wantSize:    6,
		},
		{
			name:        "comments and blanks skipped",
			input:       "# a comment\n\n// another comment\n4 Forest\n",
			wantEntries: 1,
			wantSize:    4,
		},
		{
			name:        "sideboard marker counted but not preserved",
			input:       "4 Forest\nSB: 2 Island\n",
			wantEntries: 2,
			wantSize:    6,
		},
		{
			name:        "duplicates merged",
			input:       "2 Forest\n3 Forest\n",
			wantEntries: 1,
			wantSize:    5,
		},
		{
			name:        "multi-face names preserved",
			input:       "2 Brutal Cathar // Moonrage Brute\n",
			wantEntries: 1,
			wantSize:    2,
		},
		{
			name:        "bad count reports line number",
			input:       "4 Forest\ntwo Island\n",
			wantErrLine: 2,
		},
		{
			name:        "zero count rejected",
			input:       "0 Forest\n",
			wantErrLine: 1,
		},
		{
			name:        "missing name rejected",
			input:       "4\n",
			wantErrLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse([]byte(tt.input), FormatList)
			if tt.wantErrLine > 0 {
				var ferr *FormatError
				if !errors.As(err, &ferr) {
					t.Fatalf("expected FormatError, got %v", err)
				}
				if ferr.Line != tt.wantErrLine {
					t.Errorf("error line = %d, want %d", ferr.Line, tt.wantErrLine)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if d.Len() != tt.wantEntries {
				t.Errorf("Len() = %d, want %d", d.Len(), tt.wantEntries)
			}
			if d.Size() != tt.wantSize {
				t.Errorf("Size() = %d, want %d", d.Size(), tt.wantSize)
			}
		})
	}
}

func TestParseListOrder(t *testing.T) {
	d, err := Parse([]byte("1 Swamp\n1 Forest\n1 Island\n2 Swamp\n"), FormatList)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	var got []string
	for _, e := range d.Entries() {
		got = append(got, e.Ref.Name)
	}
	want := []string{"Swamp", "Forest", "Island"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTOML(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantEntries int
		wantSize    int
		wantErrKey  string
	}{
		{
			name:        "bare integer values",
			input:       "\"Forest\" = 4\n\"Island\" = 2\n",
			wantEntries: 2,
			wantSize:    6,
		},
		{
			name:        "table with count",
			input:       "[\"Brutal Cathar // Moonrage Brute\"]\ncount = 2\nset = \"mid\"\n",
			wantEntries: 1,
			wantSize:    2,
		},
		{
			name:        "extra table fields ignored",
			input:       "[\"Forest\"]\ncount = 4\nfoil = true\n",
			wantEntries: 1,
			wantSize:    4,
		},
		{
			name:       "missing count is an error",
			input:      "[\"Forest\"]\nset = \"mid\"\n",
			wantErrKey: "Forest",
		},
		{
			name:        "duplicate keys after normalization merged",
			input:       "\"Forest\" = 2\n\"FOREST\" = 3\n",
			wantEntries: 1,
			wantSize:    5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse([]byte(tt.input), FormatTOML)
			if tt.wantErrKey != "" {
				var ferr *FormatError
				if !errors.As(err, &ferr) {
					t.Fatalf("expected FormatError, got %v", err)
				}
				if ferr.Key != tt.wantErrKey {
					t.Errorf("error key = %q, want %q", ferr.Key, tt.wantErrKey)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if d.Len() != tt.wantEntries {
				t.Errorf("Len() = %d, want %d", d.Len(), tt.wantEntries)
			}
			if d.Size() != tt.wantSize {
				t.Errorf("Size() = %d, want %d", d.Size(), tt.wantSize)
			}
		})
	}
}

func TestParseTOMLOrder(t *testing.T) {
	input := "\"Swamp\" = 1\n\"Forest\" = 1\n\"Island\" = 1\n"
	d, err := Parse([]byte(input), FormatTOML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	var got []string
	for _, e := range d.Entries() {
		got = append(got, e.Ref.Name)
	}
	want := []string{"Swamp", "Forest", "Island"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry order mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"deck.toml", FormatTOML},
		{"deck.TOML", FormatTOML},
		{"deck.txt", FormatList},
		{"deck.dec", FormatList},
		{"deck", FormatList},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.path); got != tt.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	source := "4 Forest\n2 Brutal Cathar // Moonrage Brute\n1 Swamp\n"
	original, err := Parse([]byte(source), FormatList)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for _, format := range []Format{FormatList, FormatTOML} {
		var buf bytes.Buffer
		if err := original.Encode(&buf, format); err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		reparsed, err := Parse(buf.Bytes(), format)
		if err != nil {
			t.Fatalf("reparse error = %v\ntext:\n%s", err, buf.String())
		}
		if diff := cmp.Diff(original.Entries(), reparsed.Entries()); diff != "" {
			t.Errorf("format %v round trip mismatch (-want +got):\n%s", format, diff)
		}
	}
}

func TestEncodeTOMLQuotesMultiFaceNames(t *testing.T) {
	d := New()
	d.Add(NewCardRef("Brutal Cathar // Moonrage Brute"), 2)
	var buf bytes.Buffer
	if err := d.EncodeTOML(&buf); err != nil {
		t.Fatalf("EncodeTOML() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"Brutal Cathar // Moonrage Brute" = 2`) {
		t.Errorf("unexpected TOML output:\n%s", buf.String())
	}
}
