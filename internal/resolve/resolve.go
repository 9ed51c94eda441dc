// package resolve maps deck entries to ordered printable image units.
//
// Resolution is exact-name-first with a fuzzy fallback, and combined-name-first
// with a split fallback for "Front // Back" references. The output ordering is
// deterministic: cards in deck order, faces front-first, copies in request
// order within each face.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cardforge/proxysheet/internal/deck"
	"github.com/cardforge/proxysheet/internal/scryfall"
	"github.com/cardforge/proxysheet/internal/shared"
)

// Catalog is the external lookup collaborator. Named must return
// shared.ErrCardNotFound (possibly wrapped) on a miss; Fuzzy must only return
// matches above the collaborator's similarity threshold.
type Catalog interface {
	Named(ctx context.Context, name string) (*scryfall.Card, error)
	Fuzzy(ctx context.Context, name string) (*scryfall.Card, error)
}

// ImageUnit is one physical card-image placement: a specific face of a
// specific copy of a specific card.
type ImageUnit struct {
	CardID    string
	CardName  string
	FaceIndex int
	FaceName  string
	CopyIndex int
	URL       string
	CacheKey  string
}

// UnresolvedCardError reports a card reference with no acceptable catalog match.
type UnresolvedCardError struct {
	Ref deck.CardRef
	Err error
}

func (e *UnresolvedCardError) Error() string {
	return fmt.Sprintf("unresolved card %q: %v", e.Ref.Name, e.Err)
}

func (e *UnresolvedCardError) Unwrap() error { return e.Err }

// Options configures a Resolver.
type Options struct {
	// SkipUnresolved collects unresolved references instead of aborting.
	SkipUnresolved bool
	Logger         *log.Logger
}

// Resolver expands a deck into image units using a catalog. Resolution
// results are memoized for the resolver's lifetime, so identical references
// hit the catalog exactly once.
type Resolver struct {
	catalog        Catalog
	logger         *log.Logger
	skipUnresolved bool
	memo           map[string]*scryfall.Card
}

// New creates a Resolver over the given catalog.
func New(catalog Catalog, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{
		catalog:        catalog,
		logger:         logger,
		skipUnresolved: opts.SkipUnresolved,
		memo:           make(map[string]*scryfall.Card),
	}
}

// Result holds the ordered image units and, in skip-unresolved mode, the
// references that could not be resolved.
type Result struct {
	Units      []ImageUnit
	Unresolved []*UnresolvedCardError
}

// Resolve maps every deck entry to its image units. Without skip-unresolved
// mode the first unmatched reference aborts the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, d *deck.Deck) (*Result, error) {
	result := &Result{}
	for _, entry := range d.Entries() {
		card, err := r.resolveRef(ctx, entry.Ref)
		if err != nil {
			uerr := &UnresolvedCardError{Ref: entry.Ref, Err: err}
			if !r.skipUnresolved {
				return nil, uerr
			}
			r.logger.Warn("skipping unresolved card", "name", entry.Ref.Name)
			result.Unresolved = append(result.Unresolved, uerr)
			continue
		}
		result.Units = append(result.Units, Expand(card, entry.Count)...)
	}
	return result, nil
}

// ResolveRef resolves a single reference, memoized. Used by incremental
// callers that add cards one at a time.
func (r *Resolver) ResolveRef(ctx context.Context, ref deck.CardRef) (*scryfall.Card, error) {
	return r.resolveRef(ctx, ref)
}

func (r *Resolver) resolveRef(ctx context.Context, ref deck.CardRef) (*scryfall.Card, error) {
	if card, ok := r.memo[ref.Normalized]; ok {
		return card, nil
	}
	card, err := r.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	r.memo[ref.Normalized] = card
	return card, nil
}

func (r *Resolver) lookup(ctx context.Context, ref deck.CardRef) (*scryfall.Card, error) {
	card, err := r.catalog.Named(ctx, ref.Name)
	switch {
	case err == nil:
		if ref.IsMultiFace() {
			r.warnSplitAmbiguity(ctx, ref)
		}
		return card, nil
	case !errors.Is(err, shared.ErrCardNotFound):
		return nil, err
	}

	if ref.IsMultiFace() {
		if card, err := r.resolveSplit(ctx, ref); err == nil {
			return card, nil
		}
	}

	card, err = r.catalog.Fuzzy(ctx, ref.Name)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// resolveSplit resolves each half of a combined name independently and
// synthesizes a two-face record. Both halves must match exactly.
func (r *Resolver) resolveSplit(ctx context.Context, ref deck.CardRef) (*scryfall.Card, error) {
	names := ref.FaceNames()
	if len(names) != 2 {
		return nil, fmt.Errorf("%w: expected two face names in %q", shared.ErrCardNotFound, ref.Name)
	}
	left, err := r.catalog.Named(ctx, names[0])
	if err != nil {
		return nil, err
	}
	right, err := r.catalog.Named(ctx, names[1])
	if err != nil {
		return nil, err
	}
	return synthesize(left, right), nil
}

// warnSplitAmbiguity flags references matched by both the combined-name path
// and the split path. The combined match wins; the warning replaces guessing.
func (r *Resolver) warnSplitAmbiguity(ctx context.Context, ref deck.CardRef) {
	if _, err := r.resolveSplit(ctx, ref); err == nil {
		r.logger.Warn("reference matches both combined and split names, using combined",
			"name", ref.Name)
	}
}

// splitNamespace is the uuid v5 namespace for synthesized two-face records,
// keeping their identifiers (and therefore cache keys) deterministic.
var splitNamespace = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")

func synthesize(left, right *scryfall.Card) *scryfall.Card {
	faces := make([]scryfall.CardFace, 0, 2)
	for _, half := range []*scryfall.Card{left, right} {
		for _, f := range half.Faces() {
			faces = append(faces, scryfall.CardFace{
				Name:      f.Name,
				ImageURIs: &scryfall.ImageURIs{PNG: f.URL},
			})
			break
		}
	}
	return &scryfall.Card{
		ID:        uuid.NewSHA1(splitNamespace, []byte(left.ID+"//"+right.ID)).String(),
		Name:      left.Name + " // " + right.Name,
		Layout:    "split",
		CardFaces: faces,
	}
}

// Expand produces the image units for count copies of a card: for each face,
// front first, all copies in request order.
func Expand(card *scryfall.Card, count int) []ImageUnit {
	faces := card.Faces()
	units := make([]ImageUnit, 0, len(faces)*count)
	for faceIdx, face := range faces {
		for copyIdx := 0; copyIdx < count; copyIdx++ {
			units = append(units, ImageUnit{
				CardID:    card.ID,
				CardName:  card.Name,
				FaceIndex: faceIdx,
				FaceName:  face.Name,
				CopyIndex: copyIdx,
				URL:       face.URL,
				CacheKey:  CacheKey(card.ID, faceIdx),
			})
		}
	}
	return units
}

// CacheKey derives the stable cache key for one face of a card. The key is
// built from the card identifier, not the image URL, so catalog URL changes
// do not invalidate cached images.
func CacheKey(cardID string, faceIndex int) string {
	return fmt.Sprintf("%s_%d.png", cardID, faceIndex)
}
