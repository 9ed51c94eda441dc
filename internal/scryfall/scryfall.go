// package scryfall implements the card catalog client against the Scryfall API.
//
// Only the named-card endpoints are used: exact lookup and server-side fuzzy
// lookup. Both return a single card record or a not-found error; the resolver
// decides what to do with misses.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/cardforge/proxysheet/internal/shared"
)

const DefaultBaseURL = "https://api.scryfall.com"

// ImageURIs holds the image renditions Scryfall offers for a card or face.
type ImageURIs struct {
	Small  string `json:"small"`
	Normal string `json:"normal"`
	Large  string `json:"large"`
	PNG    string `json:"png"`
}

// CardFace is one face of a multi-face card.
type CardFace struct {
	Name      string     `json:"name"`
	ImageURIs *ImageURIs `json:"image_uris"`
}

// Card is the resolved identity of a card reference against the catalog.
type Card struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Layout    string     `json:"layout"`
	ImageURIs *ImageURIs `json:"image_uris"`
	CardFaces []CardFace `json:"card_faces"`
}

// FaceImage is one printable face with its source image URL.
type FaceImage struct {
	Name string
	URL  string
}

// Faces returns the printable faces of the card in front-to-back order.
//
// Transform and modal cards carry one image per face; split and adventure
// cards carry a single combined image at the card level, which counts as one
// printable face covering both halves.
func (c *Card) Faces() []FaceImage {
	if len(c.CardFaces) > 0 && c.CardFaces[0].ImageURIs != nil {
		faces := make([]FaceImage, 0, len(c.CardFaces))
		for _, f := range c.CardFaces {
			if f.ImageURIs == nil {
				continue
			}
			faces = append(faces, FaceImage{Name: f.Name, URL: f.ImageURIs.PNG})
		}
		return faces
	}
	if c.ImageURIs != nil {
		return []FaceImage{{Name: c.Name, URL: c.ImageURIs.PNG}}
	}
	return nil
}

// Client talks to the Scryfall API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a catalog client. A nil http.Client falls back to
// http.DefaultClient; an empty base URL falls back to the public API.
func NewClient(baseURL string, client *http.Client, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: client, userAgent: userAgent}
}

// Named looks up a card by exact name.
func (c *Client) Named(ctx context.Context, name string) (*Card, error) {
	return c.named(ctx, url.Values{"exact": {name}})
}

// Fuzzy looks up a card by approximate name. Scryfall applies its own
// similarity threshold and returns 404 for ambiguous or distant queries.
func (c *Client) Fuzzy(ctx context.Context, name string) (*Card, error) {
	return c.named(ctx, url.Values{"fuzzy": {name}})
}

func (c *Client) named(ctx context.Context, query url.Values) (*Card, error) {
	var card Card
	if err := c.get(ctx, "/cards/named?"+query.Encode(), &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrCardNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", shared.ErrCatalogUnavailable, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}
