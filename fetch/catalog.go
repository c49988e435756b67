package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// Catalogue endpoints, relative to the base URL.
const (
	categoriesPath = "/api/materials/categories.json"
	materialsPath  = "/api/materials/materials.json"
	favoritesPath  = "/api/materials/v1/favorites.json"
	materialPath   = "/api/materials/material.json"
)

// Render engine codes understood by the catalogue.
const (
	EngineInternal = "int"
	EngineCycles   = "cyc"
	EngineEevee    = "eve"
)

// Category is a material category.
type Category struct {
	ID   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Material is an entry of a category listing.
type Material struct {
	ID   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// MaterialDetail describes one material. Image and Storage are the URLs
// to pass to FetchImage and FetchLibrary.
type MaterialDetail struct {
	ID          int     `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Downloads   int     `json:"downloads"`
	Rating      float64 `json:"rating"`
	Votes       int     `json:"votes"`
	StorageName string  `json:"storage_name"`
	Image       string  `json:"image"`
	Storage     string  `json:"storage"`
}

// Categories returns the material categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := c.catalogue(ctx, "categories", categoriesPath, nil, &out)
	return out, err
}

// Materials returns the materials of a category for a render engine.
func (c *Client) Materials(ctx context.Context, engine string, category int) ([]Material, error) {
	q := url.Values{}
	q.Set("engine", engine)
	q.Set("category", strconv.Itoa(category))
	var out []Material
	err := c.catalogue(ctx, fmt.Sprintf("%s-cat-%d", engine, category), materialsPath, q, &out)
	return out, err
}

// Favorites returns the materials the owner of the API key marked as
// favorites.
func (c *Client) Favorites(ctx context.Context, engine, key string) ([]Material, error) {
	q := url.Values{}
	q.Set("engine", engine)
	q.Set("key", key)
	var out []Material
	err := c.catalogue(ctx, engine+"-cat-fav", favoritesPath, q, &out)
	return out, err
}

// MaterialDetail returns the description of one material.
func (c *Client) MaterialDetail(ctx context.Context, id int) (MaterialDetail, error) {
	q := url.Values{}
	q.Set("id", strconv.Itoa(id))
	var out MaterialDetail
	err := c.catalogue(ctx, "mat-"+strconv.Itoa(id), materialPath, q, &out)
	return out, err
}

// catalogue fetches a JSON document into <dir>/<name> unless a fresh copy
// is cached, then decodes it into v.
func (c *Client) catalogue(ctx context.Context, name, endpoint string, query url.Values, v any) error {
	ref := &url.URL{Path: endpoint, RawQuery: query.Encode()}
	full := c.base.ResolveReference(ref).String()
	dst := filepath.Join(c.dir, name)

	if c.Expired(dst) {
		_, err, _ := c.group.Do(dst, func() (any, error) {
			if !c.Expired(dst) {
				return nil, nil
			}
			return nil, c.download(ctx, full, dst)
		})
		if err != nil {
			return err
		}
	} else {
		c.logger.Load().Debug("fetch: cache hit", "url", full, "path", dst)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		return &IOError{Op: "read", URL: full, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		// A corrupt document must not stay fresh for a whole TTL.
		_ = os.Remove(dst)
		return &IOError{Op: "decode", URL: full, Err: err}
	}
	return nil
}
