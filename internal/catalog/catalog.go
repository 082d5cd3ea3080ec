// Package catalog lists the overlays that can be downloaded on demand.
//
// The entries are the GISS Panoply overlays
// (https://www.giss.nasa.gov/tools/panoply/overlays/), all stored as CNOB.
package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DefaultBaseURL is where the Panoply overlays are published.
const DefaultBaseURL = "https://www.giss.nasa.gov/tools/panoply/overlays/"

var panoplyOverlays = []string{
	"MWDB_Coasts_1.cnob",
	"MWDB_Coasts_3.cnob",
	"MWDB_Coasts_Countries_1.cnob",
	"MWDB_Coasts_Countries_3.cnob",
	"MWDB_Coasts_Lakes_1.cnob",
	"MWDB_Coasts_Lakes_3.cnob",
	"MWDB_Coasts_NA_1.cnob",
	"MWDB_Coasts_NA_3.cnob",
	"MWDB_Coasts_USA_1.cnob",
	"MWDB_Coasts_USA_3.cnob",
	"MWDB_Lakes_Rivers_1.cnob",
	"MWDB_Lakes_Rivers_3.cnob",
	"Earth_5x4.cnob",
	"Earth_10x8.cnob",
	"Paleo_Cretaceous_100Ma.cnob",
	"Paleo_Paleocene_56Ma.cnob",
	"Paleo_Sturtian_750Ma.cnob",
	"Venus_MR_6052km.cnob",
}

// DefaultOverlay is drawn when a caller names no overlay.
const DefaultOverlay = "MWDB_Coasts_Countries_3.cnob"

// Catalog maps overlay names to download URLs. It is read-only after New.
type Catalog struct {
	entries map[string]string
	names   []string
}

// New builds the Panoply catalog rooted at baseURL. An empty baseURL selects
// DefaultBaseURL.
func New(baseURL string) (*Catalog, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog base URL %q: %w", baseURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	entries := make(map[string]string, len(panoplyOverlays))
	for _, name := range panoplyOverlays {
		entries[name] = base.ResolveReference(&url.URL{Path: name}).String()
	}
	return FromEntries(entries), nil
}

// FromEntries builds a catalog from an explicit name -> URL mapping.
func FromEntries(entries map[string]string) *Catalog {
	c := &Catalog{
		entries: make(map[string]string, len(entries)),
		names:   make([]string, 0, len(entries)),
	}
	for name, u := range entries {
		c.entries[name] = u
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c
}

// URL returns the download location of name.
func (c *Catalog) URL(name string) (string, bool) {
	u, ok := c.entries[name]
	return u, ok
}

// Names returns the downloadable overlay names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Coastlines returns the coastline overlay name at resolution res (1 or 3).
func Coastlines(res int) string {
	return fmt.Sprintf("MWDB_Coasts_%d.cnob", res)
}

// Countries returns the coastline and country border overlay name.
func Countries(res int) string {
	return fmt.Sprintf("MWDB_Coasts_Countries_%d.cnob", res)
}

// States returns the North American coastline, country and state overlay name.
func States(res int) string {
	return fmt.Sprintf("MWDB_Coasts_NA_%d.cnob", res)
}
