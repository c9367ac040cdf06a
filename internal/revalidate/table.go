// Package revalidate maps CMS document changes to site paths and drops the
// cached output for those paths.
package revalidate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const slugPlaceholder = "{slug}"

// TopLevelPaths lists every top-level page of the site.
var TopLevelPaths = []string{"/", "/about", "/services", "/blog", "/contact"}

// Table maps a CMS document type to the path templates it affects.
type Table map[string][]string

// DefaultTable is the document type mapping used by the webhook.
var DefaultTable = Table{
	"post":         {"/", "/blog", "/blog/{slug}"},
	"page":         {"/", "/{slug}"},
	"service":      {"/services", "/services/{slug}"},
	"author":       {"/blog"},
	"category":     {"/blog"},
	"siteSettings": TopLevelPaths,
	"navigation":   TopLevelPaths,
}

// FallbackPaths are invalidated for document types missing from the table.
var FallbackPaths = []string{"/"}

// Paths expands the templates for docType. Templates that need a slug are
// skipped when slug is empty. The result has no duplicates and keeps the
// table order.
func (t Table) Paths(docType, slug string) []string {
	templates, ok := t[docType]
	if !ok {
		templates = FallbackPaths
	}
	slug = strings.Trim(strings.TrimSpace(slug), "/")

	seen := make(map[string]struct{}, len(templates))
	out := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		if strings.Contains(tmpl, slugPlaceholder) {
			if slug == "" {
				continue
			}
			tmpl = strings.ReplaceAll(tmpl, slugPlaceholder, slug)
		}
		if _, dup := seen[tmpl]; dup {
			continue
		}
		seen[tmpl] = struct{}{}
		out = append(out, tmpl)
	}
	return out
}

// Slug accepts either a plain JSON string or a CMS slug object
// {"current": "..."}.
type Slug string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Slug) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var plain string
		if err := json.Unmarshal(data, &plain); err != nil {
			return fmt.Errorf("decode slug: %w", err)
		}
		*s = Slug(plain)
		return nil
	}
	var obj struct {
		Current string `json:"current"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode slug: %w", err)
	}
	*s = Slug(obj.Current)
	return nil
}

// Request is the webhook payload sent by the CMS.
type Request struct {
	Type string `json:"_type"`
	Slug Slug   `json:"slug"`
}
