// Package catalog normalizes CJ product payloads into model.Product.
// Everything here is pure: no I/O, no clock.
package catalog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"cj-bridge/internal/model"
)

// ParseImages extracts image URLs from the shapes CJ uses for image fields:
//   - an array (each element parsed recursively)
//   - a JSON array encoded as a string: `["http://a/1.jpg","http://a/2.jpg"]`
//   - a comma-separated string: "http://a/1.jpg, http://a/2.jpg"
//   - a single URL string
//
// Anything else (null, objects, malformed JSON, non-URL text) yields nothing.
// The result is deduplicated in order and never nil.
func ParseImages(raw any) []string {
	return DedupeURLs(collectImages(raw))
}

// ParseImagesJSON is ParseImages for an undecoded JSON field.
func ParseImagesJSON(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return []string{}
	}
	return ParseImages(v)
}

func collectImages(raw any) []string {
	switch v := raw.(type) {
	case []string:
		var out []string
		for _, s := range v {
			out = append(out, collectImages(s)...)
		}
		return out
	case []any:
		var out []string
		for _, el := range v {
			out = append(out, collectImages(el)...)
		}
		return out
	case string:
		return imagesFromString(v)
	default:
		return nil
	}
}

func imagesFromString(s string) []string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "["):
		var arr []any
		if err := json.Unmarshal([]byte(s), &arr); err != nil {
			return nil
		}
		var out []string
		for _, el := range arr {
			if str, ok := el.(string); ok && strings.HasPrefix(strings.TrimSpace(str), "http") {
				out = append(out, strings.TrimSpace(str))
			}
		}
		return out
	case strings.Contains(s, ",") && strings.Contains(s, "http"):
		var out []string
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "http") {
				out = append(out, part)
			}
		}
		return out
	case strings.HasPrefix(s, "http"):
		return []string{s}
	default:
		return nil
	}
}

// DedupeURLs keeps the first occurrence of each URL and drops entries that are
// not absolute URLs. Never returns nil.
func DedupeURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if isAbsoluteURL(u) {
			out = append(out, u)
		}
	}
	return out
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// BuildImages assigns synthetic ids "{productID}-{index}" and alt text.
func BuildImages(productID, name string, urls []string) []model.Image {
	images := make([]model.Image, 0, len(urls))
	for i, u := range urls {
		alt := name
		if i > 0 {
			alt = fmt.Sprintf("%s image %d", name, i+1)
		}
		images = append(images, model.Image{
			ID:       fmt.Sprintf("%s-%d", productID, i),
			URL:      u,
			Alt:      alt,
			Position: i,
		})
	}
	return images
}
