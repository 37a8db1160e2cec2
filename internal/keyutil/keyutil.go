// Package keyutil holds the pure key-namespacing transforms.
package keyutil

import "strings"

// Compose prefixes raw with the namespace: "ns:raw". An empty namespace
// returns raw unchanged. The prefix is applied unconditionally, even when raw
// already starts with "ns:", so composition stays deterministic and
// Decompose always inverts it.
func Compose(ns, raw string) string {
	if ns == "" {
		return raw
	}
	return ns + ":" + raw
}

// Decompose strips exactly one leading "ns:" from full when present;
// otherwise it returns full unchanged. Used to report raw keys back to
// callers after pattern discovery.
func Decompose(ns, full string) string {
	if ns == "" {
		return full
	}
	prefix := ns + ":"
	if strings.HasPrefix(full, prefix) {
		return full[len(prefix):]
	}
	return full
}

// Join colon-joins the non-empty segments, for building layered namespaces
// like "app:prod:user".
func Join(segments ...string) string {
	parts := segments[:0:0]
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ":")
}
