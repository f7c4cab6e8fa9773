package httpwire

import "net/textproto"

// Header is a case-insensitive multimap of header fields, keyed by
// their canonical MIME form so that lookups don't depend on how the
// client capitalized the field name.
type Header map[string][]string

// Add appends value under key's canonical form.
func (h Header) Add(key, value string) {
	key = textproto.CanonicalMIMEHeaderKey(key)
	h[key] = append(h[key], value)
}

// Set replaces any existing values for key.
func (h Header) Set(key, value string) {
	h[textproto.CanonicalMIMEHeaderKey(key)] = []string{value}
}

// Get returns the first value for key, or "" if absent.
func (h Header) Get(key string) string {
	v := h[textproto.CanonicalMIMEHeaderKey(key)]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Values returns all values for key.
func (h Header) Values(key string) []string {
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

// Del removes all values for key.
func (h Header) Del(key string) {
	delete(h, textproto.CanonicalMIMEHeaderKey(key))
}

// Count returns the total number of header lines stored, used to
// enforce the per-connection header cap while parsing.
func (h Header) Count() int {
	n := 0
	for _, v := range h {
		n += len(v)
	}
	return n
}
