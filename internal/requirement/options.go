// Package requirement maps a document-type selection to the upload
// constraints, header text and verification endpoint it implies.
package requirement

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedOptions is returned when an option list is not a sequence of key,label,limit triples
var ErrMalformedOptions = errors.New("malformed option list")

var (
	// ErrUnknownOption is returned when a key is not in the current option table
	ErrUnknownOption = errors.New("unknown requirement option")
	// ErrNoSelector is returned when a requirement operation runs without a selector
	ErrNoSelector = errors.New("no requirement selector configured")
)

// Placeholder state used before anything is selected
const (
	PlaceholderLabel = "Select"
	PlaceholderLimit = 1
)

// Option is one entry of the document-type dropdown
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Limit int    `json:"limit"`
}

// Table is an ordered option list
type Table []Option

// Lookup returns the option with the given key
func (t Table) Lookup(key string) (Option, bool) {
	for _, o := range t {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

// Keys returns the option keys in order
func (t Table) Keys() []string {
	keys := make([]string, len(t))
	for i, o := range t {
		keys[i] = o.Key
	}
	return keys
}

// String encodes the table back into the flat key,label,limit form
func (t Table) String() string {
	parts := make([]string, 0, len(t)*3)
	for _, o := range t {
		parts = append(parts, o.Key, o.Label, strconv.Itoa(o.Limit))
	}
	return strings.Join(parts, ",")
}

// ParseOptions decodes a flat "key,label,limit,key,label,limit" list.
// Keys listed in blacklist are dropped; blank blacklist entries are ignored.
func ParseOptions(raw string, blacklist ...string) (Table, error) {
	if strings.TrimSpace(raw) == "" {
		return Table{}, nil
	}

	fields := strings.Split(raw, ",")
	if len(fields)%3 != 0 {
		return nil, fmt.Errorf("%w: %d fields is not a multiple of 3", ErrMalformedOptions, len(fields))
	}

	skip := make(map[string]struct{}, len(blacklist))
	for _, b := range blacklist {
		if b = strings.TrimSpace(b); b != "" {
			skip[b] = struct{}{}
		}
	}

	table := make(Table, 0, len(fields)/3)
	for i := 0; i < len(fields); i += 3 {
		key := strings.TrimSpace(fields[i])
		label := strings.TrimSpace(fields[i+1])
		limitText := strings.TrimSpace(fields[i+2])

		if _, ok := skip[key]; ok {
			continue
		}

		limit, err := strconv.Atoi(limitText)
		if err != nil || limit < 1 {
			return nil, fmt.Errorf("%w: option %q has invalid limit %q", ErrMalformedOptions, key, limitText)
		}
		table = append(table, Option{Key: key, Label: label, Limit: limit})
	}
	return table, nil
}

// MustParseOptions is ParseOptions for static tables; it panics on error
func MustParseOptions(raw string) Table {
	t, err := ParseOptions(raw)
	if err != nil {
		panic(err)
	}
	return t
}
