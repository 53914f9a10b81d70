// Package extract converts raw receipt emails into expense candidates, one
// extractor per provider.
package extract

import (
	"strconv"
	"strings"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// Registry maps provider keys to extractor constructors. Adding a provider
// means implementing api.Extractor and registering a key here; the sync loop
// and the store schema are untouched.
type Registry struct {
	entries []entry
}

type entry struct {
	key   string
	newFn func() api.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a constructor under a key. Keys are matched as
// case-insensitive substrings of the provider key at lookup time.
func (r *Registry) Register(key string, newFn func() api.Extractor) {
	r.entries = append(r.entries, entry{key: strings.ToLower(key), newFn: newFn})
}

// Lookup resolves an extractor for a provider key. Unknown keys yield nil,
// which callers treat as a skip condition, not an error.
func (r *Registry) Lookup(providerKey string) api.Extractor {
	needle := strings.ToLower(providerKey)
	for _, e := range r.entries {
		if strings.Contains(needle, e.key) {
			return e.newFn()
		}
	}
	return nil
}

// Default returns a registry with every supported provider registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register("uber", func() api.Extractor { return &Uber{} })
	r.Register("swiggy", func() api.Extractor { return &Swiggy{} })
	r.Register("zomato", func() api.Extractor { return &Zomato{} })
	return r
}

// parseAmount converts a matched numeric group, stripping thousands
// separators. Unparseable input resolves to the 0.0 sentinel.
func parseAmount(s string) (float64, bool) {
	amount, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}
