// Package cleaner holds the text normalization functions applied before
// tokenization, addressed by name.
package cleaner

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownCleaner is returned by Lookup for unregistered names.
var ErrUnknownCleaner = errors.New("unknown text cleaner")

// Func normalizes text. Implementations must be pure.
type Func func(text string) (string, error)

// Simple adapts an infallible normalization function to Func.
func Simple(fn func(string) string) Func {
	return func(text string) (string, error) { return fn(text), nil }
}

var (
	mu       sync.RWMutex
	cleaners = make(map[string]Func)
)

// Register binds name to fn. It panics on duplicates.
func Register(name string, fn Func) {
	mu.Lock()
	defer mu.Unlock()

	if _, dup := cleaners[name]; dup {
		panic(fmt.Sprintf("cleaner: %q registered twice", name))
	}

	cleaners[name] = fn
}

// Lookup returns the cleaner registered under name.
func Lookup(name string) (Func, error) {
	mu.RLock()
	defer mu.RUnlock()

	fn, ok := cleaners[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCleaner, name)
	}

	return fn, nil
}

// Names lists the registered cleaners in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(cleaners))
	for name := range cleaners {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
