package phonemizer

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory constructs a backend from options.
type Factory func(opts Options) (Backend, error)

// Registration describes a backend in the registry.
type Registration struct {
	Name string
	// Languages the backend is the default phonemizer for.
	Languages []string
	// Characters names the character profile the backend's output is encoded
	// with (see package characters).
	Characters string
	New        Factory
}

// Registry maps backend names to factories and languages to default backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Registration
	defaults map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Registration),
		defaults: make(map[string]string),
	}
}

// Register adds reg. It panics on an empty or duplicate name, or when a
// language already has a default backend.
func (r *Registry) Register(reg Registration) {
	if reg.Name == "" || reg.New == nil {
		panic("phonemizer: registration needs a name and a factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.backends[reg.Name]; dup {
		panic(fmt.Sprintf("phonemizer: backend %q registered twice", reg.Name))
	}

	for _, lang := range reg.Languages {
		key := NormalizeLanguage(lang)
		if prev, dup := r.defaults[key]; dup {
			panic(fmt.Sprintf("phonemizer: language %q already served by %q", lang, prev))
		}

		r.defaults[key] = reg.Name
	}

	r.backends[reg.Name] = reg
}

// New constructs the backend registered under name.
func (r *Registry) New(name string, opts Options) (Backend, error) {
	r.mu.RLock()
	reg, ok := r.backends[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, name)
	}

	b, err := reg.New(opts)
	if err != nil {
		return nil, fmt.Errorf("construct phonemizer %q: %w", name, err)
	}

	return b, nil
}

// Lookup returns the registration for name.
func (r *Registry) Lookup(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.backends[name]

	return reg, ok
}

// DefaultFor returns the name of the default backend for language.
func (r *Registry) DefaultFor(language string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.defaults[NormalizeLanguage(language)]
	if !ok {
		return "", fmt.Errorf("%w %q: no default phonemizer", ErrUnsupportedLanguage, language)
	}

	return name, nil
}

// Registrations lists every backend sorted by name.
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Registration, 0, len(r.backends))
	for _, reg := range r.backends {
		out = append(out, reg)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// NormalizeLanguage lowercases a language code and uses "-" as separator,
// so "ko_KR" and "ko-kr" name the same language.
func NormalizeLanguage(lang string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(lang)), "_", "-")
}

var defaultRegistry = NewRegistry()

// Register adds reg to the process-wide registry.
func Register(reg Registration) { defaultRegistry.Register(reg) }

// New constructs a backend from the process-wide registry.
func New(name string, opts Options) (Backend, error) { return defaultRegistry.New(name, opts) }

// Lookup returns a registration from the process-wide registry.
func Lookup(name string) (Registration, bool) { return defaultRegistry.Lookup(name) }

// DefaultFor resolves the default backend name for language.
func DefaultFor(language string) (string, error) { return defaultRegistry.DefaultFor(language) }

// Registrations lists the process-wide registry.
func Registrations() []Registration { return defaultRegistry.Registrations() }

// Info describes a registered backend for listings.
type Info struct {
	Name       string   `json:"name" yaml:"name"`
	Languages  []string `json:"languages" yaml:"languages"`
	Characters string   `json:"characters,omitempty" yaml:"characters,omitempty"`
	Version    string   `json:"version,omitempty" yaml:"version,omitempty"`
	Available  bool     `json:"available" yaml:"available"`
}

// Describe reports every backend of the process-wide registry, constructing
// each for its first language to query version and availability.
func Describe() []Info {
	regs := Registrations()
	out := make([]Info, 0, len(regs))

	for _, reg := range regs {
		info := Info{Name: reg.Name, Languages: reg.Languages, Characters: reg.Characters}

		var lang string
		if len(reg.Languages) > 0 {
			lang = reg.Languages[0]
		}

		if b, err := New(reg.Name, Options{Language: lang, KeepPuncs: true}); err == nil {
			info.Version = b.Version()
			info.Available = b.IsAvailable()
		}

		out = append(out, info)
	}

	return out
}
