// Package registry maintains the live set of diagnostic providers and
// serves ordered, filtered views of it.
//
// Registration is log-and-ignore: nil providers, providers with empty
// IDs, and duplicate IDs are rejected without disturbing registry
// state. Provider IDs are unique within a registry at any point in
// time.
//
// The provider collection is copy-on-write: readers take an immutable
// slice snapshot and never block on a registration in progress, so an
// orchestration pass can iterate providers while register/unregister
// calls from other goroutines proceed safely.
package registry

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
)

// Registry holds the registered diagnostic providers.
type Registry struct {
	mu        sync.RWMutex
	providers []diagnostic.Provider // replaced wholesale on mutation
	logger    *zap.Logger
}

// New creates an empty registry. A nil logger falls back to no-op.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger}
}

// Register stores a provider. Invalid registrations (nil provider,
// empty ID, duplicate ID) are logged and ignored; the stored entry for
// an ID is never overwritten.
func (r *Registry) Register(p diagnostic.Provider) {
	if p == nil {
		r.logger.Warn("attempted to register nil provider")
		return
	}

	id := p.ID()
	if id == "" {
		r.logger.Warn("provider has empty ID, skipping registration",
			zap.String("provider_name", p.Name()))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.providers {
		if existing.ID() == id {
			r.logger.Warn("provider ID already registered, skipping",
				zap.String("provider_id", id))
			return
		}
	}

	next := make([]diagnostic.Provider, len(r.providers), len(r.providers)+1)
	copy(next, r.providers)
	r.providers = append(next, p)

	r.logger.Info("registered diagnostic provider",
		zap.String("provider_id", id),
		zap.String("provider_name", p.Name()),
		zap.Int("priority", p.Priority()))
}

// Unregister removes an exact provider entry if present; otherwise it
// is a no-op. Identity is interface equality, not ID match.
func (r *Registry) Unregister(p diagnostic.Provider) {
	if p == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.providers {
		if existing == p {
			next := make([]diagnostic.Provider, 0, len(r.providers)-1)
			next = append(next, r.providers[:i]...)
			next = append(next, r.providers[i+1:]...)
			r.providers = next
			r.logger.Info("unregistered diagnostic provider",
				zap.String("provider_id", p.ID()))
			return
		}
	}
}

// snapshot returns the current provider slice. Callers must not
// mutate it; mutation paths always replace the slice.
func (r *Registry) snapshot() []diagnostic.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers
}

// Providers returns all providers sorted by descending priority.
// Ties keep insertion order for reproducible pass ordering.
func (r *Registry) Providers() []diagnostic.Provider {
	return sortByPriority(r.snapshot())
}

// ProvidersByCategory returns the priority-sorted providers whose
// category set contains category. An empty category means no filter.
func (r *Registry) ProvidersByCategory(category string) []diagnostic.Provider {
	if category == "" {
		return r.Providers()
	}

	var filtered []diagnostic.Provider
	for _, p := range r.snapshot() {
		if supportsCategory(p, category) {
			filtered = append(filtered, p)
		}
	}
	return sortByPriority(filtered)
}

// EnabledProviders returns the priority-sorted providers that report
// themselves enabled for the given build.
func (r *Registry) EnabledProviders(build diagnostic.BuildContext) []diagnostic.Provider {
	var enabled []diagnostic.Provider
	for _, p := range r.snapshot() {
		if p.Enabled(build) {
			enabled = append(enabled, p)
		}
	}
	return sortByPriority(enabled)
}

// Provider looks up a provider by ID.
func (r *Registry) Provider(id string) (diagnostic.Provider, bool) {
	for _, p := range r.snapshot() {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.snapshot())
}

// Categories returns the sorted union of all providers' category sets.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	for _, p := range r.snapshot() {
		for _, c := range p.Categories() {
			seen[c] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func supportsCategory(p diagnostic.Provider, category string) bool {
	for _, c := range p.Categories() {
		if c == category {
			return true
		}
	}
	return false
}

// sortByPriority returns a new slice sorted by descending priority.
// The stable sort preserves insertion order between equal priorities.
func sortByPriority(providers []diagnostic.Provider) []diagnostic.Provider {
	out := make([]diagnostic.Provider, len(providers))
	copy(out, providers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() > out[j].Priority()
	})
	return out
}
