package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[ProfileKey]Profile)
	registryMu sync.RWMutex
)

// Register adds a profile to the registry.
// Panics if a profile with the same key is already registered.
func Register(p Profile) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[p.Key]; exists {
		panic(fmt.Sprintf("profile already registered: %s", p.Key))
	}
	if _, ok := ParseTier(string(p.Key.Tier)); !ok {
		panic(fmt.Sprintf("profile %s: unknown tier", p.Key))
	}

	registry[p.Key] = p
}

// Lookup returns the spreadsheet profile for a domain and tier.
func Lookup(domain Domain, tier Tier) (Profile, error) {
	return LookupVariant(domain, tier, VariantSheet)
}

// LookupVariant returns the profile for a domain, tier and source variant.
// An unknown combination is a *SchemaSelectionError.
func LookupVariant(domain Domain, tier Tier, variant Variant) (Profile, error) {
	key := ProfileKey{Domain: domain, Tier: tier, Variant: variant}

	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[key]
	if !ok {
		return Profile{}, &SchemaSelectionError{Key: key}
	}
	return p, nil
}

// All returns all registered profiles.
// Sorted by domain, then variant, then tier from lenient to strict.
func All() []Profile {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Profile, 0, len(registry))
	for _, p := range registry {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Key, result[j].Key
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		if a.Variant != b.Variant {
			return a.Variant < b.Variant
		}
		return tierRank(a.Tier) < tierRank(b.Tier)
	})

	return result
}

// Domains returns all domains with at least one registered profile.
// Sorted alphabetically.
func Domains() []Domain {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[Domain]bool)
	for k := range registry {
		seen[k.Domain] = true
	}

	domains := make([]Domain, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}

	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
	return domains
}

// ProfileCount returns the number of registered profiles.
func ProfileCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered profiles.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[ProfileKey]Profile)
}

func tierRank(t Tier) int {
	for i, x := range Tiers {
		if x == t {
			return i
		}
	}
	return len(Tiers)
}
