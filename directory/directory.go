// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package directory

// Directory resolves user ids to display names for result presentation.
// The user store is an external collaborator; lookups that fail degrade to
// a placeholder label and never abort result computation.
type Directory interface {
	DisplayNames(ids []string) (map[string]string, error)
}

// Unknown is the placeholder label for ids the directory cannot resolve.
const Unknown = "Unknown"

// Static serves names from a fixed map. Handy in tests and single-tenant
// deployments where the roster is known up front.
type Static map[string]string

func (s Static) DisplayNames(ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := s[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

// Noop resolves nothing; every nominee renders as the placeholder.
type Noop struct{}

func (Noop) DisplayNames(ids []string) (map[string]string, error) {
	return map[string]string{}, nil
}

// Resolve looks ids up via d, substituting the placeholder for misses and
// for a failed lookup.
func Resolve(d Directory, ids []string) map[string]string {
	names, err := d.DisplayNames(ids)
	if err != nil || names == nil {
		names = map[string]string{}
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			names[id] = Unknown
		}
	}
	return names
}
