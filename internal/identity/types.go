// Package identity provides the local registry of git identities that
// gitswitch can activate.
package identity

// CurrentRegistryVersion is the current schema version for the identity registry.
const CurrentRegistryVersion = 1

// Identity is one configurable git user profile.
type Identity struct {
	// Key is the short lookup identifier (the user's initials by default).
	Key string `json:"key" yaml:"key" toml:"key"`

	// Name is the value written to git's user.name.
	Name string `json:"name" yaml:"name" toml:"name"`

	// Email is the value written to git's user.email.
	Email string `json:"email" yaml:"email" toml:"email"`
}

// String formats the identity the way git shows an author.
func (i Identity) String() string {
	if i.Email == "" {
		return i.Name
	}
	return i.Name + " <" + i.Email + ">"
}

// Matches reports whether the identity carries the given name and email.
func (i Identity) Matches(name, email string) bool {
	return i.Name == name && i.Email == email
}

// Registry holds all registered identities in insertion order.
type Registry struct {
	// Version is the schema version.
	Version int `json:"version" yaml:"version" toml:"version"`

	// Identities is the ordered list of registered identities.
	Identities []Identity `json:"identities" yaml:"identities" toml:"identities"`
}

// NewRegistry returns an empty registry at the current schema version.
func NewRegistry() *Registry {
	return &Registry{
		Version:    CurrentRegistryVersion,
		Identities: []Identity{},
	}
}

// Find returns the identity with the given key, or nil.
func (r *Registry) Find(key string) *Identity {
	for i := range r.Identities {
		if r.Identities[i].Key == key {
			return &r.Identities[i]
		}
	}
	return nil
}

// FindByIdentity returns the first identity whose name and email match.
func (r *Registry) FindByIdentity(name, email string) *Identity {
	for i := range r.Identities {
		if r.Identities[i].Matches(name, email) {
			return &r.Identities[i]
		}
	}
	return nil
}
