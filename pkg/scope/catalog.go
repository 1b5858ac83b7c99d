package scope

import (
	"sort"

	"github.com/tendant/simple-oidc/pkg/errors"
)

// ScopeHolder is anything that carries a list of allowed scopes, typically a client.
type ScopeHolder interface {
	GetScopes() []string
}

// Catalog is the registry of standard and private scopes. It is built once at
// start-up and shared read-only.
type Catalog struct {
	scopes map[string]Scope
	order  []string
}

func standardScopes() []Scope {
	std := []Scope{
		New(OpenID, "openid", "sub"),
		New(Profile, "Access to your profile information",
			"name", "family_name", "given_name", "middle_name", "nickname",
			"preferred_username", "profile", "picture", "website", "gender",
			"birthdate", "zoneinfo", "locale", "updated_at"),
		New(Email, "Access to your email address", "email", "email_verified"),
		New(Address, "Access to your postal address", "address"),
		New(Phone, "Access to your phone number", "phone_number", "phone_number_verified"),
		New(OfflineAccess, "Access while you are offline"),
	}
	for i := range std {
		std[i].standard = true
	}
	return std
}

// NewCatalog creates a catalog with the standard OIDC scopes plus the given private ones.
func NewCatalog(private ...Scope) (*Catalog, error) {
	c := &Catalog{
		scopes: make(map[string]Scope),
	}
	for _, s := range standardScopes() {
		c.scopes[s.id] = s
		c.order = append(c.order, s.id)
	}

	sort.Slice(private, func(i, j int) bool { return private[i].id < private[j].id })
	for _, s := range private {
		if s.id == "" {
			return nil, errors.ValidationError("private scope identifier cannot be empty")
		}
		if _, exists := c.scopes[s.id]; exists {
			return nil, errors.ValidationError("private scope redefines an existing scope: " + s.id)
		}
		c.scopes[s.id] = s
		c.order = append(c.order, s.id)
	}

	return c, nil
}

// NewCatalogFromDefinitions creates a catalog from configured private scope definitions.
func NewCatalogFromDefinitions(defs map[string]Definition) (*Catalog, error) {
	private := make([]Scope, 0, len(defs))
	for id, def := range defs {
		private = append(private, FromDefinition(id, def))
	}
	return NewCatalog(private...)
}

// Resolve looks up a scope by identifier.
func (c *Catalog) Resolve(id string) (Scope, bool) {
	s, ok := c.scopes[id]
	return s, ok
}

// All returns every known scope, standard scopes first.
func (c *Catalog) All() []Scope {
	all := make([]Scope, 0, len(c.order))
	for _, id := range c.order {
		all = append(all, c.scopes[id])
	}
	return all
}

// Private returns only the configured private scopes.
func (c *Catalog) Private() []Scope {
	var private []Scope
	for _, id := range c.order {
		if s := c.scopes[id]; !s.standard {
			private = append(private, s)
		}
	}
	return private
}

// Finalize narrows the requested scopes to those known to the catalog and
// allowed for the client. Request order is preserved; unknown or unauthorized
// entries are dropped without error.
func (c *Catalog) Finalize(requested []string, client ScopeHolder) []Scope {
	allowed := make(map[string]struct{})
	if client != nil {
		for _, s := range client.GetScopes() {
			allowed[s] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(requested))
	finalized := make([]Scope, 0, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		s, ok := c.scopes[id]
		if !ok {
			continue
		}
		if _, ok := allowed[id]; !ok {
			continue
		}
		seen[id] = struct{}{}
		finalized = append(finalized, s)
	}
	return finalized
}

// ClaimsFor returns the union of claim names exposed by the given scopes.
// openid always contributes sub.
func (c *Catalog) ClaimsFor(scopes []string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, id := range scopes {
		if id == OpenID {
			names["sub"] = struct{}{}
		}
		s, ok := c.scopes[id]
		if !ok {
			continue
		}
		for _, claim := range s.claims {
			names[claim] = struct{}{}
		}
	}
	return names
}
