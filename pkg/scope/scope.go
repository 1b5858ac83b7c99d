package scope

import (
	"strings"
)

// Standard OIDC scope identifiers
const (
	OpenID        = "openid"
	Profile       = "profile"
	Email         = "email"
	Address       = "address"
	Phone         = "phone"
	OfflineAccess = "offline_access"
)

// Scope is a named bundle of claims a client may request access to.
// It is an immutable value object; accessors return copies.
type Scope struct {
	id              string
	description     string
	icon            string
	claims          []string
	claimNamePrefix string
	multipleValues  bool
	attributes      []string
	standard        bool
}

// Definition is the configuration form of a private scope.
type Definition struct {
	Description     string   `yaml:"description" json:"description"`
	Icon            string   `yaml:"icon" json:"icon"`
	ClaimNamePrefix string   `yaml:"claim_name_prefix" json:"claim_name_prefix"`
	MultipleValues  bool     `yaml:"are_multiple_claim_values_allowed" json:"are_multiple_claim_values_allowed"`
	Attributes      []string `yaml:"attributes" json:"attributes"`
}

// New creates a scope exposing the given claims.
func New(id, description string, claims ...string) Scope {
	return Scope{
		id:          id,
		description: description,
		claims:      append([]string(nil), claims...),
	}
}

// FromDefinition builds a private scope. Each attribute becomes a claim named
// ClaimNamePrefix+attribute.
func FromDefinition(id string, def Definition) Scope {
	claims := make([]string, 0, len(def.Attributes))
	for _, attr := range def.Attributes {
		claims = append(claims, def.ClaimNamePrefix+attr)
	}
	return Scope{
		id:              id,
		description:     def.Description,
		icon:            def.Icon,
		claims:          claims,
		claimNamePrefix: def.ClaimNamePrefix,
		multipleValues:  def.MultipleValues,
		attributes:      append([]string(nil), def.Attributes...),
	}
}

func (s Scope) ID() string          { return s.id }
func (s Scope) Description() string { return s.description }
func (s Scope) Icon() string        { return s.icon }
func (s Scope) IsStandard() bool    { return s.standard }

// Claims returns the claim names this scope exposes.
func (s Scope) Claims() []string {
	return append([]string(nil), s.claims...)
}

// ClaimNamePrefix is prepended to each attribute of a private scope.
func (s Scope) ClaimNamePrefix() string { return s.claimNamePrefix }

// MultipleValuesAllowed reports whether claims of a private scope keep every value.
func (s Scope) MultipleValuesAllowed() bool { return s.multipleValues }

// Attributes returns the source attributes of a private scope.
func (s Scope) Attributes() []string {
	return append([]string(nil), s.attributes...)
}

// Split parses a space-delimited scope string, dropping empty entries.
func Split(scope string) []string {
	return strings.Fields(scope)
}

// Join renders scopes as a space-delimited string.
func Join(scopes []string) string {
	return strings.Join(scopes, " ")
}

// Contains reports whether id is present in scopes.
func Contains(scopes []string, id string) bool {
	for _, s := range scopes {
		if s == id {
			return true
		}
	}
	return false
}

// IDs returns the identifiers of the given scopes in order.
func IDs(scopes []Scope) []string {
	ids := make([]string, 0, len(scopes))
	for _, s := range scopes {
		ids = append(ids, s.id)
	}
	return ids
}
