package claims

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/scope"
)

// Attributes is a source attribute bag as supplied by the identity provider.
type Attributes map[string][]string

// Claims is a translated OIDC claim set.
type Claims map[string]interface{}

// Translator turns source attributes into OIDC claims and filters them per
// scope or per individual claims request. It is safe for concurrent use.
type Translator struct {
	catalog         *scope.Catalog
	table           Table
	multiValued     map[string]struct{}
	userIDAttribute string
}

// Option configures a Translator
type Option func(*Translator)

// WithUserIDAttribute sets the attribute tried first when resolving sub.
func WithUserIDAttribute(attr string) Option {
	return func(t *Translator) {
		t.userIDAttribute = attr
	}
}

// WithAllowedMultiValueClaims lists claims that keep every source value.
func WithAllowedMultiValueClaims(names ...string) Option {
	return func(t *Translator) {
		for _, n := range names {
			t.multiValued[n] = struct{}{}
		}
	}
}

// New creates a translator over table. Private scopes of the catalog add a rule
// prefix+attr <- [attr] for every attribute the table does not already cover.
func New(catalog *scope.Catalog, table Table, opts ...Option) *Translator {
	t := &Translator{
		catalog:     catalog,
		table:       table.Clone(),
		multiValued: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	if catalog != nil {
		for _, s := range catalog.Private() {
			for _, attr := range s.Attributes() {
				claim := s.ClaimNamePrefix() + attr
				if _, exists := t.table.Get(claim); !exists {
					t.table.Set(claim, Leaf{Type: TypeString, Attributes: []string{attr}})
				}
				if s.MultipleValuesAllowed() {
					t.multiValued[claim] = struct{}{}
				}
			}
		}
	}

	if t.userIDAttribute != "" {
		t.table.Set("sub", prependAttribute(t.table, "sub", t.userIDAttribute))
	}

	return t
}

func prependAttribute(table Table, claim, attr string) Rule {
	leaf := Leaf{Type: TypeString}
	if r, ok := table.Get(claim); ok {
		if l, ok := r.(Leaf); ok {
			leaf = l
		}
	}
	attrs := []string{attr}
	for _, a := range leaf.Attributes {
		if a != attr {
			attrs = append(attrs, a)
		}
	}
	leaf.Attributes = attrs
	return leaf
}

// Table returns a copy of the effective translation table.
func (t *Translator) Table() Table {
	return t.table.Clone()
}

// Translate converts the attribute bag into the full claim set.
func (t *Translator) Translate(attrs Attributes) (Claims, error) {
	return t.translate(t.table, attrs)
}

func (t *Translator) translate(table Table, attrs Attributes) (Claims, error) {
	out := make(Claims)
	for _, e := range table {
		switch rule := e.Rule.(type) {
		case Nested:
			sub, err := t.translate(rule.Claims, attrs)
			if err != nil {
				return nil, err
			}
			if len(sub) > 0 {
				out[e.Claim] = map[string]interface{}(sub)
			}

		case Leaf:
			for _, attr := range rule.Attributes {
				values, ok := attrs[attr]
				if !ok || len(values) == 0 {
					continue
				}
				v, err := t.resolve(e.Claim, rule.Type, values)
				if err != nil {
					return nil, err
				}
				out[e.Claim] = v
				break
			}
		}
	}
	return out, nil
}

func (t *Translator) resolve(claim string, typ Type, values []string) (interface{}, error) {
	if _, multi := t.multiValued[claim]; !multi {
		return convert(claim, typ, values[0])
	}
	list := make([]interface{}, 0, len(values))
	for _, v := range values {
		c, err := convert(claim, typ, v)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, nil
}

func convert(claim string, typ Type, value string) (interface{}, error) {
	switch typ {
	case TypeInt:
		s := strings.TrimSpace(value)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.TranslationError(claim, string(typ), value, err)
		}
		// float64(math.MaxInt64) rounds up to 2^63, itself out of range.
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, errors.TranslationError(claim, string(typ), value, strconv.ErrRange)
		}
		return int64(f), nil
	case TypeBool:
		return parseBool(claim, value), nil
	default:
		return value, nil
	}
}

// parseBool accepts 1/true/on/yes and 0/false/off/no/"" in any case.
// Anything else is treated as false.
func parseBool(claim, value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	case "0", "false", "off", "no", "":
		return false
	}
	slog.Warn("Ambiguous boolean claim value, using false", "claim", claim, "value", value)
	return false
}

// Extract translates attrs and keeps only claims exposed by the given scopes.
func (t *Translator) Extract(scopes []string, attrs Attributes) (Claims, error) {
	translated, err := t.Translate(attrs)
	if err != nil {
		return nil, err
	}

	var allowed map[string]struct{}
	if t.catalog != nil {
		allowed = t.catalog.ClaimsFor(scopes)
	}

	out := make(Claims)
	for name := range allowed {
		if v, ok := translated[name]; ok {
			out[name] = v
		}
	}
	return out, nil
}

// ExtractAdditionalIDTokenClaims returns the claims individually requested for
// the ID token, regardless of granted scopes.
func (t *Translator) ExtractAdditionalIDTokenClaims(requested map[string]*ClaimOptions, attrs Attributes) (Claims, error) {
	return t.extractRequested(requested, attrs)
}

// ExtractAdditionalUserInfoClaims returns the claims individually requested for
// the userinfo response, regardless of granted scopes.
func (t *Translator) ExtractAdditionalUserInfoClaims(requested map[string]*ClaimOptions, attrs Attributes) (Claims, error) {
	return t.extractRequested(requested, attrs)
}

func (t *Translator) extractRequested(requested map[string]*ClaimOptions, attrs Attributes) (Claims, error) {
	out := make(Claims)
	if len(requested) == 0 {
		return out, nil
	}

	translated, err := t.Translate(attrs)
	if err != nil {
		return nil, err
	}
	for name := range requested {
		if v, ok := translated[name]; ok {
			out[name] = v
		}
	}
	return out, nil
}
