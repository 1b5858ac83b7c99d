package claims

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Type is the declared type of a translated claim value.
type Type string

const (
	TypeString Type = "string"
	TypeInt    Type = "int"
	TypeBool   Type = "bool"
	TypeJSON   Type = "json"
)

// Rule describes how a single claim is produced. It is either a Leaf or a Nested.
type Rule interface {
	isRule()
}

// Leaf resolves a claim from the first source attribute that is present.
type Leaf struct {
	Type       Type
	Attributes []string
}

// Nested produces an object claim whose members are resolved by a sub-table.
type Nested struct {
	Claims Table
}

func (Leaf) isRule()   {}
func (Nested) isRule() {}

// Entry binds a claim name to its rule.
type Entry struct {
	Claim string
	Rule  Rule
}

// Table is an ordered translation table. Order only matters for output
// determinism; every claim is evaluated independently.
type Table []Entry

// Get returns the rule for a claim.
func (t Table) Get(claim string) (Rule, bool) {
	for _, e := range t {
		if e.Claim == claim {
			return e.Rule, true
		}
	}
	return nil, false
}

// Set replaces the rule for claim or appends it.
func (t *Table) Set(claim string, rule Rule) {
	for i, e := range *t {
		if e.Claim == claim {
			(*t)[i].Rule = rule
			return
		}
	}
	*t = append(*t, Entry{Claim: claim, Rule: rule})
}

// Merge returns a copy of t with every entry of other added or replacing
// the entry of the same name.
func (t Table) Merge(other Table) Table {
	merged := t.Clone()
	for _, e := range other {
		merged.Set(e.Claim, cloneRule(e.Rule))
	}
	return merged
}

// Clone deep-copies the table.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, 0, len(t))
	for _, e := range t {
		out = append(out, Entry{Claim: e.Claim, Rule: cloneRule(e.Rule)})
	}
	return out
}

func cloneRule(r Rule) Rule {
	switch v := r.(type) {
	case Leaf:
		return Leaf{Type: v.Type, Attributes: append([]string(nil), v.Attributes...)}
	case Nested:
		return Nested{Claims: v.Claims.Clone()}
	default:
		return r
	}
}

// UnmarshalYAML decodes a mapping of claim name to rule, keeping document order.
// A rule is either a list of attribute names or a mapping with type and
// attributes, or type json with a nested claims mapping.
func (t *Table) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: translation table must be a mapping", value.Line)
	}

	table := make(Table, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, ruleNode := value.Content[i], value.Content[i+1]
		rule, err := decodeRule(ruleNode)
		if err != nil {
			return fmt.Errorf("claim %s: %w", keyNode.Value, err)
		}
		table.Set(keyNode.Value, rule)
	}
	*t = table
	return nil
}

type structuredRule struct {
	Type       Type      `yaml:"type"`
	Attributes []string  `yaml:"attributes"`
	Claims     yaml.Node `yaml:"claims"`
}

func decodeRule(node *yaml.Node) (Rule, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var attrs []string
		if err := node.Decode(&attrs); err != nil {
			return nil, err
		}
		return Leaf{Type: TypeString, Attributes: attrs}, nil

	case yaml.MappingNode:
		var sr structuredRule
		if err := node.Decode(&sr); err != nil {
			return nil, err
		}
		switch sr.Type {
		case TypeJSON:
			if sr.Claims.Kind == 0 {
				return nil, fmt.Errorf("line %d: type json requires claims", node.Line)
			}
			var sub Table
			if err := sr.Claims.Decode(&sub); err != nil {
				return nil, err
			}
			return Nested{Claims: sub}, nil
		case "", TypeString, TypeInt, TypeBool:
			t := sr.Type
			if t == "" {
				t = TypeString
			}
			return Leaf{Type: t, Attributes: sr.Attributes}, nil
		default:
			return nil, fmt.Errorf("line %d: unsupported claim type %q", node.Line, sr.Type)
		}

	default:
		return nil, fmt.Errorf("line %d: rule must be a list or a mapping", node.Line)
	}
}

// DefaultTable maps the standard OIDC claims from common directory attributes.
func DefaultTable() Table {
	return Table{
		{"sub", Leaf{TypeString, []string{"eduPersonPrincipalName", "eduPersonTargetedID", "eduPersonUniqueId"}}},
		{"name", Leaf{TypeString, []string{"cn", "displayName"}}},
		{"family_name", Leaf{TypeString, []string{"sn"}}},
		{"given_name", Leaf{TypeString, []string{"givenName"}}},
		{"middle_name", Leaf{TypeString, nil}},
		{"nickname", Leaf{TypeString, []string{"eduPersonNickname"}}},
		{"preferred_username", Leaf{TypeString, []string{"uid"}}},
		{"profile", Leaf{TypeString, []string{"labeledURI", "description"}}},
		{"picture", Leaf{TypeString, nil}},
		{"website", Leaf{TypeString, []string{"url"}}},
		{"gender", Leaf{TypeString, nil}},
		{"birthdate", Leaf{TypeString, []string{"schacDateOfBirth"}}},
		{"zoneinfo", Leaf{TypeString, nil}},
		{"locale", Leaf{TypeString, []string{"preferredLanguage"}}},
		{"updated_at", Leaf{TypeInt, nil}},
		{"email", Leaf{TypeString, []string{"mail"}}},
		{"email_verified", Leaf{TypeBool, nil}},
		{"address", Nested{Table{
			{"formatted", Leaf{TypeString, []string{"postalAddress"}}},
		}}},
		{"phone_number", Leaf{TypeString, []string{"mobile", "telephoneNumber", "homePhone"}}},
		{"phone_number_verified", Leaf{TypeBool, nil}},
	}
}
