// Package claims translates identity attributes into OpenID Connect claims.
//
// A translation table maps every claim to the source attributes it may be read
// from. Candidates are tried in order and the first attribute present wins:
//
//	table := claims.Table{
//	    {"sub", claims.Leaf{Type: claims.TypeString, Attributes: []string{"uid"}}},
//	    {"updated_at", claims.Leaf{Type: claims.TypeInt, Attributes: []string{"modifyTimestamp"}}},
//	    {"address", claims.Nested{Claims: claims.Table{
//	        {"formatted", claims.Leaf{Type: claims.TypeString, Attributes: []string{"postalAddress"}}},
//	    }}},
//	}
//
//	tr := claims.New(catalog, table, claims.WithUserIDAttribute("uid"))
//	out, err := tr.Extract([]string{"openid", "profile"}, attrs)
//
// Values are coerced to the declared type. An int claim whose source value is
// not numeric fails with a TRANSLATION_FAILED error; a bool claim accepts
// 1/true/on/yes and 0/false/off/no and treats anything else as false.
//
// Only claims listed with WithAllowedMultiValueClaims (or exposed by a private
// scope that allows it) keep every source value; all others take the first.
//
// Extract filters the translated claims by scope. The ExtractAdditional*
// functions implement the individual claims request of the "claims"
// authorization parameter and ignore scopes entirely.
//
// Tables are usually loaded from YAML with LoadFile and merged over DefaultTable.
package claims
