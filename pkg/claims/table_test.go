package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-oidc/pkg/errors"
)

const sampleConfig = `
translate:
  sub: [uid, eppn]
  updated_at:
    type: int
    attributes: [modifyTimestamp]
  email_verified:
    type: bool
    attributes: [mailVerified]
  address:
    type: json
    claims:
      formatted: [postalAddress]
      country:
        attributes: [c]
allowed_multi_value_claims: [groups]
scopes:
  national:
    description: National identity
    claim_name_prefix: nat_
    are_multiple_claim_values_allowed: true
    attributes: [document_id]
`

func TestParse_TableShapes(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	require.Len(t, cfg.Translate, 4)
	assert.Equal(t, "sub", cfg.Translate[0].Claim)
	assert.Equal(t, Leaf{TypeString, []string{"uid", "eppn"}}, cfg.Translate[0].Rule)
	assert.Equal(t, Leaf{TypeInt, []string{"modifyTimestamp"}}, cfg.Translate[1].Rule)
	assert.Equal(t, Leaf{TypeBool, []string{"mailVerified"}}, cfg.Translate[2].Rule)

	nested, ok := cfg.Translate[3].Rule.(Nested)
	require.True(t, ok)
	assert.Equal(t, Table{
		{"formatted", Leaf{TypeString, []string{"postalAddress"}}},
		{"country", Leaf{TypeString, []string{"c"}}},
	}, nested.Claims)

	assert.Equal(t, []string{"groups"}, cfg.AllowedMultiValueClaims)
	require.Contains(t, cfg.Scopes, "national")
	assert.True(t, cfg.Scopes["national"].MultipleValues)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unsupported type", "translate:\n  n: {type: float, attributes: [a]}\n"},
		{"json without claims", "translate:\n  n: {type: json}\n"},
		{"scalar rule", "translate:\n  n: a\n"},
		{"table not a mapping", "translate: [a, b]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestFileConfig_Build(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	catalog, tr, err := cfg.Build("uid")
	require.NoError(t, err)

	_, ok := catalog.Resolve("national")
	assert.True(t, ok)

	got, err := tr.Extract([]string{"openid", "email", "address", "national"}, Attributes{
		"uid":           {"u1"},
		"mail":          {"u1@example.org"},
		"mailVerified":  {"TRUE"},
		"postalAddress": {"1 Main St"},
		"document_id":   {"D1"},
	})
	require.NoError(t, err)
	assert.Equal(t, Claims{
		"sub":             "u1",
		"email":           "u1@example.org",
		"email_verified":  true,
		"address":         map[string]interface{}{"formatted": "1 Main St"},
		"nat_document_id": []interface{}{"D1"},
	}, got)
}

func TestFileConfig_BuildNil(t *testing.T) {
	var cfg *FileConfig
	catalog, tr, err := cfg.Build("uid")
	require.NoError(t, err)
	assert.Empty(t, catalog.Private())

	rule, ok := tr.Table().Get("sub")
	require.True(t, ok)
	assert.Equal(t, "uid", rule.(Leaf).Attributes[0])
}

func TestTable_MergeDoesNotAlias(t *testing.T) {
	base := Table{{"a", Leaf{TypeString, []string{"x"}}}}
	merged := base.Merge(Table{
		{"a", Leaf{TypeInt, []string{"y"}}},
		{"b", Leaf{TypeString, []string{"z"}}},
	})

	assert.Equal(t, Leaf{TypeString, []string{"x"}}, base[0].Rule)
	assert.Len(t, merged, 2)
	assert.Equal(t, Leaf{TypeInt, []string{"y"}}, merged[0].Rule)

	clone := merged.Clone()
	clone[0].Rule.(Leaf).Attributes[0] = "changed"
	assert.Equal(t, "y", merged[0].Rule.(Leaf).Attributes[0])
}

func TestParseClaimsRequest(t *testing.T) {
	req, err := ParseClaimsRequest(`{
		"id_token": {"auth_time": {"essential": true}, "acr": {"values": ["urn:a", "urn:b"]}},
		"userinfo": {"email": null, "nickname": {"value": "nick"}},
		"other": {"x": {}}
	}`)
	require.NoError(t, err)
	require.NotNil(t, req)

	require.Contains(t, req.IDToken, "auth_time")
	assert.True(t, req.IDToken["auth_time"].Essential)
	assert.Equal(t, []interface{}{"urn:a", "urn:b"}, req.IDToken["acr"].Values)

	require.Contains(t, req.UserInfo, "email")
	assert.Nil(t, req.UserInfo["email"])
	assert.Equal(t, "nick", req.UserInfo["nickname"].Value)
	assert.False(t, req.IsEmpty())
}

func TestParseClaimsRequest_EmptyAndInvalid(t *testing.T) {
	req, err := ParseClaimsRequest("  ")
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.True(t, req.IsEmpty())
	assert.Nil(t, req.IDTokenClaims())

	_, err = ParseClaimsRequest("{not json")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))

	_, err = ParseClaimsRequest(`["email"]`)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))

	req, err = ParseClaimsRequest(`{"id_token": "email"}`)
	require.NoError(t, err)
	assert.True(t, req.IsEmpty())
}

func TestClaimsRequest_CloneIsDeep(t *testing.T) {
	req, err := ParseClaimsRequest(`{"userinfo": {"email": {"values": ["a"]}}}`)
	require.NoError(t, err)

	clone := req.Clone()
	clone.UserInfo["email"].Values[0] = "b"
	clone.UserInfo["phone_number"] = nil

	assert.Equal(t, []interface{}{"a"}, req.UserInfo["email"].Values)
	assert.NotContains(t, req.UserInfo, "phone_number")
}
