package claims

import (
	"strings"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tidwall/gjson"
)

// ClaimOptions are the per-claim options of an individual claims request.
// Only the presence of a claim is honored today; the options are kept so they
// survive persistence unchanged.
type ClaimOptions struct {
	Essential bool          `json:"essential,omitempty"`
	Value     interface{}   `json:"value,omitempty"`
	Values    []interface{} `json:"values,omitempty"`
}

// ClaimsRequest is the OIDC "claims" request parameter.
type ClaimsRequest struct {
	IDToken  map[string]*ClaimOptions `json:"id_token,omitempty"`
	UserInfo map[string]*ClaimOptions `json:"userinfo,omitempty"`
}

// ParseClaimsRequest parses the raw claims parameter. An empty parameter yields nil.
// Members other than id_token and userinfo are ignored, as are non-object members.
func ParseClaimsRequest(raw string) (*ClaimsRequest, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, errors.ValidationError("claims parameter is not valid JSON")
	}
	root := gjson.Parse(raw)
	if !root.IsObject() {
		return nil, errors.ValidationError("claims parameter must be a JSON object")
	}

	return &ClaimsRequest{
		IDToken:  parseMember(root.Get("id_token")),
		UserInfo: parseMember(root.Get("userinfo")),
	}, nil
}

func parseMember(member gjson.Result) map[string]*ClaimOptions {
	if !member.IsObject() {
		return nil
	}
	out := make(map[string]*ClaimOptions)
	member.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = parseOptions(value)
		return true
	})
	return out
}

func parseOptions(value gjson.Result) *ClaimOptions {
	if !value.IsObject() {
		return nil
	}
	opts := &ClaimOptions{
		Essential: value.Get("essential").Bool(),
	}
	if v := value.Get("value"); v.Exists() {
		opts.Value = v.Value()
	}
	if vs := value.Get("values"); vs.IsArray() {
		for _, v := range vs.Array() {
			opts.Values = append(opts.Values, v.Value())
		}
	}
	return opts
}

// IsEmpty reports whether nothing was requested.
func (r *ClaimsRequest) IsEmpty() bool {
	return r == nil || (len(r.IDToken) == 0 && len(r.UserInfo) == 0)
}

// IDTokenClaims returns the id_token member, tolerating a nil request.
func (r *ClaimsRequest) IDTokenClaims() map[string]*ClaimOptions {
	if r == nil {
		return nil
	}
	return r.IDToken
}

// UserInfoClaims returns the userinfo member, tolerating a nil request.
func (r *ClaimsRequest) UserInfoClaims() map[string]*ClaimOptions {
	if r == nil {
		return nil
	}
	return r.UserInfo
}

// Clone deep-copies the request.
func (r *ClaimsRequest) Clone() *ClaimsRequest {
	if r == nil {
		return nil
	}
	return &ClaimsRequest{
		IDToken:  cloneMember(r.IDToken),
		UserInfo: cloneMember(r.UserInfo),
	}
}

func cloneMember(m map[string]*ClaimOptions) map[string]*ClaimOptions {
	if m == nil {
		return nil
	}
	out := make(map[string]*ClaimOptions, len(m))
	for k, v := range m {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = &ClaimOptions{
			Essential: v.Essential,
			Value:     v.Value,
			Values:    append([]interface{}(nil), v.Values...),
		}
	}
	return out
}
