package oauth2client

import (
	"crypto/sha256"
	"crypto/subtle"
	"time"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

const kind = "client"

// Grant types a client may authenticate for.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
	GrantClientCredentials = "client_credentials"
)

// Client is a registered OAuth2 relying party.
type Client struct {
	ID                     string
	secret                 string
	Name                   string
	Description            string
	RedirectURIs           []string
	Scopes                 []string
	Confidential           bool
	Enabled                bool
	AuthSource             string
	Owner                  string
	PostLogoutRedirectURIs []string
	BackchannelLogoutURI   string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ClientState is the persisted form of a Client.
type ClientState struct {
	ID                    string  `json:"id"`
	Secret                string  `json:"secret"`
	Name                  string  `json:"name"`
	Description           string  `json:"description"`
	RedirectURI           string  `json:"redirect_uri"`
	Scopes                string  `json:"scopes"`
	IsConfidential        int     `json:"is_confidential"`
	IsEnabled             int     `json:"is_enabled"`
	AuthSource            *string `json:"auth_source"`
	Owner                 *string `json:"owner"`
	PostLogoutRedirectURI string  `json:"post_logout_redirect_uri"`
	BackchannelLogoutURI  *string `json:"backchannel_logout_uri"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

// Validate checks the invariants every stored client must satisfy.
func (c *Client) Validate() error {
	if c.ID == "" {
		return errors.ValidationError("client identifier cannot be empty")
	}
	if c.Name == "" {
		return errors.ValidationError("client name cannot be empty")
	}
	if c.Confidential && c.secret == "" {
		return errors.ValidationError("confidential client requires a secret")
	}
	return nil
}

// Secret returns the current client secret.
func (c *Client) Secret() string {
	return c.secret
}

// RestoreSecret replaces the secret without changing the client identifier.
func (c *Client) RestoreSecret(secret string) {
	c.secret = secret
	c.UpdatedAt = utils.TruncateSecond(time.Now())
}

// VerifySecret compares candidate against the stored secret in constant time.
// Public clients have no secret to verify and always pass.
func (c *Client) VerifySecret(candidate string) bool {
	if !c.Confidential {
		return true
	}
	return compareSecrets(c.secret, candidate)
}

// compareSecrets compares SHA-256 digests in constant time. An empty stored
// secret never matches.
func compareSecrets(stored, candidate string) bool {
	a := sha256.Sum256([]byte(stored))
	b := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1 && stored != ""
}

// IsRedirectURIAllowed checks for an exact match against the registered URIs.
func (c *Client) IsRedirectURIAllowed(redirectURI string) bool {
	for _, allowed := range c.RedirectURIs {
		if allowed == redirectURI {
			return true
		}
	}
	return false
}

// GetScopes returns the scopes the client may be granted.
func (c *Client) GetScopes() []string {
	return utils.CopyStrings(c.Scopes)
}

// IsUsableFor reports whether the client may authenticate for grantType.
// client_credentials is reserved to confidential clients.
func (c *Client) IsUsableFor(grantType string) bool {
	if !c.Enabled {
		return false
	}
	if grantType == GrantClientCredentials && !c.Confidential {
		return false
	}
	return true
}

// State serializes the client for persistence.
func (c *Client) State() ClientState {
	return ClientState{
		ID:                    c.ID,
		Secret:                c.secret,
		Name:                  c.Name,
		Description:           c.Description,
		RedirectURI:           utils.EncodeStrings(c.RedirectURIs),
		Scopes:                utils.EncodeStrings(c.Scopes),
		IsConfidential:        utils.BoolToInt(c.Confidential),
		IsEnabled:             utils.BoolToInt(c.Enabled),
		AuthSource:            utils.StringPtr(c.AuthSource),
		Owner:                 utils.StringPtr(c.Owner),
		PostLogoutRedirectURI: utils.EncodeStrings(c.PostLogoutRedirectURIs),
		BackchannelLogoutURI:  utils.StringPtr(c.BackchannelLogoutURI),
		CreatedAt:             utils.FormatTimestamp(c.CreatedAt),
		UpdatedAt:             utils.FormatTimestamp(c.UpdatedAt),
	}
}

// FromState rebuilds a client from its persisted form.
func FromState(s ClientState) (*Client, error) {
	if s.ID == "" {
		return nil, errors.StateError(kind, "id", nil)
	}
	if s.Name == "" {
		return nil, errors.StateError(kind, "name", nil)
	}

	redirectURIs, err := utils.DecodeStrings(s.RedirectURI)
	if err != nil {
		return nil, errors.StateError(kind, "redirect_uri", err)
	}
	scopes, err := utils.DecodeStrings(s.Scopes)
	if err != nil {
		return nil, errors.StateError(kind, "scopes", err)
	}
	postLogout, err := utils.DecodeStrings(s.PostLogoutRedirectURI)
	if err != nil {
		return nil, errors.StateError(kind, "post_logout_redirect_uri", err)
	}
	confidential, err := utils.IntToBool(s.IsConfidential)
	if err != nil {
		return nil, errors.StateError(kind, "is_confidential", err)
	}
	enabled, err := utils.IntToBool(s.IsEnabled)
	if err != nil {
		return nil, errors.StateError(kind, "is_enabled", err)
	}
	if confidential && s.Secret == "" {
		return nil, errors.StateError(kind, "secret", nil)
	}
	createdAt, err := utils.ParseTimestamp(s.CreatedAt)
	if err != nil {
		return nil, errors.StateError(kind, "created_at", err)
	}
	updatedAt, err := utils.ParseTimestamp(s.UpdatedAt)
	if err != nil {
		return nil, errors.StateError(kind, "updated_at", err)
	}

	return &Client{
		ID:                     s.ID,
		secret:                 s.Secret,
		Name:                   s.Name,
		Description:            s.Description,
		RedirectURIs:           redirectURIs,
		Scopes:                 scopes,
		Confidential:           confidential,
		Enabled:                enabled,
		AuthSource:             utils.DerefString(s.AuthSource),
		Owner:                  utils.DerefString(s.Owner),
		PostLogoutRedirectURIs: postLogout,
		BackchannelLogoutURI:   utils.DerefString(s.BackchannelLogoutURI),
		CreatedAt:              createdAt,
		UpdatedAt:              updatedAt,
	}, nil
}

func (c *Client) clone() *Client {
	cp := *c
	cp.RedirectURIs = utils.CopyStrings(c.RedirectURIs)
	cp.Scopes = utils.CopyStrings(c.Scopes)
	cp.PostLogoutRedirectURIs = utils.CopyStrings(c.PostLogoutRedirectURIs)
	return &cp
}
