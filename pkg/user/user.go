package user

import (
	"encoding/json"
	"time"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

const kind = "user"

// User is an authenticated subject together with the raw attributes the
// identity provider released for it.
type User struct {
	ID        string
	claims    map[string][]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// State is the persisted form of a User.
type State struct {
	ID        string `json:"id"`
	Claims    string `json:"claims"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// New creates a user with the given attributes.
func New(id string, claims map[string][]string) (*User, error) {
	if id == "" {
		return nil, errors.ValidationError("user identifier cannot be empty")
	}
	now := utils.TruncateSecond(time.Now())
	return &User{
		ID:        id,
		claims:    cloneClaims(claims),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Claims returns a copy of the user's attributes.
func (u *User) Claims() map[string][]string {
	return cloneClaims(u.claims)
}

// SetClaims replaces the attributes and bumps UpdatedAt.
func (u *User) SetClaims(claims map[string][]string) {
	u.claims = cloneClaims(claims)
	u.UpdatedAt = utils.TruncateSecond(time.Now())
}

// State serializes the user for persistence.
func (u *User) State() State {
	claims := u.claims
	if claims == nil {
		claims = map[string][]string{}
	}
	encoded, _ := json.Marshal(claims)
	return State{
		ID:        u.ID,
		Claims:    string(encoded),
		CreatedAt: utils.FormatTimestamp(u.CreatedAt),
		UpdatedAt: utils.FormatTimestamp(u.UpdatedAt),
	}
}

// FromState rebuilds a user from its persisted form.
func FromState(s State) (*User, error) {
	if s.ID == "" {
		return nil, errors.StateError(kind, "id", nil)
	}

	var claims map[string][]string
	if err := json.Unmarshal([]byte(s.Claims), &claims); err != nil {
		return nil, errors.StateError(kind, "claims", err)
	}
	if claims == nil {
		return nil, errors.StateError(kind, "claims", nil)
	}

	createdAt, err := utils.ParseTimestamp(s.CreatedAt)
	if err != nil {
		return nil, errors.StateError(kind, "created_at", err)
	}
	updatedAt, err := utils.ParseTimestamp(s.UpdatedAt)
	if err != nil {
		return nil, errors.StateError(kind, "updated_at", err)
	}

	return &User{
		ID:        s.ID,
		claims:    claims,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func (u *User) clone() *User {
	c := *u
	c.claims = cloneClaims(u.claims)
	return &c
}

func cloneClaims(claims map[string][]string) map[string][]string {
	if claims == nil {
		return nil
	}
	out := make(map[string][]string, len(claims))
	for k, v := range claims {
		out[k] = utils.CopyStrings(v)
	}
	return out
}
