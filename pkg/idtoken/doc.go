// Package idtoken assembles the signed artifacts of a token response: the
// access token JWT and the OpenID Connect ID token.
package idtoken
