// Package errors provides structured error handling with error codes for simple-oidc.
//
// Every layer of the token core returns these errors so that the endpoint layer
// can map them onto OAuth2/OIDC error responses without string matching.
//
// # Taxonomy
//
//   - ErrCodeNotFound: entity lookup miss (code, token, client, user). Recoverable.
//   - ErrCodeInvalidState: a persisted row could not be restored into an entity.
//   - ErrCodeTranslation: a claim value could not be coerced to its declared type.
//   - ErrCodeRevoked: a revoked or expired code/token was presented. Terminal.
//   - ErrCodeValidationFailed: disabled client, unauthorized scope, binding mismatch.
//   - ErrCodeInvalidClient: client authentication failed.
//
// # Basic Usage
//
//	err := errors.NotFound("auth_code", codeID)
//	err := errors.RevocationConflict("refresh_token", tokenID)
//	err := errors.StateError("access_token", "expires_at", parseErr)
//
//	if errors.IsCode(err, errors.ErrCodeRevoked) {
//		// respond with invalid_grant
//	}
//
// # Wire mapping
//
//	errors.OAuthErrorCode(err) // "invalid_grant", "invalid_client", "access_denied", "server_error"
//
// Details always carry the entity kind and identifier ("kind", "id") so callers
// can log them without parsing messages.
package errors
