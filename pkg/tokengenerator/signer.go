package tokengenerator

// Signer turns a claim set into a compact JWS and back.
type Signer interface {
	// Sign serializes claims as a signed JWT. The key id, when known, is set
	// in the kid header.
	Sign(claims map[string]interface{}) (string, error)
	// Verify checks the signature and the time-based claims of token and
	// returns its claim set.
	Verify(token string) (map[string]interface{}, error)
	KeyID() string
	// Algorithm is the JWS alg header value, e.g. RS256.
	Algorithm() string
}
