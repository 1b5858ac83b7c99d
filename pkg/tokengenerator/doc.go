// Package tokengenerator signs and verifies the JWTs issued by the provider.
//
// RSASigner is the production signer (RS256, kid header). HMACSigner covers
// development setups without a key pair.
package tokengenerator
