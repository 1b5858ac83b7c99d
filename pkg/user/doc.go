// Package user stores the subjects tokens are issued for.
//
// A User carries the raw attribute bag released by the identity provider;
// claims are derived from it at issuance time by package claims. Attributes
// change only through SetClaims, which also moves UpdatedAt forward.
package user
