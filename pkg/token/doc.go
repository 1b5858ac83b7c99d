// Package token holds the authorization codes, access tokens and refresh
// tokens issued by the provider, and their repositories.
//
// Entities round-trip through State structs whose fields match the database
// columns: timestamps as "2006-01-02 15:04:05" UTC strings, flags as 0/1 and
// lists as JSON text. A State that cannot be decoded yields an INVALID_STATE
// error naming the entity kind and the offending field.
//
// Store groups the three repositories and runs multi-row operations in a
// transaction:
//
//	err := store.WithTx(ctx, func(tx token.Store) error {
//	    code, err := tx.AuthCodes().Consume(ctx, codeID, now)
//	    if err != nil {
//	        return err
//	    }
//	    return tx.AccessTokens().Add(ctx, access)
//	})
//
// Consume is the only way the protocol flows should spend a code or refresh
// token: it revokes and returns the entity in one atomic step and fails with
// a REVOKED error for every caller after the first.
package token
