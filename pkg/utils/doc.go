// Package utils holds the helpers shared by the entity packages.
//
// Persisted state uses a fixed encoding: timestamps are UTC strings in
// TimestampLayout ("2006-01-02 15:04:05"), flags are the integers 0 and 1,
// and lists are JSON text:
//
//	row.ExpiresAt = utils.FormatTimestamp(code.ExpiresAt)
//	row.IsRevoked = utils.BoolToInt(code.IsRevoked())
//	row.Scopes = utils.EncodeStrings(code.GetScopes())
//
// The decoding counterparts return an error on malformed input so callers can
// refuse to build a partially valid entity.
//
// GenerateRandomHex produces the unguessable identifiers of codes and tokens:
//
//	id, err := utils.GenerateRandomHex(32) // 64 hex characters
package utils
