// Package canonical provides RFC 8785 canonical JSON and domain-separated
// SHA-256 hashing used to fingerprint raw admin configurations.
//
// The fingerprint keys the resolved-configuration cache, so it must be
// stable across processes and restarts:
//   - Object keys are ordered by UTF-16 code units
//   - Strings are NFC normalized
//   - Only integer numbers are allowed
//   - The ordered pass names are part of the hashed input
//
// Use Marshal for generic JSON values and MarshalValue for typed structs.
package canonical
