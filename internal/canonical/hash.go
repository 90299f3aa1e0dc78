package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the algorithm to change without collisions.
const (
	DomainConfig = "adminpanel/config/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null byte separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the stable identity of a raw configuration together
// with the ordered list of pass names that will process it. Two processes
// given the same raw tree and pipeline produce the same fingerprint.
func Fingerprint(raw any, passes []string) (string, error) {
	names := make([]any, len(passes))
	for i, p := range passes {
		names[i] = p
	}

	tree, err := MarshalValue(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	header, err := Marshal(map[string]any{"passes": names})
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}

	data := make([]byte, 0, len(header)+len(tree)+1)
	data = append(data, header...)
	data = append(data, 0x00)
	data = append(data, tree...)
	return HashWithDomain(DomainConfig, data), nil
}
