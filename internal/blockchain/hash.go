// internal/blockchain/hash.go
package blockchain

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// MetadataHash serializes a metadata document and returns its keccak256
// digest, the commitment format the registration workflow expects alongside
// the metadata URI.
func MetadataHash(doc any) ([32]byte, error) {
	var digest [32]byte
	raw, err := json.Marshal(doc)
	if err != nil {
		return digest, fmt.Errorf("failed to serialize metadata for hashing: %w", err)
	}
	copy(digest[:], crypto.Keccak256(raw))
	return digest, nil
}

// HashHex formats a 32-byte digest as a 0x-prefixed hex string.
func HashHex(digest [32]byte) string {
	return fmt.Sprintf("0x%x", digest[:])
}
