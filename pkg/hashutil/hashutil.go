package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA256 HashAlgo = "sha256"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// urlIDLength is the number of hex characters kept for URL ids.
const urlIDLength = 16

// HashBytes returns the hex digest of data using algo.
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case HashAlgoBLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// URLID returns a short stable identifier for a URL, used to correlate
// log lines for the same input across stages.
func URLID(canonicalURL string) string {
	sum := blake3.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])[:urlIDLength]
}
