package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeModulus = 1_000_000

// generateCode produces a uniformly distributed 6-digit numeric code,
// zero-padded, matching the original prototype's one-in-a-million code
// space but drawn from crypto/rand rather than a PRNG.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeModulus))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
