package orders

import (
	"crypto/rand"
	"math/big"
)

const (
	idAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultIDLength = 6
	maxIDAttempts   = 64
)

// IDGenerator produces candidate order identifiers. Candidates may collide;
// the store checks both partitions and asks again.
type IDGenerator interface {
	NewID() (string, error)
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() (string, error)

func (f IDGeneratorFunc) NewID() (string, error) { return f() }

// RandomIDs draws uppercase alphanumeric identifiers from crypto/rand.
type RandomIDs struct {
	Length int
}

func (r RandomIDs) NewID() (string, error) {
	n := r.Length
	if n <= 0 {
		n = DefaultIDLength
	}
	max := big.NewInt(int64(len(idAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = idAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
