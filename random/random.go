// Package random generates short alphanumeric identifiers.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/big"
	mrand "math/rand"
	"sync"
	"time"
)

const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var (
	mu  sync.Mutex
	rnd = mrand.New(mrand.NewSource(seed()))
)

func seed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// String is fast but predictable. Use StringSecure for anything a client
// should not be able to guess.
func String(length int) string {
	mu.Lock()
	defer mu.Unlock()

	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rnd.Intn(len(charset))]
	}
	return string(b)
}

func StringSecure(length int) (string, error) {
	max := big.NewInt(int64(len(charset)))

	b := make([]byte, length)
	for i := range b {
		n, err := crand.Int(crand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}
	return string(b), nil
}

// ID joins prefix and a random suffix the way hosted services shape their
// identifiers, e.g. cs_test_4fQ1.
func ID(prefix string, length int) string {
	s, err := StringSecure(length)
	if err != nil {
		s = String(length)
	}
	return prefix + "_" + s
}
