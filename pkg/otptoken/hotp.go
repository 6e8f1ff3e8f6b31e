package otptoken

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"
)

// GenerateFunc computes the RFC 4226 code for key at the given moving
// factor. For TOTP tokens the step is the time-step derived per RFC 6238;
// for HOTP tokens it is the counter.
type GenerateFunc func(key []byte, algorithm Algorithm, digits int, step uint64) (uint32, error)

// generateCode is the default GenerateFunc: HMAC dynamic truncation per
// RFC 4226 §5.3, with the hash selected by the token algorithm.
func generateCode(key []byte, algorithm Algorithm, digits int, step uint64) (uint32, error) {
	var newHash func() hash.Hash
	switch algorithm {
	case AlgorithmSHA1:
		newHash = sha1.New
	case AlgorithmSHA256:
		newHash = sha256.New
	case AlgorithmSHA384:
		newHash = sha512.New384
	case AlgorithmSHA512:
		newHash = sha512.New
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, algorithm)
	}

	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], step)

	mac := hmac.New(newHash, key)
	mac.Write(counter[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	mod := uint32(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return value % mod, nil
}
