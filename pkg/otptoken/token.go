package otptoken

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Kind identifies how a token derives its moving factor.
type Kind int

const (
	// KindTOTP is a time-based token (RFC 6238).
	KindTOTP Kind = iota + 1
	// KindHOTP is a counter-based token (RFC 4226).
	KindHOTP
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindTOTP:
		return "totp"
	case KindHOTP:
		return "hotp"
	default:
		return "unknown"
	}
}

// Algorithm is the HMAC hash algorithm a token is keyed with.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "sha1"
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmSHA384 Algorithm = "sha384"
	AlgorithmSHA512 Algorithm = "sha512"
)

// FreeIPA token schema. Token state is persisted under these attributes.
const (
	classTOTP = "ipaTokenTOTP"
	classHOTP = "ipaTokenHOTP"

	attrKey         = "ipatokenOTPkey"
	attrDigits      = "ipatokenOTPdigits"
	attrAlgorithm   = "ipatokenOTPalgorithm"
	attrTimeStep    = "ipatokenTOTPtimeStep"
	attrClockOffset = "ipatokenTOTPclockOffset"
	attrWatermark   = "ipatokenTOTPwatermark"
	attrCounter     = "ipatokenHOTPcounter"
	attrOwner       = "ipatokenOwner"
	attrDisabled    = "ipatokenDisabled"
	attrNotBefore   = "ipatokenNotBefore"
	attrNotAfter    = "ipatokenNotAfter"
)

// defaultTimeStep is used when a TOTP entry stores no step, or stores zero.
const defaultTimeStep = 30

// Token is one OTP credential record: immutable key material plus a single
// mutable replay cursor (watermark or counter). A Token is built fresh from
// a directory entry per request and discarded after use; it is not shared
// between requests.
type Token struct {
	dn        string
	key       []byte
	algorithm Algorithm
	digits    int
	kind      Kind

	// TOTP state.
	timeStep    int64 // seconds
	clockOffset int64
	watermark   uint64

	// HOTP state.
	counter uint64
}

// NewToken builds a Token from a directory entry. Construction is
// all-or-nothing: a partial or invalid entry never yields a Token.
func NewToken(entry *ldap.Entry) (*Token, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: nil entry", ErrMissingIdentity)
	}

	t := &Token{dn: entry.DN}

	var isTOTP, isHOTP bool
	for _, class := range entry.GetAttributeValues("objectClass") {
		if strings.EqualFold(class, classTOTP) {
			isTOTP = true
		} else if strings.EqualFold(class, classHOTP) {
			isHOTP = true
		}
	}
	switch {
	case isTOTP && !isHOTP:
		t.kind = KindTOTP
	case isHOTP && !isTOTP:
		t.kind = KindHOTP
	default:
		// Neither marker, or ambiguously both.
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTokenType, entry.DN)
	}

	if strings.TrimSpace(t.dn) == "" {
		return nil, ErrMissingIdentity
	}

	key := entry.GetRawAttributeValue(attrKey)
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, entry.DN)
	}
	t.key = append([]byte(nil), key...)

	t.digits = int(entryInt(entry, attrDigits))
	if t.digits != 6 && t.digits != 8 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDigits, t.digits)
	}

	algo := entry.GetAttributeValue(attrAlgorithm)
	if algo == "" {
		algo = string(AlgorithmSHA1)
	}
	t.algorithm = Algorithm(strings.ToLower(algo))
	switch t.algorithm {
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA384, AlgorithmSHA512:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, algo)
	}

	switch t.kind {
	case KindTOTP:
		t.clockOffset = entryInt(entry, attrClockOffset)
		t.watermark = entryUint(entry, attrWatermark)
		t.timeStep = entryInt(entry, attrTimeStep)
		if t.timeStep <= 0 {
			t.timeStep = defaultTimeStep
		}
	case KindHOTP:
		t.counter = entryUint(entry, attrCounter)
	}

	return t, nil
}

// DN returns the directory location state is written back to.
func (t *Token) DN() string { return t.dn }

// Kind returns the token kind.
func (t *Token) Kind() Kind { return t.kind }

// Algorithm returns the token's hash algorithm.
func (t *Token) Algorithm() Algorithm { return t.algorithm }

// Digits returns the token's code length.
func (t *Token) Digits() int { return t.digits }

// entryInt reads the first value of attr as a signed integer. Absent or
// unparsable values read as zero, matching directory server semantics.
func entryInt(e *ldap.Entry, attr string) int64 {
	v := e.GetAttributeValue(attr)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func entryUint(e *ldap.Entry, attr string) uint64 {
	v := e.GetAttributeValue(attr)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
