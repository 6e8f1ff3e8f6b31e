package otptoken

import (
	"encoding/base32"
	"fmt"
	"testing"

	pqotp "github.com/pquerna/otp"
	pqhotp "github.com/pquerna/otp/hotp"
)

// RFC 4226 appendix D test vectors, secret "12345678901234567890".
func TestGenerateCodeRFC4226(t *testing.T) {
	key := []byte("12345678901234567890")
	want := []uint32{
		755224, 287082, 359152, 969429, 338314,
		254676, 287922, 162583, 399871, 520489,
	}

	for counter, expected := range want {
		code, err := generateCode(key, AlgorithmSHA1, 6, uint64(counter))
		if err != nil {
			t.Fatalf("counter %d: %v", counter, err)
		}
		if code != expected {
			t.Errorf("counter %d: got %06d, want %06d", counter, code, expected)
		}
	}
}

// RFC 6238 appendix B test vectors, 8 digits, 30 second step. The key for
// each algorithm is the ASCII seed repeated to the hash block length.
func TestGenerateCodeRFC6238(t *testing.T) {
	sha1Key := []byte("12345678901234567890")
	sha256Key := []byte("12345678901234567890123456789012")
	sha512Key := []byte("1234567890123456789012345678901234567890123456789012345678901234")

	tests := []struct {
		unix      int64
		algorithm Algorithm
		key       []byte
		want      uint32
	}{
		{59, AlgorithmSHA1, sha1Key, 94287082},
		{59, AlgorithmSHA256, sha256Key, 46119246},
		{59, AlgorithmSHA512, sha512Key, 90693936},
		{1111111109, AlgorithmSHA1, sha1Key, 7081804},
		{1111111109, AlgorithmSHA256, sha256Key, 68084774},
		{1111111109, AlgorithmSHA512, sha512Key, 25091201},
		{1111111111, AlgorithmSHA1, sha1Key, 14050471},
		{1111111111, AlgorithmSHA256, sha256Key, 67062674},
		{1111111111, AlgorithmSHA512, sha512Key, 99943326},
		{1234567890, AlgorithmSHA1, sha1Key, 89005924},
		{1234567890, AlgorithmSHA256, sha256Key, 91819424},
		{1234567890, AlgorithmSHA512, sha512Key, 93441116},
		{2000000000, AlgorithmSHA1, sha1Key, 69279037},
		{2000000000, AlgorithmSHA256, sha256Key, 90698825},
		{2000000000, AlgorithmSHA512, sha512Key, 38618901},
		{20000000000, AlgorithmSHA1, sha1Key, 65353130},
		{20000000000, AlgorithmSHA256, sha256Key, 77737706},
		{20000000000, AlgorithmSHA512, sha512Key, 47863826},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_T%d", tt.algorithm, tt.unix), func(t *testing.T) {
			step := uint64(tt.unix / 30)
			code, err := generateCode(tt.key, tt.algorithm, 8, step)
			if err != nil {
				t.Fatalf("generateCode: %v", err)
			}
			if code != tt.want {
				t.Errorf("got %08d, want %08d", code, tt.want)
			}
		})
	}
}

// Cross-check against an independent RFC 4226 implementation for the
// algorithms it supports.
func TestGenerateCodeCrossCheck(t *testing.T) {
	key := []byte("12345678901234567890")
	secret := base32.StdEncoding.EncodeToString(key)

	algos := []struct {
		ours   Algorithm
		theirs pqotp.Algorithm
	}{
		{AlgorithmSHA1, pqotp.AlgorithmSHA1},
		{AlgorithmSHA256, pqotp.AlgorithmSHA256},
		{AlgorithmSHA512, pqotp.AlgorithmSHA512},
	}

	for _, algo := range algos {
		for _, digits := range []int{6, 8} {
			for counter := uint64(0); counter < 20; counter++ {
				code, err := generateCode(key, algo.ours, digits, counter)
				if err != nil {
					t.Fatalf("%s/%d/%d: %v", algo.ours, digits, counter, err)
				}

				want, err := pqhotp.GenerateCodeCustom(secret, counter, pqhotp.ValidateOpts{
					Digits:    pqotp.Digits(digits),
					Algorithm: algo.theirs,
				})
				if err != nil {
					t.Fatalf("%s/%d/%d: reference: %v", algo.ours, digits, counter, err)
				}

				got := fmt.Sprintf("%0*d", digits, code)
				if got != want {
					t.Errorf("%s/%d/%d: got %s, want %s", algo.ours, digits, counter, got, want)
				}
			}
		}
	}
}

func TestGenerateCodeSHA384(t *testing.T) {
	key := []byte("123456789012345678901234567890123456789012345678")

	first, err := generateCode(key, AlgorithmSHA384, 6, 42)
	if err != nil {
		t.Fatalf("generateCode: %v", err)
	}
	if first >= 1000000 {
		t.Errorf("code %d out of range for 6 digits", first)
	}

	second, err := generateCode(key, AlgorithmSHA384, 6, 42)
	if err != nil {
		t.Fatalf("generateCode: %v", err)
	}
	if first != second {
		t.Errorf("generation not deterministic: %d vs %d", first, second)
	}
}

func TestGenerateCodeUnknownAlgorithm(t *testing.T) {
	if _, err := generateCode([]byte("key"), Algorithm("md5"), 6, 0); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}
