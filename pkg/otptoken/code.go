package otptoken

import "fmt"

// DecodeCode parses a fixed-width decimal code into its numeric value,
// preserving leading zeros ("0007" with digits=4 decodes to 7). Generic
// integer parsers are unsuitable here: they reject leading zeros or ignore
// length, and the code width is part of the credential format.
//
// When tail is true the trailing digits characters of code are decoded and
// any prefix is ignored; this is the concatenated password+OTP form. When
// tail is false the whole input must be exactly digits long. Returns
// ErrMalformedCode for input of the wrong length or containing non-digits.
func DecodeCode(code string, digits int, tail bool) (uint32, error) {
	if digits <= 0 || len(code) < digits {
		return 0, fmt.Errorf("%w: want %d digits, got %d characters",
			ErrMalformedCode, digits, len(code))
	}

	if tail {
		code = code[len(code)-digits:]
	} else if len(code) != digits {
		return 0, fmt.Errorf("%w: want %d digits, got %d characters",
			ErrMalformedCode, digits, len(code))
	}

	var out uint32
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-digit at position %d", ErrMalformedCode, i)
		}
		out = out*10 + uint32(c-'0')
	}

	return out, nil
}

// decodeAll decodes an entire digit string regardless of token width. Used
// for resynchronization, where the caller supplies bare codes.
func decodeAll(code string) (uint32, error) {
	return DecodeCode(code, len(code), false)
}
