package otptoken

import "errors"

var (
	// ErrUnsupportedTokenType indicates the entry carries neither of the
	// recognized token objectClasses.
	ErrUnsupportedTokenType = errors.New("otptoken: unsupported token type")

	// ErrMissingIdentity indicates the entry has no DN to write state back to.
	ErrMissingIdentity = errors.New("otptoken: entry has no DN")

	// ErrMissingKey indicates the entry has no key material.
	ErrMissingKey = errors.New("otptoken: missing token key")

	// ErrInvalidDigits indicates the configured code length is not 6 or 8.
	ErrInvalidDigits = errors.New("otptoken: token digits must be 6 or 8")

	// ErrInvalidAlgorithm indicates an unrecognized hash algorithm name.
	ErrInvalidAlgorithm = errors.New("otptoken: invalid token algorithm")

	// ErrMalformedCode indicates the presented code is not a decimal string
	// of the expected length.
	ErrMalformedCode = errors.New("otptoken: malformed code")

	// ErrLookupFailed indicates the directory search for tokens failed.
	ErrLookupFailed = errors.New("otptoken: token lookup failed")

	// ErrCommitFailed indicates token state could not be written back to the
	// directory. A matched code must not be treated as valid when the commit
	// fails, or memory and directory state diverge.
	ErrCommitFailed = errors.New("otptoken: state commit failed")

	// ErrNilAuthenticator indicates a nil authenticator was used.
	ErrNilAuthenticator = errors.New("otptoken: authenticator is nil")

	// ErrNilToken indicates a nil token was passed to a validation method.
	ErrNilToken = errors.New("otptoken: token is nil")
)
