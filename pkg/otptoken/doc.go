// Package otptoken validates TOTP (RFC 6238) and HOTP (RFC 4226)
// credentials against token state persisted in an LDAP directory using the
// FreeIPA token schema, and resynchronizes drifted tokens from two
// consecutive codes.
//
// The package does not generate or provision tokens. It reads token entries
// from the directory, runs a bounded windowed search for the presented code
// around each token's baseline (the current time step for TOTP, the stored
// counter for HOTP), and on a match writes the advanced replay cursor back
// to the entry before reporting success. A TOTP watermark, once raised,
// is an inclusive floor on accepted time steps; an HOTP counter is never
// searched backwards. Together these reject every replayed code.
//
// # Verifying a code
//
//	auth, err := otptoken.NewAuthenticator("ldap://ipa.example.com:389",
//	    "cn=otp,dc=example,dc=com",
//	    otptoken.WithServiceAccount("cn=otpd,dc=example,dc=com", "secret"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tokens, err := auth.FindTokens(ctx, otptoken.FindOptions{
//	    OwnerDN:    "uid=alice,cn=users,dc=example,dc=com",
//	    ActiveOnly: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, token := range tokens {
//	    ok, err := auth.Verify(ctx, token, "123456")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if ok {
//	        // authenticated; token state is already committed
//	    }
//	}
//
// A no-match outcome is (false, nil), not an error. A code that matches but
// whose state write-back fails is reported as a failure, because accepting
// it would let the same code be replayed after the next directory read.
//
// # Password+OTP credentials
//
// When the front end receives the OTP concatenated onto the end of a
// password, VerifySuffix decodes the trailing token-width digits and
// ignores the prefix:
//
//	ok, err := auth.VerifySuffix(ctx, token, bindPassword)
//
// # Resynchronization
//
// A token whose clock has drifted or whose counter has run far ahead will
// not match within the normal verify window. Given two consecutive codes,
// Resync sweeps a much wider radius across all of a user's candidate
// tokens, re-anchors the one that matches (recomputing the stored clock
// offset for TOTP, jumping the counter for HOTP), and commits both
// consumed steps:
//
//	ok, err := auth.Resync(ctx, tokens, "287082", "359152")
//
// # Concurrency
//
// The Authenticator is immutable after construction and safe for
// concurrent use. Tokens are per-request values: each request builds its
// own from a fresh directory read and discards them afterwards. State
// write-back is a blind attribute replace; serialization of concurrent
// writes to one entry is delegated to the directory.
package otptoken
