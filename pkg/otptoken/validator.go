package otptoken

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-ldap/ldap/v3"
)

// Verify validates a single code against a token. The code must be exactly
// the token's configured width. It searches the configured number of steps
// either side of the token's baseline, nearest step first, and on a match
// commits the advanced replay cursor to the directory before reporting
// success. A code that matches no step within the window returns
// (false, nil); no-match is not an error.
func (a *Authenticator) Verify(ctx context.Context, token *Token, code string) (bool, error) {
	return a.verify(ctx, token, code, false)
}

// VerifySuffix validates a code presented as the tail of a longer
// credential, the form used when a password and OTP are concatenated into
// one bind value. The trailing Digits() characters are decoded; the prefix
// is ignored.
func (a *Authenticator) VerifySuffix(ctx context.Context, token *Token, credential string) (bool, error) {
	return a.verify(ctx, token, credential, true)
}

func (a *Authenticator) verify(ctx context.Context, token *Token, code string, tail bool) (bool, error) {
	if a == nil {
		return false, ErrNilAuthenticator
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if token == nil {
		return false, ErrNilToken
	}

	otp, err := DecodeCode(code, token.digits, tail)
	if err != nil {
		return false, err
	}

	sess := &session{auth: a}
	defer sess.close()

	now := a.now().Unix()

	for i := 0; i <= int(a.steps); i++ {
		for _, offset := range candidateOffsets(i) {
			ok, err := a.validateStep(ctx, sess, token, now, offset, otp, nil)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}

	return false, nil
}

// Resync validates two consecutive codes against every candidate token and
// re-anchors whichever one matches. The search is breadth-first across
// tokens per drift radius: a close match on any token wins over a far match
// on another. On success the matched token's cursor advances past both
// consumed steps, and a TOTP token additionally gets a recomputed clock
// offset, so a subsequent Verify at the true current time succeeds with no
// search at all.
func (a *Authenticator) Resync(ctx context.Context, tokens []*Token, first, second string) (bool, error) {
	if a == nil {
		return false, ErrNilAuthenticator
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	code1, err := decodeAll(first)
	if err != nil {
		return false, err
	}
	code2, err := decodeAll(second)
	if err != nil {
		return false, err
	}

	sess := &session{auth: a}
	defer sess.close()

	now := a.now().Unix()

	for i := 0; i <= int(a.syncSteps); i++ {
		for _, token := range tokens {
			if token == nil {
				continue
			}
			for _, offset := range candidateOffsets(i) {
				ok, err := a.validateStep(ctx, sess, token, now, offset, code1, &code2)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
		}
	}

	return false, nil
}

// candidateOffsets returns the offsets probed at radius i, forward first.
// Radius zero yields a single probe.
func candidateOffsets(i int) []int {
	if i == 0 {
		return []int{0}
	}
	return []int{i, -i}
}

// validateStep probes one candidate offset from the token's baseline. When
// second is non-nil the code at the following step must also match, and for
// TOTP tokens the recomputed clock offset is committed alongside the
// watermark. The in-memory cursor advances only after every required write
// succeeds; a failed commit leaves durable state untouched and fails the
// whole validation.
func (a *Authenticator) validateStep(ctx context.Context, sess *session, t *Token,
	now int64, offset int, first uint32, second *uint32) (bool, error) {

	var attr string
	var step uint64

	switch t.kind {
	case KindTOTP:
		attr = attrWatermark
		at := (now+t.clockOffset)/t.timeStep + int64(offset)
		if at < 0 {
			return false, nil
		}
		// A raised watermark is an inclusive floor; zero means no floor yet.
		if t.watermark > 0 && uint64(at) < t.watermark {
			return false, nil
		}
		step = uint64(at)
	case KindHOTP:
		// Counters never move backwards, not even speculatively.
		if offset < 0 {
			return false, nil
		}
		attr = attrCounter
		step = t.counter + uint64(offset)
	default:
		return false, fmt.Errorf("%w: kind %d", ErrUnsupportedTokenType, t.kind)
	}

	code, err := a.generate(t.key, t.algorithm, t.digits, step)
	if err != nil {
		return false, err
	}
	if code != first {
		return false, nil
	}
	step++

	if second != nil {
		code, err = a.generate(t.key, t.algorithm, t.digits, step)
		if err != nil {
			return false, err
		}
		if code != *second {
			return false, nil
		}
		step++

		if t.kind == KindTOTP {
			offsetSecs := (int64(step) - now/t.timeStep) * t.timeStep
			if err := a.writeAttr(ctx, sess, t.dn, attrClockOffset, offsetSecs); err != nil {
				return false, err
			}
			t.clockOffset = offsetSecs
		}
	}

	if err := a.writeAttr(ctx, sess, t.dn, attr, int64(step)); err != nil {
		return false, err
	}

	switch t.kind {
	case KindTOTP:
		t.watermark = step
	case KindHOTP:
		t.counter = step
	}

	return true, nil
}

// writeAttr replaces a single integer attribute on the token entry. One
// modify request, replace semantics; anything but an unambiguous success is
// a commit failure.
func (a *Authenticator) writeAttr(ctx context.Context, sess *session, dn, attr string, value int64) error {
	conn, err := sess.get(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	req := ldap.NewModifyRequest(dn, nil)
	req.Replace(attr, []string{strconv.FormatInt(value, 10)})

	if err := conn.Modify(req); err != nil {
		return fmt.Errorf("%w: replace %s on %s: %v", ErrCommitFailed, attr, dn, err)
	}

	return nil
}
