package otptoken

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"
)

const objectClassFilter = "(|(objectClass=" + classTOTP + ")(objectClass=" + classHOTP + "))"

// FindOptions selects which token entries a lookup returns.
type FindOptions struct {
	// OwnerDN restricts the search to tokens owned by this entry. The value
	// is filter-escaped before use.
	OwnerDN string
	// TokenDN looks up one specific token entry instead of searching the
	// base subtree.
	TokenDN string
	// ActiveOnly excludes disabled tokens and tokens outside their optional
	// notBefore/notAfter validity window.
	ActiveOnly bool
	// Filter is an extra LDAP filter expression ANDed into the search.
	Filter string
}

// FindTokens returns the candidate tokens matching opts. It issues exactly
// one search per call and does not retry; directory errors wrap
// ErrLookupFailed.
//
// Entries that fail Token construction are skipped so one corrupt record
// cannot mask a user's remaining tokens; if entries were found but none
// construct, the first construction error is returned.
func (a *Authenticator) FindTokens(ctx context.Context, opts FindOptions) ([]*Token, error) {
	if a == nil {
		return nil, ErrNilAuthenticator
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filter := "(&" + objectClassFilter
	if opts.OwnerDN != "" {
		filter += "(" + attrOwner + "=" + ldap.EscapeFilter(opts.OwnerDN) + ")"
	}
	if opts.ActiveOnly {
		filter += activityFilter(a.now().UTC())
	}
	if opts.Filter != "" {
		filter += opts.Filter
	}
	filter += ")"

	baseDN := a.baseDN
	scope := ldap.ScopeWholeSubtree
	if opts.TokenDN != "" {
		baseDN = opts.TokenDN
		scope = ldap.ScopeBaseObject
	}

	conn, err := a.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer conn.Close()

	req := ldap.NewSearchRequest(baseDN, scope, ldap.NeverDerefAliases,
		0, 0, false, filter, nil, nil)

	result, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	tokens := make([]*Token, 0, len(result.Entries))
	var firstErr error
	for _, entry := range result.Entries {
		token, err := NewToken(entry)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		tokens = append(tokens, token)
	}

	if len(tokens) == 0 && firstErr != nil {
		return nil, firstErr
	}

	return tokens, nil
}

// activityFilter matches entries that are not disabled and whose optional
// validity window contains now. Each absent bound is unconstrained.
func activityFilter(now time.Time) string {
	ts := now.Format("20060102150405Z")
	return fmt.Sprintf(
		"(|(%[1]s<=%[3]s)(!(%[1]s=*)))"+
			"(|(%[2]s>=%[3]s)(!(%[2]s=*)))"+
			"(|(%[4]s=FALSE)(!(%[4]s=*)))",
		attrNotBefore, attrNotAfter, ts, attrDisabled)
}
