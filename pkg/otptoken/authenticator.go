package otptoken

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Default search radii: two steps either side of the baseline for
// verification, a much wider sweep for two-code resynchronization.
const (
	defaultSteps     = 2
	defaultSyncSteps = 25
)

// Authenticator validates OTP tokens stored in an LDAP directory.
// It holds no open connection and is safe for concurrent use.
type Authenticator struct {
	url             string
	baseDN          string
	serviceBindDN   string
	servicePassword string
	startTLS        bool
	tlsConfig       *tls.Config
	timeout         time.Duration
	implicitTLS     bool

	steps     uint
	syncSteps uint
	now       func() time.Time
	generate  GenerateFunc

	dialContext func(ctx context.Context) (storeConn, error)
}

// storeConn captures the subset of methods we exercise on *ldap.Conn.
type storeConn interface {
	Bind(username, password string) error
	StartTLS(config *tls.Config) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Modify(req *ldap.ModifyRequest) error
	Close() error
}

// Option configures the authenticator.
type Option func(*Authenticator)

// WithServiceAccount sets the DN and password bound before searching or
// writing token state.
func WithServiceAccount(dn, password string) Option {
	return func(a *Authenticator) {
		a.serviceBindDN = dn
		a.servicePassword = password
	}
}

// WithStartTLS enables StartTLS negotiation after connecting over ldap://.
func WithStartTLS() Option {
	return func(a *Authenticator) {
		a.startTLS = true
	}
}

// WithTLSConfig supplies the TLS configuration used for StartTLS or ldaps
// connections.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(a *Authenticator) {
		a.tlsConfig = cfg
	}
}

// WithTimeout sets the dial timeout for directory operations.
func WithTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		a.timeout = d
	}
}

// WithSteps sets how many steps either side of the baseline Verify will
// search. Default: 2.
func WithSteps(steps uint) Option {
	return func(a *Authenticator) {
		a.steps = steps
	}
}

// WithSyncSteps sets the search radius for two-code resynchronization.
// Default: 25.
func WithSyncSteps(steps uint) Option {
	return func(a *Authenticator) {
		a.syncSteps = steps
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// WithGenerateFunc overrides the code generation primitive.
func WithGenerateFunc(generate GenerateFunc) Option {
	return func(a *Authenticator) {
		a.generate = generate
	}
}

// WithDialContext overrides the dial logic. Used in tests.
func WithDialContext(dial func(ctx context.Context) (storeConn, error)) Option {
	return func(a *Authenticator) {
		a.dialContext = dial
	}
}

// NewAuthenticator constructs an authenticator targeting the provided LDAP
// URL. baseDN is the subtree searched for token entries.
func NewAuthenticator(url, baseDN string, opts ...Option) (*Authenticator, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("otptoken: url must not be empty")
	}
	if strings.TrimSpace(baseDN) == "" {
		return nil, errors.New("otptoken: base DN must not be empty")
	}

	auth := &Authenticator{
		url:       url,
		baseDN:    baseDN,
		steps:     defaultSteps,
		syncSteps: defaultSyncSteps,
		now:       time.Now,
		generate:  generateCode,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(auth)
		}
	}

	if strings.HasPrefix(strings.ToLower(url), "ldaps://") {
		auth.implicitTLS = true
		auth.startTLS = false
		if auth.tlsConfig == nil {
			auth.tlsConfig = defaultTLSConfig()
		}
	} else if auth.startTLS && auth.tlsConfig == nil {
		auth.tlsConfig = defaultTLSConfig()
	}

	return auth, nil
}

// connect dials the directory and performs StartTLS and the service bind as
// configured. The caller owns the returned connection.
func (a *Authenticator) connect(ctx context.Context) (storeConn, error) {
	conn, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}

	if a.startTLS {
		if err := conn.StartTLS(a.tlsConfig); err != nil {
			conn.Close()
			return nil, fmt.Errorf("otptoken: starttls failed: %w", err)
		}
	}

	if a.serviceBindDN != "" {
		if err := conn.Bind(a.serviceBindDN, a.servicePassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("otptoken: service bind failed: %w", err)
		}
	}

	return conn, nil
}

func (a *Authenticator) dial(ctx context.Context) (storeConn, error) {
	if a.dialContext != nil {
		return a.dialContext(ctx)
	}

	dialer := &net.Dialer{}
	if a.timeout > 0 {
		dialer.Timeout = a.timeout
	}

	opts := []ldap.DialOpt{ldap.DialWithDialer(dialer)}

	if a.implicitTLS {
		tlsCfg := a.tlsConfig
		if tlsCfg == nil {
			tlsCfg = defaultTLSConfig()
		}
		opts = append(opts, ldap.DialWithTLSConfig(tlsCfg))
	}

	conn, err := ldap.DialURL(a.url, opts...)
	if err != nil {
		return nil, fmt.Errorf("otptoken: dial failed: %w", err)
	}
	return conn, nil
}

func defaultTLSConfig() *tls.Config {
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// session lazily opens a directory connection the first time a write is
// needed, so validation sweeps that never match perform no network I/O.
type session struct {
	auth *Authenticator
	conn storeConn
}

func (s *session) get(ctx context.Context) (storeConn, error) {
	if s.conn == nil {
		conn, err := s.auth.connect(ctx)
		if err != nil {
			return nil, err
		}
		s.conn = conn
	}
	return s.conn, nil
}

func (s *session) close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}
