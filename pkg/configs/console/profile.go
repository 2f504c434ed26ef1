// Package console holds connection profiles of the console client.
//
// A profile store is a yaml file mapping profile names to profiles, like:
//
//	local:
//	    apiRoot: http://localhost:8001/api/v1
//	    wsRoot: ws://localhost:8001/ws
//	    token: eyJhbGciOi...
//	    timeout: 30s
//	    reconnect:
//	        maxAttempts: 5
//	        delay: 3s
//	        maxDelay: 30s
//	        jitter: 0.2
//	    cert:
//	        ca: BASE64_ENCODED_PEM
package console

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	yaml "gopkg.in/yaml.v3"
)

var ErrProfileStoreNotFound = errors.New("profile store is not found")
var ErrProfileNotFound = errors.New("profile is not found")
var ErrProfileInvalid = errors.New("console profile is invalid")

// EnvToken overrides the token of profiles when it is set.
const EnvToken = "MLCONSOLE_TOKEN"

const (
	DefaultTimeout              = 30 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = 3 * time.Second
	DefaultMaxReconnectDelay    = 30 * time.Second
	DefaultReconnectJitter      = 0.2
)

// DefaultStorePath returns ~/.mlconsole/profile .
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mlconsole", "profile"), nil
}

// ProfileStore is a map from profile name to Profile.
type ProfileStore map[string]*Profile

type Cert struct {
	// base64 encoded CA certificate
	CA string `yaml:"ca,omitempty"`
}

type Reconnect struct {
	// consecutive failed dials before giving up. 0 means default.
	MaxAttempts int `yaml:"maxAttempts,omitempty"`

	// first delay between dials. 0 means default.
	Delay time.Duration `yaml:"delay,omitempty"`

	// upper bound of delay. 0 means default.
	MaxDelay time.Duration `yaml:"maxDelay,omitempty"`

	// fraction of delay randomized. negative means no jitter, 0 means default.
	Jitter float64 `yaml:"jitter,omitempty"`
}

// Profile is a set of endpoints and credentials of a console backend.
type Profile struct {
	// root of REST API, like http://localhost:8001/api/v1
	ApiRoot string `yaml:"apiRoot"`

	// endpoint of event channel, like ws://localhost:8001/ws
	//
	// When it is empty, it is derived from ApiRoot.
	WsRoot string `yaml:"wsRoot,omitempty"`

	// bearer token
	Token string `yaml:"token,omitempty"`

	// timeout of each REST request. 0 means default.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	Reconnect Reconnect `yaml:"reconnect,omitempty"`

	Cert Cert `yaml:"cert,omitempty"`
}

func verifyUrl(s string, schemes ...string) bool {
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return false
	}
	for _, sc := range schemes {
		if u.Scheme == sc {
			return true
		}
	}
	return false
}

func verifyPEM(b64cert string) bool {
	bin, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return false
	}
	blk, _ := pem.Decode(bin)
	return blk != nil
}

// Verify Profile
//
// # Return
//
// nil if it is valid. Otherwise, ErrProfileInvalid error.
func (p *Profile) Verify() error {
	if !verifyUrl(p.ApiRoot, "http", "https") {
		return fmt.Errorf("%w: apiRoot is not http(s) URL: %s", ErrProfileInvalid, p.ApiRoot)
	}
	if p.WsRoot != "" && !verifyUrl(p.WsRoot, "ws", "wss") {
		return fmt.Errorf("%w: wsRoot is not ws(s) URL: %s", ErrProfileInvalid, p.WsRoot)
	}
	if p.Cert.CA != "" && !verifyPEM(p.Cert.CA) {
		return fmt.Errorf("%w: cert.ca is not PEM", ErrProfileInvalid)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("%w: timeout is negative", ErrProfileInvalid)
	}
	if p.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("%w: reconnect.maxAttempts is negative", ErrProfileInvalid)
	}
	if p.Reconnect.Delay < 0 || p.Reconnect.MaxDelay < 0 {
		return fmt.Errorf("%w: reconnect delay is negative", ErrProfileInvalid)
	}
	if 1 < p.Reconnect.Jitter {
		return fmt.Errorf("%w: reconnect.jitter should be at most 1", ErrProfileInvalid)
	}
	return nil
}

// EventURL returns WsRoot, or the "ws" endpoint next to ApiRoot when WsRoot is empty.
//
// For ApiRoot "https://example.com/api/v1", it is "wss://example.com/ws".
func (p *Profile) EventURL() (string, error) {
	if p.WsRoot != "" {
		return p.WsRoot, nil
	}
	u, err := url.Parse(p.ApiRoot)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = ""
	return u.String(), nil
}

// Credential returns the token to be sent, preferring the environment variable MLCONSOLE_TOKEN.
func (p *Profile) Credential() string {
	if t, ok := os.LookupEnv(EnvToken); ok && t != "" {
		return t
	}
	return p.Token
}

// TokenExpiry reads the "exp" claim of the credential without verifying its signature.
//
// # Returns
//
// - time.Time: expiry. Zero when the token has no expiry.
//
// - error: when the credential is not a JWT.
func (p *Profile) TokenExpiry() (time.Time, error) {
	token := p.Credential()
	if token == "" {
		return time.Time{}, nil
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// TLSConfig returns a TLS config trusting Cert.CA in addition to system roots.
//
// It returns nil when the profile has no CA.
func (p *Profile) TLSConfig() (*tls.Config, error) {
	if p.Cert.CA == "" {
		return nil, nil
	}
	bin, err := base64.StdEncoding.DecodeString(p.Cert.CA)
	if err != nil {
		return nil, fmt.Errorf("%w: cert.ca: %w", ErrProfileInvalid, err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(bin) {
		return nil, fmt.Errorf("%w: cert.ca has no certificates", ErrProfileInvalid)
	}
	return &tls.Config{RootCAs: pool}, nil
}

func (p *Profile) RequestTimeout() time.Duration {
	if p.Timeout == 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

// WithDefaults returns a copy of r with zero fields replaced by defaults.
func (r Reconnect) WithDefaults() Reconnect {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = DefaultMaxReconnectAttempts
	}
	if r.Delay == 0 {
		r.Delay = DefaultReconnectDelay
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = DefaultMaxReconnectDelay
	}
	switch {
	case r.Jitter == 0:
		r.Jitter = DefaultReconnectJitter
	case r.Jitter < 0:
		r.Jitter = 0
	}
	return r
}

// LoadProfileStore loads profile store from file.
func LoadProfileStore(filepath string) (ProfileStore, error) {
	buf, err := os.ReadFile(filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, filepath)
		}
		return nil, err
	}
	return Unmarshall(buf)
}

// Unmarshall profile store from yaml in byte array.
func Unmarshall(buf []byte) (ProfileStore, error) {
	ret := map[string]*Profile{}
	if err := yaml.Unmarshal(buf, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Get returns a verified profile.
func (ps ProfileStore) Get(name string) (*Profile, error) {
	p, ok := ps[name]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err := p.Verify(); err != nil {
		return nil, err
	}
	return p, nil
}

// Save profile store to file, with permission 0600.
func (ps ProfileStore) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0700)); err != nil {
		return err
	}
	buf, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".profile-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
