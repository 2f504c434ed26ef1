package console_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opst/mlconsole/pkg/configs/console"
	"github.com/opst/mlconsole/pkg/utils/try"
)

func selfSignedPEM(t *testing.T) []byte {
	t.Helper()
	key := try.To(ecdsa.GenerateKey(elliptic.P256(), rand.Reader)).OrFatal(t)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "mlconsole test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der := try.To(x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)).OrFatal(t)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestUnmarshall(t *testing.T) {
	t.Run("unmarshalling works well", func(t *testing.T) {
		store, err := console.Unmarshall([]byte(`
local:
    apiRoot: "http://localhost:8001/api/v1"
    wsRoot: "ws://localhost:8001/ws"
    token: "TOKEN"
    timeout: 10s
    reconnect:
        maxAttempts: 3
        delay: 1s
        maxDelay: 5s
        jitter: 0.5
    cert:
        ca: BASE64_ENCODED_CERT
`))
		if err != nil {
			t.Fatalf("failed to unmarshal: %+v", err)
		}
		prof, ok := store["local"]
		if !ok {
			t.Fatal("store has no profile")
		}

		expected := console.Profile{
			ApiRoot: "http://localhost:8001/api/v1",
			WsRoot:  "ws://localhost:8001/ws",
			Token:   "TOKEN",
			Timeout: 10 * time.Second,
			Reconnect: console.Reconnect{
				MaxAttempts: 3, Delay: time.Second, MaxDelay: 5 * time.Second, Jitter: 0.5,
			},
			Cert: console.Cert{CA: "BASE64_ENCODED_CERT"},
		}
		if *prof != expected {
			t.Errorf("profile unmatch. (actual, expected) = (%+v, %+v)", *prof, expected)
		}
	})
}

func TestProfile_Verify(t *testing.T) {
	ca := base64.StdEncoding.EncodeToString(selfSignedPEM(t))

	for name, testcase := range map[string]struct {
		prof *console.Profile
		then error
	}{
		"all value is valid, it is valid": {
			prof: &console.Profile{
				ApiRoot: "https://api.example.com/api/v1",
				WsRoot:  "wss://api.example.com/ws",
				Cert:    console.Cert{CA: ca},
			},
		},
		"minimal profile is valid": {
			prof: &console.Profile{ApiRoot: "http://localhost:8001/api/v1"},
		},
		"when apiRoot is not URL, it is not valid": {
			prof: &console.Profile{ApiRoot: "not url"},
			then: console.ErrProfileInvalid,
		},
		"when apiRoot is ws URL, it is not valid": {
			prof: &console.Profile{ApiRoot: "ws://localhost:8001"},
			then: console.ErrProfileInvalid,
		},
		"when wsRoot is http URL, it is not valid": {
			prof: &console.Profile{ApiRoot: "http://localhost:8001", WsRoot: "http://localhost:8001/ws"},
			then: console.ErrProfileInvalid,
		},
		"when CA is broken, it is not valid": {
			prof: &console.Profile{
				ApiRoot: "https://api.example.com",
				Cert:    console.Cert{CA: base64.StdEncoding.EncodeToString([]byte("broken cert"))},
			},
			then: console.ErrProfileInvalid,
		},
		"when jitter is more than 1, it is not valid": {
			prof: &console.Profile{
				ApiRoot:   "https://api.example.com",
				Reconnect: console.Reconnect{Jitter: 1.5},
			},
			then: console.ErrProfileInvalid,
		},
		"when timeout is negative, it is not valid": {
			prof: &console.Profile{ApiRoot: "https://api.example.com", Timeout: -time.Second},
			then: console.ErrProfileInvalid,
		},
	} {
		t.Run(name, func(t *testing.T) {
			err := testcase.prof.Verify()
			if testcase.then == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, testcase.then) {
				t.Errorf("expected %v, but got %v", testcase.then, err)
			}
		})
	}
}

func TestProfile_EventURL(t *testing.T) {
	for name, testcase := range map[string]struct {
		when console.Profile
		then string
	}{
		"wsRoot is used as is": {
			when: console.Profile{ApiRoot: "http://localhost:8001/api/v1", WsRoot: "ws://events.example.com/socket"},
			then: "ws://events.example.com/socket",
		},
		"http apiRoot becomes ws": {
			when: console.Profile{ApiRoot: "http://localhost:8001/api/v1"},
			then: "ws://localhost:8001/ws",
		},
		"https apiRoot becomes wss": {
			when: console.Profile{ApiRoot: "https://console.example.com/api/v1?x=1"},
			then: "wss://console.example.com/ws",
		},
	} {
		t.Run(name, func(t *testing.T) {
			got := try.To(testcase.when.EventURL()).OrFatal(t)
			if got != testcase.then {
				t.Errorf("EventURL() = %s, want %s", got, testcase.then)
			}
		})
	}
}

func TestProfile_Credential(t *testing.T) {
	t.Run("it returns the token in the profile", func(t *testing.T) {
		t.Setenv(console.EnvToken, "")
		p := console.Profile{Token: "in-profile"}
		if got := p.Credential(); got != "in-profile" {
			t.Errorf("Credential() = %s", got)
		}
	})

	t.Run("environment variable overrides the token in the profile", func(t *testing.T) {
		t.Setenv(console.EnvToken, "from-env")
		p := console.Profile{Token: "in-profile"}
		if got := p.Credential(); got != "from-env" {
			t.Errorf("Credential() = %s", got)
		}
	})
}

func TestProfile_TokenExpiry(t *testing.T) {
	t.Setenv(console.EnvToken, "")

	t.Run("it reads exp claim", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		token := try.To(
			jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(exp),
			}).SignedString([]byte("secret")),
		).OrFatal(t)

		p := console.Profile{Token: token}
		got := try.To(p.TokenExpiry()).OrFatal(t)
		if !got.Equal(exp) {
			t.Errorf("TokenExpiry() = %v, want %v", got, exp)
		}
	})

	t.Run("no token, no expiry", func(t *testing.T) {
		p := console.Profile{}
		got := try.To(p.TokenExpiry()).OrFatal(t)
		if !got.IsZero() {
			t.Errorf("TokenExpiry() = %v", got)
		}
	})

	t.Run("it returns error for tokens not JWT", func(t *testing.T) {
		p := console.Profile{Token: "opaque"}
		if _, err := p.TokenExpiry(); err == nil {
			t.Error("no error")
		}
	})
}

func TestProfile_TLSConfig(t *testing.T) {
	t.Run("it is nil without CA", func(t *testing.T) {
		p := console.Profile{ApiRoot: "https://example.com/api/v1"}
		if got := try.To(p.TLSConfig()).OrFatal(t); got != nil {
			t.Errorf("unexpected config: %+v", got)
		}
	})

	t.Run("it trusts the CA", func(t *testing.T) {
		ca := selfSignedPEM(t)
		p := console.Profile{
			ApiRoot: "https://example.com/api/v1",
			Cert:    console.Cert{CA: base64.StdEncoding.EncodeToString(ca)},
		}
		got := try.To(p.TLSConfig()).OrFatal(t)
		if got == nil || got.RootCAs == nil {
			t.Fatalf("no root CAs: %+v", got)
		}
		blk, _ := pem.Decode(ca)
		cert := try.To(x509.ParseCertificate(blk.Bytes)).OrFatal(t)
		if _, err := cert.Verify(x509.VerifyOptions{Roots: got.RootCAs}); err != nil {
			t.Errorf("CA is not trusted: %s", err)
		}
	})

	t.Run("it rejects CA not in PEM", func(t *testing.T) {
		p := console.Profile{Cert: console.Cert{CA: base64.StdEncoding.EncodeToString([]byte("not a pem"))}}
		if _, err := p.TLSConfig(); !errors.Is(err, console.ErrProfileInvalid) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestReconnect_WithDefaults(t *testing.T) {
	got := console.Reconnect{Jitter: -1}.WithDefaults()
	expected := console.Reconnect{
		MaxAttempts: console.DefaultMaxReconnectAttempts,
		Delay:       console.DefaultReconnectDelay,
		MaxDelay:    console.DefaultMaxReconnectDelay,
		Jitter:      0,
	}
	if got != expected {
		t.Errorf("WithDefaults() = %+v, want %+v", got, expected)
	}

	if got := (console.Reconnect{}).WithDefaults(); got.Jitter != console.DefaultReconnectJitter {
		t.Errorf("default jitter = %v", got.Jitter)
	}
}

func TestProfileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile")

	store := console.ProfileStore{
		"local": {ApiRoot: "http://localhost:8001/api/v1", Timeout: 5 * time.Second},
	}
	if err := store.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded := try.To(console.LoadProfileStore(path)).OrFatal(t)
	got := try.To(loaded.Get("local")).OrFatal(t)
	if *got != *store["local"] {
		t.Errorf("loaded profile unmatch. (actual, expected) = (%+v, %+v)", *got, *store["local"])
	}

	if _, err := loaded.Get("missing"); !errors.Is(err, console.ErrProfileNotFound) {
		t.Errorf("unexpected error: %v", err)
	}

	if _, err := console.LoadProfileStore(filepath.Join(t.TempDir(), "none")); !errors.Is(err, console.ErrProfileStoreNotFound) {
		t.Errorf("unexpected error: %v", err)
	}
}
