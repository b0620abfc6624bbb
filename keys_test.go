package jwt

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadHMAC(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "secret.key")
	if err := os.WriteFile(filename, []byte("file-secret\r\n"), 0600); err != nil {
		t.Fatal(err)
	}

	key, err := LoadHMAC(filename)
	if err != nil {
		t.Fatal(err)
	}
	if string(key) != "file-secret" {
		t.Fatalf("expected the trimmed file contents but got %q", key)
	}

	if key = MustLoadHMAC("raw-secret"); string(key) != "raw-secret" {
		t.Fatalf("expected the raw argument but got %q", key)
	}

	// a directory is never read as a key file.
	if key = MustLoadHMAC(t.TempDir()); len(key) == 0 {
		t.Fatalf("expected the directory name as the raw key")
	}
}

func pemBlock(t *testing.T, typ string, der []byte, err error) []byte {
	t.Helper()

	if err != nil {
		t.Fatal(err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der})
}

func TestParseKeys(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	edPub, edKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	rsaPub, err := x509.MarshalPKIXPublicKey(&rsaKey.PublicKey)
	ecPriv, ecErr := x509.MarshalECPrivateKey(ecKey)
	ecPub, ecPubErr := x509.MarshalPKIXPublicKey(&ecKey.PublicKey)
	edPriv, edErr := x509.MarshalPKCS8PrivateKey(edKey)
	edPubDER, edPubErr := x509.MarshalPKIXPublicKey(edPub)

	var tests = []struct {
		alg     Alg
		private []byte
		public  []byte
	}{
		{RS256, pemBlock(t, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(rsaKey), nil), pemBlock(t, "PUBLIC KEY", rsaPub, err)},
		{PS512, pemBlock(t, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(rsaKey), nil), pemBlock(t, "PUBLIC KEY", rsaPub, err)},
		{ES256, pemBlock(t, "EC PRIVATE KEY", ecPriv, ecErr), pemBlock(t, "PUBLIC KEY", ecPub, ecPubErr)},
		{EdDSA, pemBlock(t, "PRIVATE KEY", edPriv, edErr), pemBlock(t, "PUBLIC KEY", edPubDER, edPubErr)},
	}

	payload := mustObject(t, map[string]any{"sub": "x"})

	for _, tt := range tests {
		priv, err := ParsePrivateKey(tt.alg, tt.private)
		if err != nil {
			t.Fatalf("[%s] private: %v", tt.alg.Name(), err)
		}

		pub, err := ParsePublicKey(tt.alg, tt.public)
		if err != nil {
			t.Fatalf("[%s] public: %v", tt.alg.Name(), err)
		}

		// the private PEM is accepted as a verification key too.
		pubFromPriv, err := ParsePublicKey(tt.alg, tt.private)
		if err != nil {
			t.Fatalf("[%s] public from private: %v", tt.alg.Name(), err)
		}

		token, err := SignWith(tt.alg, Object{}, payload, priv)
		if err != nil {
			t.Fatalf("[%s] sign: %v", tt.alg.Name(), err)
		}

		for _, key := range []PublicKey{pub, pubFromPriv} {
			r := Verify(t.Context(), VerifyRequest{Token: token, Key: key, Algorithms: []Alg{tt.alg}})
			if !r.IsValid() {
				t.Fatalf("[%s] expected a valid token with %T: %+v", tt.alg.Name(), key, r)
			}
		}
	}
}

func TestParseKeysErrors(t *testing.T) {
	if _, err := ParsePrivateKey(HS256, nil); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey but got: %v", err)
	}
	if _, err := ParsePublicKey(HS512, []byte{}); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey but got: %v", err)
	}

	key, err := ParsePublicKey(HS384, []byte("secret"))
	if err != nil || string(key.([]byte)) != "secret" {
		t.Fatalf("expected the HMAC secret as is: %v, %v", key, err)
	}

	for _, alg := range []Alg{RS256, PS256, ES384, EdDSA} {
		if _, err := ParsePrivateKey(alg, []byte("not a pem")); err == nil {
			t.Fatalf("[%s] expected an error for a non PEM private key", alg.Name())
		}
		if _, err := ParsePublicKey(alg, []byte("not a pem")); err == nil {
			t.Fatalf("[%s] expected an error for a non PEM public key", alg.Name())
		}
	}

	if _, err := ParsePrivateKey(testSHA256Alg{}, []byte("k")); !errors.Is(err, ErrUnknownAlg) {
		t.Fatalf("expected ErrUnknownAlg for a custom algorithm but got: %v", err)
	}
}
