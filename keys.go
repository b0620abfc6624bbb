package jwt

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"strings"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// MustLoadHMAC accepts a single filename
// which its plain text data should contain the HMAC shared key.
// Pass the returned value to both `Sign` and `Verify` functions.
//
// It panics if the file was not found or unable to read from.
func MustLoadHMAC(filenameOrRaw string) []byte {
	key, err := LoadHMAC(filenameOrRaw)
	if err != nil {
		panic(err)
	}

	return key
}

// LoadHMAC accepts a single filename
// which its plain text data should contain the HMAC shared key.
// If no such file exists the argument itself is the key.
func LoadHMAC(filenameOrRaw string) ([]byte, error) {
	if fileExists(filenameOrRaw) {
		// load contents from file.
		b, err := os.ReadFile(filenameOrRaw)
		if err != nil {
			return nil, err
		}
		return []byte(strings.TrimRight(string(b), "\r\n")), nil
	}

	// otherwise just cast the argument to []byte
	return []byte(filenameOrRaw), nil
}

// fileExists reports whether the local physical "path" exists and it's not a directory.
func fileExists(path string) bool {
	f, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !f.IsDir()
}

// ParsePrivateKey parses the signing key of alg.
// HMAC keys are returned as is; RSA, RSA-PSS, ECDSA and EdDSA keys must be PEM.
func ParsePrivateKey(alg Alg, data []byte) (PrivateKey, error) {
	switch family(alg.Name()) {
	case "HS":
		if len(data) == 0 {
			return nil, ErrInvalidKey
		}
		return data, nil
	case "RS", "PS":
		return gjwt.ParseRSAPrivateKeyFromPEM(data)
	case "ES":
		return gjwt.ParseECPrivateKeyFromPEM(data)
	case "Ed":
		key, err := gjwt.ParseEdPrivateKeyFromPEM(data)
		if err != nil {
			return nil, err
		}
		edKey, ok := key.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an ed25519 private key", ErrInvalidKey)
		}
		return edKey, nil
	default:
		return nil, fmt.Errorf("%w: cannot parse keys for %q", ErrUnknownAlg, alg.Name())
	}
}

// ParsePublicKey parses the verification key of alg.
// A PEM private key is accepted too and its public half is returned.
func ParsePublicKey(alg Alg, data []byte) (PublicKey, error) {
	switch family(alg.Name()) {
	case "HS":
		if len(data) == 0 {
			return nil, ErrInvalidKey
		}
		return data, nil
	case "RS", "PS":
		if pub, err := gjwt.ParseRSAPublicKeyFromPEM(data); err == nil {
			return pub, nil
		}
	case "ES":
		if pub, err := gjwt.ParseECPublicKeyFromPEM(data); err == nil {
			return pub, nil
		}
	case "Ed":
		if pub, err := gjwt.ParseEdPublicKeyFromPEM(data); err == nil {
			edKey, ok := pub.(ed25519.PublicKey)
			if !ok {
				return nil, fmt.Errorf("%w: not an ed25519 public key", ErrInvalidKey)
			}
			return edKey, nil
		}
	default:
		return nil, fmt.Errorf("%w: cannot parse keys for %q", ErrUnknownAlg, alg.Name())
	}

	priv, err := ParsePrivateKey(alg, data)
	if err != nil {
		return nil, err
	}

	return publicHalf(priv), nil
}

func family(name string) string {
	if len(name) < 2 {
		return ""
	}
	return name[:2]
}
