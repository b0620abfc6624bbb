package jwt

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"sort"
	"sync"

	gjwt "github.com/golang-jwt/jwt/v5"
)

type (
	// PrivateKey is the key material used to sign.
	// Its concrete type depends on the algorithm:
	//   - HMAC: []byte or string (shared secret)
	//   - RSA, RSA-PSS: *rsa.PrivateKey
	//   - ECDSA: *ecdsa.PrivateKey
	//   - EdDSA: ed25519.PrivateKey
	PrivateKey = any
	// PublicKey is the key material used to verify.
	//   - HMAC: []byte or string (the same shared secret)
	//   - RSA, RSA-PSS: *rsa.PublicKey (or the private key)
	//   - ECDSA: *ecdsa.PublicKey (or the private key)
	//   - EdDSA: ed25519.PublicKey (or the private key)
	PublicKey = any
)

// Alg represents a cryptographic algorithm for JWT signing and verification.
//
// The signing math itself lives in the primitive behind the algorithm;
// the built-in algorithms delegate to github.com/golang-jwt/jwt/v5 signing
// methods. Custom algorithms can be added with RegisterAlg.
//
// **Implementation Requirements**:
//   - Safe for concurrent use
//   - Sign returns raw signature bytes, not base64url
//   - Verify returns ErrTokenSignature (wrapped is fine) when the
//     signature does not match and ErrInvalidKey when the key type is wrong
type Alg interface {
	// Name returns the "alg" header value, e.g. "HS256". It is compared
	// case-sensitively.
	Name() string
	// Sign signs the "header.payload" signing input.
	Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error)
	// Verify checks signature against the "header.payload" signing input.
	Verify(key PublicKey, headerAndPayload []byte, signature []byte) error
}

// resigner is implemented by algorithms whose verification can be done by
// signing again with the verification key and comparing. That holds for
// deterministic symmetric algorithms only.
type resigner interface {
	resignable() bool
}

// algMethod adapts a golang-jwt signing method to Alg.
type algMethod struct {
	method    gjwt.SigningMethod
	symmetric bool
}

var _ Alg = (*algMethod)(nil)

// FromSigningMethod adapts any github.com/golang-jwt/jwt/v5 signing method
// to an Alg. HMAC methods are verified by re-signing and comparing,
// everything else through the method's own Verify.
func FromSigningMethod(method gjwt.SigningMethod) Alg {
	_, symmetric := method.(*gjwt.SigningMethodHMAC)
	return &algMethod{method: method, symmetric: symmetric}
}

func (a *algMethod) Name() string {
	return a.method.Alg()
}

func (a *algMethod) resignable() bool {
	return a.symmetric
}

func (a *algMethod) Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error) {
	if a.symmetric {
		secret, err := sharedSecret(key)
		if err != nil {
			return nil, err
		}
		key = secret
	}

	signature, err := a.method.Sign(string(headerAndPayload), key)
	if err != nil {
		return nil, wrapMethodError(a.Name(), err)
	}

	return signature, nil
}

func (a *algMethod) Verify(key PublicKey, headerAndPayload []byte, signature []byte) error {
	if a.symmetric {
		secret, err := sharedSecret(key)
		if err != nil {
			return err
		}
		key = secret
	} else {
		key = publicHalf(key)
	}

	if err := a.method.Verify(string(headerAndPayload), signature, key); err != nil {
		if isKeyError(err) {
			return wrapMethodError(a.Name(), err)
		}
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	}

	return nil
}

func sharedSecret(key any) ([]byte, error) {
	switch k := key.(type) {
	case []byte:
		if len(k) == 0 {
			return nil, ErrInvalidKey
		}
		return k, nil
	case string:
		if k == "" {
			return nil, ErrInvalidKey
		}
		return []byte(k), nil
	default:
		return nil, ErrInvalidKey
	}
}

// publicHalf lets a private key be passed where its public key is expected.
func publicHalf(key any) any {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return &k.PublicKey
	case *ecdsa.PrivateKey:
		return &k.PublicKey
	case ed25519.PrivateKey:
		if len(k) == ed25519.PrivateKeySize {
			return k.Public()
		}
	}
	return key
}

func isKeyError(err error) bool {
	return errors.Is(err, gjwt.ErrInvalidKeyType) || errors.Is(err, gjwt.ErrInvalidKey)
}

func wrapMethodError(alg string, err error) error {
	if isKeyError(err) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidKey, alg, err)
	}
	return fmt.Errorf("%s: %w", alg, err)
}

// The built-in algorithms.
//
// **Quick Selection Guide**:
//   - Shared secret between signer and verifier: HS256/HS384/HS512
//   - Public key verification: RS256, PS256, ES256 or EdDSA
//
// Only the HMAC family is checked by re-signing; RSA-PSS and ECDSA
// signatures are randomized and are always checked with the primitive's
// own Verify.
var (
	HS256 = FromSigningMethod(gjwt.SigningMethodHS256)
	HS384 = FromSigningMethod(gjwt.SigningMethodHS384)
	HS512 = FromSigningMethod(gjwt.SigningMethodHS512)

	RS256 = FromSigningMethod(gjwt.SigningMethodRS256)
	RS384 = FromSigningMethod(gjwt.SigningMethodRS384)
	RS512 = FromSigningMethod(gjwt.SigningMethodRS512)

	PS256 = FromSigningMethod(gjwt.SigningMethodPS256)
	PS384 = FromSigningMethod(gjwt.SigningMethodPS384)
	PS512 = FromSigningMethod(gjwt.SigningMethodPS512)

	ES256 = FromSigningMethod(gjwt.SigningMethodES256)
	ES384 = FromSigningMethod(gjwt.SigningMethodES384)
	ES512 = FromSigningMethod(gjwt.SigningMethodES512)

	EdDSA = FromSigningMethod(gjwt.SigningMethodEdDSA)
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Alg{}
)

func init() {
	for _, alg := range []Alg{
		HS256, HS384, HS512,
		RS256, RS384, RS512,
		PS256, PS384, PS512,
		ES256, ES384, ES512,
		EdDSA,
	} {
		registry[alg.Name()] = alg
	}
}

// RegisterAlg adds (or replaces) an algorithm in the registry used by Sign
// and LookupAlg. Verification never consults the registry: it only uses the
// algorithms the caller allows.
func RegisterAlg(alg Alg) {
	registryMu.Lock()
	registry[alg.Name()] = alg
	registryMu.Unlock()
}

// LookupAlg returns the registered algorithm by its exact name.
func LookupAlg(name string) (Alg, bool) {
	registryMu.RLock()
	alg, ok := registry[name]
	registryMu.RUnlock()
	return alg, ok
}

// ParseAlgs resolves a list of algorithm names, e.g. from configuration.
func ParseAlgs(names ...string) ([]Alg, error) {
	algs := make([]Alg, 0, len(names))
	for _, name := range names {
		alg, ok := LookupAlg(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAlg, name)
		}
		algs = append(algs, alg)
	}
	return algs, nil
}

// AlgNames returns the names of all registered algorithms, sorted.
func AlgNames() []string {
	registryMu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	registryMu.RUnlock()

	sort.Strings(names)
	return names
}
