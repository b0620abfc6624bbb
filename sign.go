package jwt

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sign signs and generates a new token.
// The algorithm is the header's "alg", resolved through the registry
// (see RegisterAlg). The payload is the actual body of the token and
// should contain information about a specific authorized client.
// Note that the payload part is not encrypted,
// therefore it should NOT contain any private information.
// See the `Verify` function to verify the result token.
//
// Neither header nor payload is modified; options apply to copies.
// Errors from the signing primitive (e.g. ErrInvalidKey) are returned as is.
//
// Example Code:
//
//	payload, _ := jwt.ObjectOf(map[string]any{"sub": "user-1"})
//	token, err := jwt.Sign(jwt.NewHeader("HS256"), payload, []byte("secret"),
//	    jwt.MaxAge(15*time.Minute))
func Sign(header, payload Object, key PrivateKey, opts ...SignOption) (string, error) {
	algValue, ok := header.Get("alg")
	if !ok {
		return "", fmt.Errorf("%w: header has no alg", ErrUnknownAlg)
	}

	name, ok := algValue.AsString()
	if !ok {
		return "", fmt.Errorf("%w: alg is a %s", ErrUnknownAlg, algValue.Kind())
	}

	alg, ok := LookupAlg(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlg, name)
	}

	return sign(alg, header, payload, key, opts...)
}

// SignWith is like Sign but uses alg directly and sets the header's "alg" to its name.
func SignWith(alg Alg, header, payload Object, key PrivateKey, opts ...SignOption) (string, error) {
	header = header.Clone()
	header.Set("alg", StringValue(alg.Name()))
	return sign(alg, header, payload, key, opts...)
}

func sign(alg Alg, header, payload Object, key PrivateKey, opts ...SignOption) (string, error) {
	if len(opts) > 0 {
		header, payload = header.Clone(), payload.Clone()
		for _, opt := range opts {
			opt(&header, &payload)
		}
	}

	headerPayload, err := signingInput(header, payload)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}

	signature, err := alg.Sign(key, []byte(headerPayload))
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}

	// header.payload.signature
	return joinParts(headerPayload, Base64Encode(signature)), nil
}

// SignOption modifies the header and payload copies before they are signed.
type SignOption func(header, payload *Object)

// WithClaims is a SignOption to set multiple standard claims (e.g. id, issuer, subject)
// at once, simply by passing the Claims struct. Zero fields are left alone.
//
// See `MaxAge` too.
func WithClaims(standardClaims Claims) SignOption {
	return func(_, payload *Object) {
		standardClaims.applyTo(payload)
	}
}

// MaxAge is a SignOption to set the expiration "exp", "iat" JWT standard claims.
//
// If maxAge > second then sets expiration to the token.
//
// See the `Clock` package-level variable to modify
// the current time function.
func MaxAge(maxAge time.Duration) SignOption {
	return func(_, payload *Object) {
		if maxAge <= time.Second {
			return
		}
		now := Clock()
		payload.Set("exp", IntValue(now.Add(maxAge).Unix()))
		payload.Set("iat", IntValue(now.Unix()))
	}
}

// WithID is a SignOption that sets a random (UUID v4) "jti" claim.
func WithID() SignOption {
	return func(_, payload *Object) {
		payload.Set("jti", StringValue(uuid.NewString()))
	}
}

// WithHeader is a SignOption that sets a header parameter.
func WithHeader(name string, value Value) SignOption {
	return func(header, _ *Object) {
		header.Set(name, value)
	}
}

// WithCritical is a SignOption that sets a header extension and lists it in
// "crit", so that verifiers without a handler for it reject the token.
func WithCritical(name string, value Value) SignOption {
	return func(header, _ *Object) {
		header.Set(name, value)

		var names []Value
		if existing, ok := header.Get("crit"); ok {
			if arr, ok := existing.AsArray(); ok {
				for _, item := range arr {
					if s, ok := item.AsString(); ok && s == name {
						return
					}
				}
				names = append(names, arr...)
			}
		}
		header.Set("crit", ArrayValue(append(names, StringValue(name))...))
	}
}
