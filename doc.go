/*
Package jwt signs and verifies JSON Web Tokens in the compact JWS form
(RFC 7515, RFC 7519), with support for critical header extensions.

# Overview

A token is three base64url segments: a JSON header, a JSON payload and a
signature over "header.payload". Headers and payloads are represented as
ordered Objects so a decoded token re-serializes to exactly the bytes that
were signed: member order and number literals are preserved.

# Algorithms

  - HMAC: HS256, HS384, HS512
  - RSA: RS256, RS384, RS512
  - RSA-PSS: PS256, PS384, PS512
  - ECDSA: ES256, ES384, ES512
  - EdDSA: Ed25519

The primitives come from github.com/golang-jwt/jwt/v5. Custom algorithms can
be added with RegisterAlg; the unsecured "none" algorithm is not available.

# Verification

Verify never returns an error. It returns a *ValidResult or an
*InvalidResult whose ErrorRecord names the failure kind:

  - malformed: not three base64url segments of JSON
  - shape: no signature, a missing or non-string "alg", a non-object payload or a non-numeric "exp"
  - expired: "exp" passed more than VerifyLeeway ago
  - critical_extension: a "crit" entry without a handler, a reserved name or a rejecting handler
  - algorithm_mismatch: "alg" is not in the request's allow-list
  - signature_mismatch: the signature does not match the key

Every name listed in a "crit" header must have an ExtensionHandler in the
request. Handlers run concurrently and their results are returned in "crit"
order in ValidResult.CritResults.

# Quick Start

	key := []byte("secret")

	payload, _ := jwt.ObjectOf(map[string]any{"sub": "user-1"})
	token, err := jwt.Sign(jwt.NewHeader("HS256"), payload, key, jwt.MaxAge(15*time.Minute))
	if err != nil {
	    // handle error
	}

	switch r := jwt.Verify(ctx, jwt.VerifyRequest{
	    Token:      token,
	    Key:        key,
	    Algorithms: []jwt.Alg{jwt.HS256},
	}).(type) {
	case *jwt.ValidResult:
	    fmt.Println(r.StandardClaims().Subject)
	case *jwt.InvalidResult:
	    fmt.Println(r.Err.Kind, r.Err.Message)
	}

# Critical Extensions

	token, _ := jwt.Sign(jwt.NewHeader("HS256"), payload, key,
	    jwt.WithCritical("tenant", jwt.StringValue("acme")))

	r := jwt.Verify(ctx, jwt.VerifyRequest{
	    Token:      token,
	    Key:        key,
	    Algorithms: []jwt.Alg{jwt.HS256},
	    Handlers: jwt.Handlers{
	        "tenant": jwt.ExtensionHandlerFunc(func(ctx context.Context, v jwt.Value) (any, error) {
	            tenant, _ := v.AsString()
	            return lookupTenant(ctx, tenant)
	        }),
	    },
	})

# Observability

NewVerifier accepts a *slog.Logger and an Observer. The metrics package
provides a Prometheus Observer.

The jwtctl command (cmd/jwtctl) signs, decodes and verifies tokens from the
command line and can serve verification over HTTP.
*/
package jwt
