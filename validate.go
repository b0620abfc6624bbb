package jwt

import "time"

// IsExpired reports whether exp (seconds since the epoch) plus leeway is
// before the current time, as returned by Clock.
func IsExpired(exp float64, leeway time.Duration) bool {
	return exp+leeway.Seconds() < float64(Clock().Unix())
}

// Expired is IsExpired with no leeway.
func Expired(exp float64) bool {
	return IsExpired(exp, 0)
}

// shapedToken is a decoded token that passed the structural checks.
type shapedToken struct {
	alg       string
	header    Object
	payload   Object
	signature string
}

// validateShape gates a decoded token on the minimal JWT shape:
// a signature, an object header with a string "alg", an object payload
// and, when present, a numeric unexpired "exp". It never transforms
// the parts.
func validateShape(tok *UnverifiedToken) (*shapedToken, error) {
	if tok.Signature == "" {
		return nil, newError(KindShape, "signature is not a string", nil)
	}

	header, ok := tok.Header.AsObject()
	if !ok {
		return nil, newError(KindShape, "missing/invalid alg", nil)
	}

	algValue, ok := header.Get("alg")
	if !ok {
		return nil, newError(KindShape, "missing/invalid alg", nil)
	}

	alg, ok := algValue.AsString()
	if !ok {
		return nil, newError(KindShape, "missing/invalid alg", nil)
	}

	payload, ok := tok.Payload.AsObject()
	if !ok {
		return nil, newError(KindShape, "payload is not an object", nil)
	}

	if expValue, ok := payload.Get("exp"); ok {
		exp, ok := expValue.AsFloat()
		if !ok {
			return nil, newError(KindShape, "exp is not a number", nil)
		}

		if IsExpired(exp, VerifyLeeway) {
			return nil, newError(KindExpired, "token expired", nil)
		}
	}

	return &shapedToken{
		alg:       alg,
		header:    header,
		payload:   payload,
		signature: tok.Signature,
	}, nil
}
