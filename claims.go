package jwt

import (
	"time"
)

// Claims holds the standard JWT claims (payload fields).
// It is read from a verified payload with ValidResult.StandardClaims
// and merged into a payload at sign time with WithClaims.
type Claims struct {
	// The opposite of the exp claim. A number representing a specific
	// date and time in the format “seconds since epoch” as defined by POSIX.
	// This claim sets the exact moment from which this JWT is considered valid.
	NotBefore int64 `json:"nbf,omitempty"`
	// A number representing a specific date and time (in the same
	// format as exp and nbf) at which this JWT was issued.
	IssuedAt int64 `json:"iat,omitempty"`
	// A number representing a specific date and time in the
	// format “seconds since epoch” as defined by POSIX.
	// This claims sets the exact moment from which
	// this JWT is considered invalid. Verify tolerates VerifyLeeway of skew.
	Expiry int64 `json:"exp,omitempty"`
	// A string representing a unique identifier for this JWT. This claim may be
	// used to differentiate JWTs with other similar content (preventing replays, for instance).
	ID string `json:"jti,omitempty"`
	// A string or URI that uniquely identifies the party
	// that issued the JWT.
	Issuer string `json:"iss,omitempty"`
	// A string or URI that uniquely identifies the party
	// that this JWT carries information about.
	Subject string `json:"sub,omitempty"`
	// Either a single string or URI or an array of such
	// values that uniquely identify the intended recipients of this JWT.
	Audience []string `json:"aud,omitempty"`
}

// ExpiresAt returns the time this token will be expired (round in second).
// It returns the zero time when there is no "exp".
func (c Claims) ExpiresAt() time.Time {
	if c.Expiry == 0 {
		return time.Time{}
	}
	return time.Unix(c.Expiry, 0)
}

// Timeleft returns the remaining time to be expired (round in second).
func (c Claims) Timeleft() time.Duration {
	if c.Expiry == 0 {
		return 0
	}
	return time.Duration(c.Expiry-Clock().Unix()) * time.Second
}

// claimsFromPayload reads the standard claims that have the expected JSON
// type and ignores the rest. Fractional dates are truncated.
func claimsFromPayload(payload Object) Claims {
	var c Claims

	if v, ok := payload.Get("nbf"); ok {
		c.NotBefore, _ = v.AsInt()
	}
	if v, ok := payload.Get("iat"); ok {
		c.IssuedAt, _ = v.AsInt()
	}
	if v, ok := payload.Get("exp"); ok {
		c.Expiry, _ = v.AsInt()
	}
	if v, ok := payload.Get("jti"); ok {
		c.ID, _ = v.AsString()
	}
	if v, ok := payload.Get("iss"); ok {
		c.Issuer, _ = v.AsString()
	}
	if v, ok := payload.Get("sub"); ok {
		c.Subject, _ = v.AsString()
	}
	if v, ok := payload.Get("aud"); ok {
		c.Audience = audienceOf(v)
	}

	return c
}

// audienceOf accepts both forms of "aud": a single string or an array of them.
func audienceOf(v Value) []string {
	if s, ok := v.AsString(); ok {
		return []string{s}
	}

	arr, ok := v.AsArray()
	if !ok {
		return nil
	}

	aud := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.AsString(); ok {
			aud = append(aud, s)
		}
	}
	return aud
}

// applyTo sets every non-zero standard claim on payload.
func (c Claims) applyTo(payload *Object) {
	if v := c.NotBefore; v > 0 {
		payload.Set("nbf", IntValue(v))
	}

	if v := c.IssuedAt; v > 0 {
		payload.Set("iat", IntValue(v))
	}

	if v := c.Expiry; v > 0 {
		payload.Set("exp", IntValue(v))
	}

	if v := c.ID; v != "" {
		payload.Set("jti", StringValue(v))
	}

	if v := c.Issuer; v != "" {
		payload.Set("iss", StringValue(v))
	}

	if v := c.Subject; v != "" {
		payload.Set("sub", StringValue(v))
	}

	if v := c.Audience; len(v) > 0 {
		payload.Set("aud", StringsValue(v...))
	}
}
