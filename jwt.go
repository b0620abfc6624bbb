package jwt

import (
	"time"
)

// Clock is used to validate tokens expiration if the "exp" (expiration) exists in the payload.
// It also stamps error records and the "iat"/"exp" claims set by MaxAge.
// It can be overridden to use any other time value, useful for testing.
//
// Usage: now := Clock()
var Clock = time.Now

// VerifyLeeway is the clock skew tolerated by Verify when comparing "exp"
// against the current time. It is fixed; IsExpired takes its own leeway.
const VerifyLeeway = time.Second
