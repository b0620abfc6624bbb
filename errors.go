package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrTokenForm indicates that the token is not shaped like a token at all:
	// wrong segment count, bad base64url or a segment that is not JSON.
	ErrTokenForm = errors.New("jwt: invalid token form")
	// ErrShape indicates that the token decodes but its header or payload
	// breaks a structural rule (missing "alg", non-numeric "exp").
	ErrShape = errors.New("jwt: invalid token shape")
	// ErrExpired indicates that the "exp" claim has passed, leeway included.
	ErrExpired = errors.New("jwt: token expired")
	// ErrCritical indicates a malformed "crit" list, a reserved name inside it
	// or an extension the verifier does not understand.
	ErrCritical = errors.New("jwt: critical extension not understood")
	// ErrTokenAlg indicates that the token's algorithm is not one of the accepted ones.
	ErrTokenAlg = errors.New("jwt: unexpected token algorithm")
	// ErrTokenSignature indicates that the signature does not match.
	ErrTokenSignature = errors.New("jwt: invalid token signature")

	// ErrInvalidKey indicates that the key does not fit the algorithm.
	ErrInvalidKey = errors.New("jwt: invalid key")
	// ErrUnknownAlg indicates that no registered algorithm has the requested name.
	ErrUnknownAlg = errors.New("jwt: unknown algorithm")
)

// ErrorKind classifies why a token was rejected.
type ErrorKind uint8

// Rejection kinds. KindNone marks a valid token.
const (
	KindNone ErrorKind = iota
	KindMalformed
	KindShape
	KindExpired
	KindCritical
	KindAlgorithm
	KindSignature
)

var kindNames = [...]string{
	KindNone:      "none",
	KindMalformed: "malformed",
	KindShape:     "shape",
	KindExpired:   "expired",
	KindCritical:  "critical_extension",
	KindAlgorithm: "algorithm_mismatch",
	KindSignature: "signature_mismatch",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText encodes the kind by name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = ErrorKind(i)
			return nil
		}
	}
	return fmt.Errorf("jwt: unknown error kind %q", text)
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMalformed:
		return ErrTokenForm
	case KindShape:
		return ErrShape
	case KindExpired:
		return ErrExpired
	case KindCritical:
		return ErrCritical
	case KindAlgorithm:
		return ErrTokenAlg
	case KindSignature:
		return ErrTokenSignature
	default:
		return nil
	}
}

// Error is a verification failure of a specific kind.
// errors.Is matches both the kind's sentinel (e.g. ErrExpired) and the cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the kind's sentinel and the underlying cause, if any.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ErrorRecord is the error carried by an invalid verification result.
type ErrorRecord struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (r ErrorRecord) Error() string {
	return r.Message
}

// Is lets errors.Is(record, ErrExpired) and friends work on records.
func (r ErrorRecord) Is(target error) bool {
	s := r.Kind.sentinel()
	return s != nil && s == target
}

// toRecord normalizes any error into a record stamped with the current time.
func toRecord(err error) ErrorRecord {
	var e *Error
	if !errors.As(err, &e) {
		e = newError(KindMalformed, err.Error(), err)
	}

	return ErrorRecord{
		Kind:      e.Kind,
		Message:   e.Message,
		Timestamp: Clock(),
	}
}
