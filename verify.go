package jwt

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// VerifyRequest holds everything a single verification needs.
type VerifyRequest struct {
	// Token is the compact token presented by the caller.
	Token string
	// Key verifies the signature. See PublicKey for the accepted types.
	Key PublicKey
	// Algorithms is the allow-list: one or more algorithms the token may be
	// signed with. An empty list rejects every token.
	Algorithms []Alg
	// Handlers understands the token's critical header extensions, if any.
	Handlers Handlers
}

// Result is the outcome of a verification: either a *ValidResult or an
// *InvalidResult, never both and never anything else.
//
// Usage:
//
//	switch r := jwt.Verify(ctx, req).(type) {
//	case *jwt.ValidResult:
//	    use(r.Payload)
//	case *jwt.InvalidResult:
//	    if r.Expired { ... }
//	}
type Result interface {
	// IsValid reports whether the token was verified.
	IsValid() bool
	// Raw returns the token string exactly as it was presented.
	Raw() string

	isResult()
}

// ValidResult is a verified token.
type ValidResult struct {
	Header  Object `json:"header"`
	Payload Object `json:"payload"`
	// Signature is the hex encoding of the signature bytes.
	Signature string `json:"signature"`
	// JWT is the original token string.
	JWT string `json:"jwt"`
	// CritResults holds the critical extension handler outputs, in "crit" order.
	CritResults []any `json:"critResult,omitempty"`
}

// InvalidResult is a rejected token.
type InvalidResult struct {
	// JWT is the token as presented, possibly not even shaped like one.
	JWT string `json:"jwt"`
	// Err describes why the token was rejected.
	Err ErrorRecord `json:"error"`
	// Expired is true only when the token was rejected for its "exp" claim.
	Expired bool `json:"isExpired"`
}

func (*ValidResult) IsValid() bool   { return true }
func (*InvalidResult) IsValid() bool { return false }

func (r *ValidResult) Raw() string   { return r.JWT }
func (r *InvalidResult) Raw() string { return r.JWT }

func (*ValidResult) isResult()   {}
func (*InvalidResult) isResult() {}

// StandardClaims returns the standard claims of the verified payload.
func (r *ValidResult) StandardClaims() Claims {
	return claimsFromPayload(r.Payload)
}

// Claims unmarshals the verified payload into dest.
func (r *ValidResult) Claims(dest any) error {
	return r.Payload.Decode(dest)
}

// Observer is notified of every verification outcome.
// alg is empty unless the token's algorithm passed the allow-list;
// kind is KindNone for valid tokens.
type Observer interface {
	ObserveVerify(alg string, kind ErrorKind, elapsed time.Duration)
}

// Verifier verifies tokens. The zero value is not usable, see NewVerifier.
// A Verifier holds no per-token state and is safe for concurrent use.
type Verifier struct {
	logger   *slog.Logger
	observer Observer
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithLogger sets the logger that receives a debug record per verification.
func WithLogger(logger *slog.Logger) VerifierOption {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithObserver sets an Observer, e.g. a metrics.Collector.
func WithObserver(observer Observer) VerifierOption {
	return func(v *Verifier) {
		v.observer = observer
	}
}

// NewVerifier returns a Verifier. Without options it logs nowhere and
// observes nothing.
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultVerifier = NewVerifier()

// Verify verifies req.Token with the package's default Verifier.
// See Verifier.Verify.
func Verify(ctx context.Context, req VerifyRequest) Result {
	return defaultVerifier.Verify(ctx, req)
}

// Verify decodes and verifies a token.
//
// **Verification Process**:
//  1. Decode the three segments (ErrTokenForm)
//  2. Structural checks: signature present, string "alg", numeric "exp",
//     "exp" not passed beyond VerifyLeeway (ErrShape, ErrExpired)
//  3. Critical extensions through req.Handlers (ErrCritical)
//  4. "alg" must be one of req.Algorithms (ErrTokenAlg)
//  5. Signature check with the allowed algorithm and req.Key (ErrTokenSignature)
//
// HMAC tokens are checked by re-signing the decoded header and payload and
// comparing signatures; asymmetric ones through the algorithm's Verify over
// the original signing input.
//
// Verify never returns an error and never panics: every failure becomes an
// *InvalidResult whose Err carries the kind, a message and a timestamp.
// ctx is passed to the extension handlers.
func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) Result {
	start := time.Now()

	res, alg, err := v.verify(ctx, req)
	if err != nil {
		record := toRecord(err)
		v.logger.DebugContext(ctx, "token rejected",
			slog.String("kind", record.Kind.String()),
			slog.String("message", record.Message))
		v.observe(alg, record.Kind, start)

		return &InvalidResult{
			JWT:     req.Token,
			Err:     record,
			Expired: record.Kind == KindExpired,
		}
	}

	v.logger.DebugContext(ctx, "token verified", slog.String("alg", alg))
	v.observe(alg, KindNone, start)
	return res
}

func (v *Verifier) observe(alg string, kind ErrorKind, start time.Time) {
	if v.observer != nil {
		v.observer.ObserveVerify(alg, kind, time.Since(start))
	}
}

func (v *Verifier) verify(ctx context.Context, req VerifyRequest) (res *ValidResult, algName string, err error) {
	stage := KindMalformed
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, newError(stage, fmt.Sprintf("verification aborted: %v", r), nil)
		}
	}()

	tok, err := Decode(req.Token)
	if err != nil {
		return nil, "", err
	}

	stage = KindShape
	shaped, err := validateShape(tok)
	if err != nil {
		return nil, "", err
	}

	stage = KindCritical
	critResults, err := dispatchCritical(ctx, shaped.header, req.Handlers)
	if err != nil {
		return nil, "", err
	}

	stage = KindAlgorithm
	if len(req.Algorithms) == 0 {
		return nil, "", newError(KindAlgorithm, "no acceptable algorithms configured", nil)
	}

	alg, ok := matchAlgorithm(shaped.alg, req.Algorithms)
	if !ok {
		return nil, "", newError(KindAlgorithm, fmt.Sprintf("algorithm %q is not accepted", shaped.alg), nil)
	}

	stage = KindSignature
	if err = checkSignature(alg, req.Key, tok, shaped); err != nil {
		return nil, alg.Name(), err
	}

	return &ValidResult{
		Header:      shaped.header,
		Payload:     shaped.payload,
		Signature:   shaped.signature,
		JWT:         req.Token,
		CritResults: critResults,
	}, alg.Name(), nil
}

func checkSignature(alg Alg, key PublicKey, tok *UnverifiedToken, shaped *shapedToken) error {
	if r, ok := alg.(resigner); ok && r.resignable() {
		return resignAndCompare(alg, key, shaped)
	}

	signature, err := hex.DecodeString(shaped.signature)
	if err != nil {
		return newError(KindSignature, "signature mismatch", err)
	}

	if err = alg.Verify(key, []byte(tok.SigningInput), signature); err != nil {
		return newError(KindSignature, "signature mismatch", err)
	}

	return nil
}

// resignAndCompare signs the decoded header and payload again with the
// verification key and compares the fresh signature with the presented one.
// Only sound for deterministic algorithms.
func resignAndCompare(alg Alg, key PublicKey, shaped *shapedToken) error {
	fresh, err := sign(alg, shaped.header, shaped.payload, key)
	if err != nil {
		return newError(KindSignature, "unable to derive the expected signature", err)
	}

	expected, err := Decode(fresh)
	if err != nil {
		return newError(KindSignature, "unable to derive the expected signature", err)
	}

	if subtle.ConstantTimeCompare([]byte(expected.Signature), []byte(shaped.signature)) != 1 {
		return newError(KindSignature, "signature mismatch", nil)
	}

	return nil
}
