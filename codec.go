package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

const sep = "."

var errLineBreak = errors.New("jwt: line break in base64url segment")

var (
	pad     = []byte("=")
	b64     = base64.URLEncoding
	b64Read = base64.URLEncoding.Strict()
)

// UnverifiedToken is a compact token split into its decoded parts.
// Nothing in it has been checked beyond being base64url and JSON.
type UnverifiedToken struct {
	// Header and Payload are the decoded JSON of the first two segments.
	// They may be any JSON kind at this stage.
	Header  Value
	Payload Value
	// Signature is the hex encoding of the decoded third segment.
	Signature string
	// SigningInput is "header.payload" exactly as it appeared on the wire.
	SigningInput string
}

// SignatureBytes returns the raw signature bytes.
func (t *UnverifiedToken) SignatureBytes() []byte {
	b, _ := hex.DecodeString(t.Signature)
	return b
}

// Decode splits a compact token and decodes its segments without verifying it.
// It fails with ErrTokenForm when the token does not have exactly three
// segments, a segment is not base64url or the header/payload is not JSON.
func Decode(token string) (*UnverifiedToken, error) {
	parts := strings.Split(token, sep)
	if len(parts) != 3 {
		return nil, newError(KindMalformed, "token must have three segments", nil)
	}

	headerDecoded, err := Base64Decode(parts[0])
	if err != nil {
		return nil, newError(KindMalformed, "header segment is not base64url", err)
	}

	payloadDecoded, err := Base64Decode(parts[1])
	if err != nil {
		return nil, newError(KindMalformed, "payload segment is not base64url", err)
	}

	signatureDecoded, err := Base64Decode(parts[2])
	if err != nil {
		return nil, newError(KindMalformed, "signature segment is not base64url", err)
	}

	header, err := ParseValue(headerDecoded)
	if err != nil {
		return nil, newError(KindMalformed, "header segment is not JSON", err)
	}

	payload, err := ParseValue(payloadDecoded)
	if err != nil {
		return nil, newError(KindMalformed, "payload segment is not JSON", err)
	}

	return &UnverifiedToken{
		Header:       header,
		Payload:      payload,
		Signature:    hex.EncodeToString(signatureDecoded),
		SigningInput: parts[0] + sep + parts[1],
	}, nil
}

// Encode assembles a compact token from a header, a payload and raw
// signature bytes. It does not sign anything; see Sign.
func Encode(header, payload Object, signature []byte) (string, error) {
	input, err := signingInput(header, payload)
	if err != nil {
		return "", err
	}

	return joinParts(input, Base64Encode(signature)), nil
}

// signingInput returns base64url(header) + "." + base64url(payload).
func signingInput(header, payload Object) (string, error) {
	h, err := header.MarshalJSON()
	if err != nil {
		return "", err
	}

	p, err := payload.MarshalJSON()
	if err != nil {
		return "", err
	}

	return joinParts(Base64Encode(h), Base64Encode(p)), nil
}

func joinParts(parts ...string) string {
	return strings.Join(parts, sep)
}

// Base64Encode encodes "src" to jwt base64 url format.
func Base64Encode(src []byte) string {
	buf := make([]byte, b64.EncodedLen(len(src)))
	b64.Encode(buf, src)

	return string(bytes.TrimRight(buf, string(pad))) // JWT: no trailing '='.
}

// Base64Decode decodes "src" from jwt base64 url format.
// Trailing '=' padding is accepted but not required.
func Base64Decode(src string) ([]byte, error) {
	if strings.ContainsAny(src, "\r\n") { // the decoder would skip them silently.
		return nil, errLineBreak
	}

	in := []byte(src)
	if n := len(in) % 4; n > 0 {
		// JWT: Because of no trailing '=' let's suffix it
		// with the correct number of those '=' before decoding.
		in = append(in, bytes.Repeat(pad, 4-n)...)
	}

	buf := make([]byte, b64Read.DecodedLen(len(in)))
	n, err := b64Read.Decode(buf, in)
	return buf[:n], err
}
