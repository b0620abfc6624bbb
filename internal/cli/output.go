package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/critjwt/jwt"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printSection(w io.Writer, title string, v any) {
	headerColor.Fprintln(w, title)
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "  <%v>\n", err)
		return
	}
	fmt.Fprintln(w, string(b))
}

func printDecoded(w io.Writer, tok *jwt.UnverifiedToken) {
	printSection(w, "Header", tok.Header)
	printSection(w, "Payload", tok.Payload)
	headerColor.Fprintln(w, "Signature")
	fmt.Fprintln(w, tok.Signature)
}

func printValid(w io.Writer, r *jwt.ValidResult) {
	successColor.Fprintln(w, "VALID")
	printSection(w, "Header", r.Header)
	printSection(w, "Payload", r.Payload)

	if claims := r.StandardClaims(); claims.Expiry > 0 {
		labelColor.Fprint(w, "Expires: ")
		fmt.Fprintf(w, "%s ", claims.ExpiresAt().UTC().Format(time.RFC3339))
		dimColor.Fprintf(w, "(%s left)\n", claims.Timeleft())
	}

	for i, res := range r.CritResults {
		labelColor.Fprintf(w, "crit[%d]: ", i)
		fmt.Fprintf(w, "%v\n", res)
	}
}

func printInvalid(w io.Writer, r *jwt.InvalidResult) {
	errorColor.Fprint(w, "INVALID")
	fmt.Fprintf(w, " %s: %s\n", r.Err.Kind, r.Err.Message)
	if r.Expired {
		dimColor.Fprintln(w, "the token has expired")
	}
}

// verifyOutput is the --json shape of a verification.
type verifyOutput struct {
	Valid  bool       `json:"valid"`
	Result jwt.Result `json:"result"`
}
