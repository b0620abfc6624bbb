package cli

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/critjwt/jwt"
	"github.com/critjwt/jwt/metrics"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := execute(root, &stderr)
	return stdout.String(), stderr.String(), err
}

func mustSign(t *testing.T, args ...string) string {
	t.Helper()

	out, stderr, err := run(t, "", append([]string{"sign"}, args...)...)
	if err != nil {
		t.Fatalf("sign failed: %v\n%s", err, stderr)
	}
	return strings.TrimSpace(out)
}

func TestSignVerifyHMAC(t *testing.T) {
	token := mustSign(t, "--alg", "HS256", "--key", "secret", "--payload", `{"sub":"alice"}`, "--max-age", "15m")

	out, _, err := run(t, "", "verify", "--alg", "HS256,HS384", "--key", "secret", token)
	if err != nil {
		t.Fatalf("expected a valid token but got: %v\n%s", err, out)
	}

	if !strings.HasPrefix(out, "VALID") {
		t.Fatalf("expected VALID output but got:\n%s", out)
	}
	if !strings.Contains(out, `"sub": "alice"`) {
		t.Fatalf("expected the payload in the output but got:\n%s", out)
	}
	if !strings.Contains(out, "Expires:") {
		t.Fatalf("expected the expiration line but got:\n%s", out)
	}
}

func TestVerifyInvalid(t *testing.T) {
	token := mustSign(t, "--alg", "HS256", "--key", "secret")

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"wrong key", []string{"--alg", "HS256", "--key", "other"}, "INVALID signature_mismatch"},
		{"not allowed", []string{"--alg", "HS512", "--key", "secret"}, "INVALID algorithm_mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"verify"}, tt.args...)
			out, stderr, err := run(t, "", append(args, token)...)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken but got: %v", err)
			}
			if !strings.HasPrefix(out, tt.expected) {
				t.Fatalf("expected output to start with %q but got:\n%s", tt.expected, out)
			}
			if stderr != "" {
				t.Fatalf("expected nothing on stderr for a rejection but got %q", stderr)
			}
		})
	}
}

func TestVerifyMalformedFromStdin(t *testing.T) {
	out, _, err := run(t, "not-a-token\n", "verify", "--alg", "HS256", "--key", "secret", "--json")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken but got: %v", err)
	}

	var got struct {
		Valid  bool `json:"valid"`
		Result struct {
			JWT   string `json:"jwt"`
			Error struct {
				Kind    string `json:"kind"`
				Message string `json:"message"`
			} `json:"error"`
			IsExpired bool `json:"isExpired"`
		} `json:"result"`
	}
	if err = json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("expected JSON output: %v\n%s", err, out)
	}

	if got.Valid || got.Result.JWT != "not-a-token" || got.Result.Error.Kind != "malformed" || got.Result.IsExpired {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestSignVerifyCritical(t *testing.T) {
	token := mustSign(t, "--alg", "HS256", "--key", "secret", "--crit", `tenant="acme"`)

	_, _, err := run(t, "", "verify", "--alg", "HS256", "--key", "secret", token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected an unknown critical extension to be rejected but got: %v", err)
	}

	out, _, err := run(t, "", "verify", "--alg", "HS256", "--key", "secret", "--crit", "tenant", token)
	if err != nil {
		t.Fatalf("expected a valid token but got: %v\n%s", err, out)
	}
	if !strings.Contains(out, "crit[0]: map[tenant:acme]") {
		t.Fatalf("expected the handler result in the output but got:\n%s", out)
	}
}

func TestSignRejectsReservedCritical(t *testing.T) {
	_, _, err := run(t, "", "sign", "--alg", "HS256", "--key", "secret", "--crit", "kid=1")
	if err == nil || !strings.Contains(err.Error(), "reserved") {
		t.Fatalf("expected a reserved name error but got: %v", err)
	}
}

func TestSignVerifyECDSAKeyFile(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	der, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		t.Fatal(err)
	}

	keyFile := filepath.Join(t.TempDir(), "ec.pem")
	if err = os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}

	token := mustSign(t, "--alg", "ES256", "--key-file", keyFile, "--payload", `{"sub":"bob"}`, "--jti")

	out, _, err := run(t, "", "verify", "--alg", "ES256", "--key-file", keyFile, token)
	if err != nil {
		t.Fatalf("expected a valid token but got: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"jti"`) {
		t.Fatalf("expected a jti claim but got:\n%s", out)
	}
}

func TestDecodeJSON(t *testing.T) {
	token := mustSign(t, "--alg", "HS384", "--key", "secret", "--header", `{"kid":"k1"}`, "--payload", `{"n":1.50}`)

	out, _, err := run(t, "", "decode", "--json", token)
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		Header    map[string]any  `json:"header"`
		Payload   json.RawMessage `json:"payload"`
		Signature string          `json:"signature"`
	}
	if err = json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("expected JSON output: %v\n%s", err, out)
	}

	if got.Header["alg"] != "HS384" || got.Header["kid"] != "k1" {
		t.Fatalf("unexpected header: %v", got.Header)
	}
	if !strings.Contains(string(got.Payload), "1.50") {
		t.Fatalf("expected the number literal to be kept but got %s", got.Payload)
	}
	if len(got.Signature) != 96 { // 48 bytes, hex
		t.Fatalf("expected a hex HS384 signature but got %q", got.Signature)
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, stderr, err := run(t, "", "decode", "a.b")
	if !errors.Is(err, jwt.ErrTokenForm) {
		t.Fatalf("expected ErrTokenForm but got: %v", err)
	}
	if !strings.Contains(stderr, "three segments") {
		t.Fatalf("expected the error on stderr but got %q", stderr)
	}
}

func TestConfigFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "jwtctl.yaml")
	content := "alg:\n  - HS512\nkey: from-file\nlog:\n  level: error\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	token := mustSign(t, "--config", cfgFile)

	tok, err := jwt.Decode(token)
	if err != nil {
		t.Fatal(err)
	}
	header, _ := tok.Header.AsObject()
	if alg, _ := header.Get("alg"); alg.String() != `"HS512"` {
		t.Fatalf("expected alg from the config file but got %s", alg)
	}

	// flags take precedence over the file.
	if _, _, err = run(t, "", "verify", "--config", cfgFile, "--key", "other", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected --key to override the config file but got: %v", err)
	}
	if _, _, err = run(t, "", "verify", "--config", cfgFile, token); err != nil {
		t.Fatalf("expected the config key to verify the token but got: %v", err)
	}
}

func TestKeyFileAndKeyPathAgree(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(keyFile, []byte("secret\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var tests = []struct {
		sign, verify []string
	}{
		{[]string{"--key", keyFile}, []string{"--key-file", keyFile}},
		{[]string{"--key-file", keyFile}, []string{"--key", keyFile}},
		{[]string{"--key-file", keyFile}, []string{"--key", "secret"}},
	}

	for i, tt := range tests {
		token := mustSign(t, append([]string{"--alg", "HS256"}, tt.sign...)...)

		args := append(append([]string{"verify", "--alg", "HS256"}, tt.verify...), token)
		if out, _, err := run(t, "", args...); err != nil {
			t.Fatalf("[%d] expected %v to verify a token signed with %v but got: %v\n%s", i, tt.verify, tt.sign, err, out)
		}
	}
}

func TestConfigUnknownAlg(t *testing.T) {
	_, _, err := run(t, "", "sign", "--alg", "XX256", "--key", "secret")
	if !errors.Is(err, jwt.ErrUnknownAlg) {
		t.Fatalf("expected ErrUnknownAlg but got: %v", err)
	}
}

func TestServeMux(t *testing.T) {
	key := []byte("secret")
	payload, _ := jwt.ObjectOf(map[string]any{"sub": "carol"})
	token, err := jwt.Sign(jwt.NewHeader("HS256"), payload, key)
	if err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector()
	reg.MustRegister(collector)

	verifier := jwt.NewVerifier(jwt.WithObserver(collector))
	template := jwt.VerifyRequest{Key: key, Algorithms: []jwt.Alg{jwt.HS256}}
	srv := httptest.NewServer(newServeMux(verifier, template, reg, slog.New(slog.DiscardHandler)))
	defer srv.Close()

	tests := []struct {
		name     string
		auth     string
		body     string
		expected int
	}{
		{"bearer", "Bearer " + token, "", http.StatusOK},
		{"body", "", token, http.StatusOK},
		{"tampered", "", token + "x", http.StatusUnauthorized},
		{"basic scheme", "Basic Zm9vOmJhcg==", "", http.StatusBadRequest},
		{"empty", "", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/verify", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.expected {
				t.Fatalf("expected status %d but got %d", tt.expected, resp.StatusCode)
			}
		})
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	resp.Body.Close()

	if !strings.Contains(body.String(), `jwt_verify_total{alg="HS256",kind="none",result="valid"} 2`) {
		t.Fatalf("expected two valid verifications in the metrics but got:\n%s", body.String())
	}
}
