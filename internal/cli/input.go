package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/critjwt/jwt"
)

// readToken returns the token argument or, when there is none (or it is "-"),
// the trimmed standard input.
func readToken(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return "", fmt.Errorf("cannot read stdin: %w", err)
		}
		if stat.Mode()&os.ModeCharDevice != 0 {
			return "", errors.New("no token provided (pass it as an argument or pipe it to stdin)")
		}
	}

	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}

	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", errors.New("no token provided")
	}
	return token, nil
}

// keyMaterial returns the raw key bytes from --key-file or --key.
// --key may hold the secret itself or a path to it. Trailing line breaks of
// a key file are dropped either way.
func keyMaterial(cfg Config) ([]byte, error) {
	if cfg.KeyFile != "" {
		b, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}
		return []byte(strings.TrimRight(string(b), "\r\n")), nil
	}

	if cfg.Key == "" {
		return nil, errors.New("a key is required (--key or --key-file)")
	}

	return jwt.LoadHMAC(cfg.Key)
}

func algorithms(cfg Config) ([]jwt.Alg, error) {
	algs, err := jwt.ParseAlgs(cfg.Algorithms...)
	if err != nil {
		return nil, fmt.Errorf("%w (known: %s)", err, strings.Join(jwt.AlgNames(), ", "))
	}
	return algs, nil
}

// signingKey parses the key for alg.
func signingKey(cfg Config, alg jwt.Alg) (jwt.PrivateKey, error) {
	data, err := keyMaterial(cfg)
	if err != nil {
		return nil, err
	}

	key, err := jwt.ParsePrivateKey(alg, data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s signing key: %w", alg.Name(), err)
	}
	return key, nil
}

// verificationKey parses the key for the first accepted algorithm; every
// accepted algorithm must take the same key type.
func verificationKey(cfg Config, algs []jwt.Alg) (jwt.PublicKey, error) {
	data, err := keyMaterial(cfg)
	if err != nil {
		return nil, err
	}

	key, err := jwt.ParsePublicKey(algs[0], data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s verification key: %w", algs[0].Name(), err)
	}
	return key, nil
}

// parseObjectFlag parses a JSON object given on the command line.
func parseObjectFlag(name, raw string) (jwt.Object, error) {
	if strings.TrimSpace(raw) == "" {
		return jwt.Object{}, nil
	}

	obj, err := jwt.ParseObject([]byte(raw))
	if err != nil {
		return jwt.Object{}, fmt.Errorf("--%s: %w", name, err)
	}
	return obj, nil
}
