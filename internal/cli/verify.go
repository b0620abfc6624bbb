package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/critjwt/jwt"
)

func newVerifyCommand(a *app) *cobra.Command {
	var critical []string

	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify a token",
		Long: `Verify a token against the accepted algorithms (--alg) and key.

Each --crit name accepts that critical header extension; its value is echoed
in the output. Tokens listing any other extension in "crit" are rejected.
The exit status is non-zero when the token is invalid.`,
		Example: `  jwtctl verify --alg HS256 --key secret eyJhbGciOi...
  echo "$TOKEN" | jwtctl verify --alg RS256,PS256 --key-file pub.pem --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, args, critical)
		},
	}

	cmd.Flags().StringArrayVar(&critical, "crit", nil, "Accept this critical header extension (repeatable)")
	return cmd
}

func (a *app) runVerify(cmd *cobra.Command, args []string, critical []string) error {
	token, err := readToken(cmd, args)
	if err != nil {
		return err
	}

	req, err := a.verifyRequest(critical)
	if err != nil {
		return err
	}
	req.Token = token

	verifier := jwt.NewVerifier(jwt.WithLogger(a.log))
	result := verifier.Verify(cmd.Context(), req)

	out := cmd.OutOrStdout()
	if a.jsonOutput {
		if err = printJSON(out, verifyOutput{Valid: result.IsValid(), Result: result}); err != nil {
			return err
		}
	} else {
		switch r := result.(type) {
		case *jwt.ValidResult:
			printValid(out, r)
		case *jwt.InvalidResult:
			printInvalid(out, r)
		}
	}

	if !result.IsValid() {
		return ErrInvalidToken
	}
	return nil
}

// verifyRequest builds everything but the token from the configuration.
func (a *app) verifyRequest(critical []string) (jwt.VerifyRequest, error) {
	algs, err := algorithms(a.cfg)
	if err != nil {
		return jwt.VerifyRequest{}, err
	}

	key, err := verificationKey(a.cfg, algs)
	if err != nil {
		return jwt.VerifyRequest{}, err
	}

	handlers, err := passThroughHandlers(critical)
	if err != nil {
		return jwt.VerifyRequest{}, err
	}

	return jwt.VerifyRequest{
		Key:        key,
		Algorithms: algs,
		Handlers:   handlers,
	}, nil
}

// passThroughHandlers accepts every named extension and returns its value.
func passThroughHandlers(names []string) (jwt.Handlers, error) {
	if len(names) == 0 {
		return nil, nil
	}

	handlers := make(jwt.Handlers, len(names))
	for _, name := range names {
		if jwt.IsReservedHeaderName(name) {
			return nil, fmt.Errorf("--crit %q: reserved header parameter", name)
		}

		handlers[name] = jwt.ExtensionHandlerFunc(func(_ context.Context, value jwt.Value) (any, error) {
			return map[string]any{name: value.Interface()}, nil
		})
	}
	return handlers, nil
}
