package cli

import (
	"github.com/spf13/cobra"

	"github.com/critjwt/jwt"
)

func newDecodeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [token]",
		Short: "Decode a token without verifying it",
		Long:  "Decode prints the header, payload and hex signature of a token. Nothing is verified. The token can be passed as an argument or piped via stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd, args)
			if err != nil {
				return err
			}

			tok, err := jwt.Decode(token)
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"header":    tok.Header,
					"payload":   tok.Payload,
					"signature": tok.Signature,
				})
			}

			printDecoded(cmd.OutOrStdout(), tok)
			return nil
		},
	}
}
