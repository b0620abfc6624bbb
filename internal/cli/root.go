// Package cli implements the jwtctl command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/critjwt/jwt/internal/logger"
)

// ErrInvalidToken is returned by verify when the token is rejected.
// The rejection itself has already been printed.
var ErrInvalidToken = errors.New("token is invalid")

// app is the state shared by the commands of one tree.
type app struct {
	v       *viper.Viper
	cfg     Config
	log     *slog.Logger
	cfgFile string

	jsonOutput bool
	noColor    bool
}

// NewRootCommand returns a fresh jwtctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{
		v:   InitViper(),
		log: slog.New(slog.DiscardHandler),
	}

	root := &cobra.Command{
		Use:   "jwtctl",
		Short: "Sign, verify and decode compact JSON Web Tokens",
		Long: `jwtctl signs, verifies and decodes compact JSON Web Tokens.

Verification checks the token shape, the "exp" claim, the "crit" header
extensions, the algorithm allow-list and the signature, in that order.

Configuration comes from flags, JWTCTL_* environment variables
(e.g. JWTCTL_KEY, JWTCTL_LOG_LEVEL) and an optional jwtctl.yaml.`,
		PersistentPreRunE: a.init,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./jwtctl.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output as JSON")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	BindFlags(root, a.v)

	root.AddCommand(
		newSignCommand(a),
		newVerifyCommand(a),
		newDecodeCommand(a),
		newServeCommand(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	if a.noColor {
		color.NoColor = true
	}

	cfg, err := Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	log, err := logger.New(cmd.ErrOrStderr(), level, logger.Format(cfg.Log.Format))
	if err != nil {
		return err
	}
	a.log = log.With("cmd", cmd.Name())

	return nil
}

// Execute runs jwtctl with the process arguments.
func Execute() error {
	return execute(NewRootCommand(), os.Stderr)
}

func execute(root *cobra.Command, stderr io.Writer) error {
	err := root.Execute()
	if err != nil && !errors.Is(err, ErrInvalidToken) {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return err
}
