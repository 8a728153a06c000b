// Command admintoken prints a signed operator token for the admin API.
//
//	ADMIN_SIGNING_KEY=... admintoken -operator alice -ttl 30m
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/aqipredict/internal/auth"
	"github.com/breatheroute/aqipredict/internal/config"
)

var errNoSigningKey = errors.New("ADMIN_SIGNING_KEY is not set")

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("failed to issue token")
	}
}

// run parses args, issues the token and writes it to stdout on its own line.
func run(args []string, stdout io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("admintoken", flag.ContinueOnError)
	operator := fs.String("operator", "", "operator name recorded in the token (required)")
	ttl := fs.Duration("ttl", auth.DefaultTokenExpiry, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *operator == "" {
		return errors.New("-operator is required")
	}
	if *ttl <= 0 || *ttl > 24*time.Hour {
		return fmt.Errorf("-ttl must be between 0 and 24h, got %s", *ttl)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.AdminSigningKey == "" {
		return errNoSigningKey
	}

	token, expiresAt, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.AdminSigningKey,
	}).GenerateAccessToken(*operator, *ttl)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(stdout, token); err != nil {
		return err
	}
	log.Info().
		Str("operator", *operator).
		Time("expires_at", expiresAt).
		Msg("operator token issued")
	return nil
}
