// Package settings turns command line flags into a validated critic.
//
//nolint:wrapcheck
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/config"
)

var errInvalidSetting = errors.New("expected key=value")

// Flags select and configure the checkers.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "checks",
			Aliases: []string{"C"},
			Usage:   "Comma-separated checks or presets (all, defects, policy). Run 'critic config' for the list",
			Value:   "all",
		},
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"S"},
			Usage:   "Audio source type adjusting detection thresholds: digital, vinyl, live",
			Value:   "digital",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Configuration file (key<TAB>value per line), applied over the source defaults",
		},
		&cli.StringSliceFlag{
			Name:  "set",
			Usage: "Override a single configuration key (key=value), may be repeated",
		},
	}
}

// Config layers the defaults, the source overlay, the configuration file and --set flags.
func Config(cmd *cli.Command) (critic.Config, error) {
	source, err := critic.ParseSource(cmd.String("source"))
	if err != nil {
		return nil, err
	}

	cfg := critic.DefaultConfig().With(source.Overlay())

	if path := cmd.String("config"); path != "" {
		values, warnings, err := config.Load(path)
		if err != nil {
			return nil, err
		}

		for _, warning := range warnings {
			slog.Warn("ignoring configuration line", "file", path, "problem", warning)
		}

		cfg = cfg.With(values)
	}

	overrides := critic.Config{}

	for _, setting := range cmd.StringSlice("set") {
		key, value, found := strings.Cut(setting, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("--set %q: %w", setting, errInvalidSetting)
		}

		overrides[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return cfg.With(overrides), nil
}

// Critic validates the layered configuration against the selected checks.
func Critic(cmd *cli.Command) (*critic.Critic, error) {
	checks, err := critic.ParseChecks(cmd.String("checks"))
	if err != nil {
		return nil, err
	}

	cfg, err := Config(cmd)
	if err != nil {
		return nil, err
	}

	return critic.New(cfg, checks)
}
