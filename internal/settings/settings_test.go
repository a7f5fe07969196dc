package settings_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/settings"
)

func resolve(t *testing.T, args ...string) (critic.Config, error) {
	t.Helper()

	var (
		cfg    critic.Config
		cfgErr error
	)

	cmd := &cli.Command{
		Name:  "test",
		Flags: settings.Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, cfgErr = settings.Config(cmd)

			return nil
		},
	}

	if err := cmd.Run(context.Background(), append([]string{"test"}, args...)); err != nil {
		t.Fatal(err)
	}

	return cfg, cfgErr
}

func TestLayering(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "critic.cfg")

	content := "dc_bias_maximum_offset\t0.02\nlong_silence_maximum_duration_at_end\t7000\nbroken line\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolve(t,
		"--source", "vinyl",
		"--config", file,
		"--set", "long_silence_maximum_duration_at_end=9000",
	)
	if err != nil {
		t.Fatal(err)
	}

	// Vinyl overlay, untouched by the file.
	if cfg["edit_click_window_maximum_sample_jump"] != "0.7" {
		t.Errorf("overlay lost: %s", cfg["edit_click_window_maximum_sample_jump"])
	}

	// File over overlay.
	if cfg["dc_bias_maximum_offset"] != "0.02" {
		t.Errorf("file ignored: %s", cfg["dc_bias_maximum_offset"])
	}

	// --set over file.
	if cfg["long_silence_maximum_duration_at_end"] != "9000" {
		t.Errorf("--set ignored: %s", cfg["long_silence_maximum_duration_at_end"])
	}

	if _, err := critic.New(cfg, critic.ChecksAll); err != nil {
		t.Error(err)
	}
}

func TestBadSettings(t *testing.T) {
	t.Parallel()

	if _, err := resolve(t, "--set", "no-equal-sign"); err == nil {
		t.Error("accepted a setting without a value")
	}

	if _, err := resolve(t, "--source", "shellac"); !errors.Is(err, critic.ErrUnknownSource) {
		t.Errorf("err = %v", err)
	}

	if _, err := resolve(t, "--config", filepath.Join(t.TempDir(), "missing.cfg")); err == nil {
		t.Error("accepted a missing configuration file")
	}
}
