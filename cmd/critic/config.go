//nolint:wrapcheck
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/config"
	"github.com/farcloser/critic/internal/settings"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the configuration (defaults, source overlay, file and --set applied) as a config file",
		Flags: append(settings.Flags(),
			&cli.BoolFlag{
				Name:  "comments",
				Usage: "Describe every key above its line",
			},
			&cli.BoolFlag{
				Name:  "list-checks",
				Usage: "List the available checks instead",
			},
		),
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Bool("list-checks") {
				for _, check := range critic.Checks() {
					fmt.Fprintln(os.Stdout, check)
				}

				return nil
			}

			cfg, err := settings.Config(cmd)
			if err != nil {
				return err
			}

			if _, err := critic.New(cfg, critic.ChecksAll); err != nil {
				return err
			}

			entries := critic.DefaultEntries()
			for index := range entries {
				entries[index].Value = cfg[entries[index].Key]
			}

			return config.Write(os.Stdout, entries, cmd.Bool("comments"))
		},
	}
}
