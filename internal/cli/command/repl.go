package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/qipc-go/internal/cli/repl"
	"github.com/yndnr/qipc-go/internal/core/domain"
)

// ReplCommand returns the interactive mode command.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Start an interactive session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file; empty uses the configured path",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write the history file",
			},
		},
		Action: runREPL,
	}
}

func runREPL(c *cli.Context) error {
	formatter, err := Formatter(c)
	if err != nil {
		return err
	}
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	history := c.String("history")
	if history == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		history = cfg.History
	}
	if c.Bool("no-history") {
		history = ""
	}

	timeout := ParseGlobalFlags(c).Timeout
	eval := func(ctx context.Context, line string) (*domain.Value, error) {
		qctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return mgr.Query(qctx, domain.NewString(line, domain.AttrNone))
	}

	r := repl.New(eval,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithFormatter(formatter),
		repl.WithHistoryFile(history),
	)
	return r.Run(c.Context)
}
