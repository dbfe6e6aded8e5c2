package command

import (
	"context"

	"github.com/urfave/cli/v2"
)

// QueryCommand returns the sync query command.
func QueryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Aliases:   []string{"q"},
		Usage:     "Send a sync request and print the reply",
		ArgsUsage: "EXPR | FUNCTION [ARG...]",
		Description: "With one argument the text is sent as a q expression. With more,\n" +
			"the first names a function and the rest are its arguments.",
		Action: query,
	}
}

// AsyncCommand returns the async message command.
func AsyncCommand() *cli.Command {
	return &cli.Command{
		Name:      "async",
		Aliases:   []string{"a"},
		Usage:     "Send an async message",
		ArgsUsage: "EXPR | FUNCTION [ARG...]",
		Action:    async,
	}
}

func query(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("query: missing expression", 2)
	}
	formatter, err := Formatter(c)
	if err != nil {
		return err
	}
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, ParseGlobalFlags(c).Timeout)
	defer cancel()

	reply, err := mgr.Query(ctx, BuildRequest(c.Args().Slice()))
	if err != nil {
		return err
	}
	if reply.Err() != nil {
		return cli.Exit(reply.String(), 1)
	}
	return formatter.Format(c.App.Writer, reply)
}

func async(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("async: missing expression", 2)
	}
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, ParseGlobalFlags(c).Timeout)
	defer cancel()
	return mgr.Async(ctx, BuildRequest(c.Args().Slice()))
}
