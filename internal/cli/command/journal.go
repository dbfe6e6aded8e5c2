package command

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/qipc-go/internal/cli/output"
	"github.com/yndnr/qipc-go/internal/protocol/wire"
	"github.com/yndnr/qipc-go/internal/storage/journal"
)

var errLimitReached = errors.New("limit reached")

// JournalCommand returns the journal inspection command group.
func JournalCommand() *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "Inspect a server message journal",
		Subcommands: []*cli.Command{
			{
				Name:      "replay",
				Usage:     "Print every journaled message",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Stop after this many entries (0 = all)",
					},
				},
				Action: journalReplay,
			},
		},
	}
}

// journalRecord is the JSON and YAML shape of one entry.
type journalRecord struct {
	Time       time.Time `json:"time" yaml:"time"`
	Type       string    `json:"type" yaml:"type"`
	Size       int       `json:"size" yaml:"size"`
	Compressed bool      `json:"compressed" yaml:"compressed"`
	Value      any       `json:"value,omitempty" yaml:"value,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

func journalReplay(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("journal replay: expected FILE", 2)
	}
	path := c.Args().First()
	limit := c.Int("limit")

	format := output.FormatQ
	if name := ParseGlobalFlags(c).Output; name != "" {
		var err error
		if format, err = output.ParseFormat(name); err != nil {
			return err
		}
	}

	codec := wire.NewCodec()
	w := c.App.Writer
	n := 0
	stats, err := journal.Replay(path, func(e *journal.Entry) error {
		if limit > 0 && n >= limit {
			return errLimitReached
		}
		n++
		return printEntry(w, format, codec, e)
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return fmt.Errorf("replay %s: %w", path, err)
	}
	if errors.Is(err, errLimitReached) {
		return nil
	}

	summary := fmt.Sprintf("%d entries, %d valid bytes", stats.Entries, stats.ValidBytes)
	if stats.Truncated {
		summary += ", truncated tail skipped"
	}
	fmt.Fprintln(c.App.ErrWriter, summary)
	return nil
}

func printEntry(w io.Writer, format output.Format, codec *wire.Codec, e *journal.Entry) error {
	rec := journalRecord{Time: e.Time.UTC(), Size: len(e.Frame), Type: "?"}
	msg, derr := e.Message(codec)
	if derr != nil {
		rec.Error = derr.Error()
	} else {
		rec.Type = msg.Type.String()
		rec.Compressed = msg.Compressed
	}

	switch format {
	case output.FormatJSON, output.FormatYAML:
		if msg != nil {
			rec.Value = output.Native(msg.Value)
		}
		return encodeRecord(w, format, rec)
	}

	text := "<" + rec.Error + ">"
	if msg != nil {
		text = msg.Value.String()
	}
	_, err := fmt.Fprintf(w, "%s  %-5s  %s\n", rec.Time.Format(time.RFC3339Nano), rec.Type, text)
	return err
}
