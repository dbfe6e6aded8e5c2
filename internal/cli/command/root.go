package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/qipc-go/internal/cli/config"
	"github.com/yndnr/qipc-go/internal/cli/connection"
	"github.com/yndnr/qipc-go/internal/cli/output"
	"github.com/yndnr/qipc-go/internal/infra/buildinfo"
	"github.com/yndnr/qipc-go/internal/session"
	"github.com/yndnr/qipc-go/internal/telemetry/logger"
	"github.com/yndnr/qipc-go/internal/transport"
)

const metaManager = "connMgr"

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "qipc-cli",
		Usage:   "Query and inspect q IPC peers",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			QueryCommand(),
			AsyncCommand(),
			ReplCommand(),
			JournalCommand(),
			AccountCommand(),
			ConfigCommand(),
		},
		Before: func(c *cli.Context) error {
			flags := ParseGlobalFlags(c)
			log, err := newLogger(flags.Verbose, c.App.ErrWriter)
			if err != nil {
				return err
			}
			cfg := session.DefaultConfig()
			cfg.Logger = log.Slog()
			cfg.HandshakeTimeout = flags.Timeout
			cfg.Transport = transport.ConfigFromEnv()
			cfg.Transport.DialTimeout = flags.Timeout
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[metaManager] = connection.NewManager(cfg)
			return nil
		},
		After: func(c *cli.Context) error {
			if mgr := GetConnectionManager(c); mgr != nil {
				mgr.Disconnect()
			}
			return nil
		},
	}

	return app
}

func newLogger(verbose bool, w io.Writer) (logger.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Format: "text", Output: w})
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI configuration file",
			EnvVars: []string{"QIPC_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"P"},
			Usage:   "Connection profile from the configuration file",
			EnvVars: []string{"QIPC_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"H"},
			Usage:   "Peer host, overrides the profile",
			EnvVars: []string{"QIPC_HOST"},
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Peer port, overrides the profile",
			EnvVars: []string{"QIPC_PORT"},
		},
		&cli.StringFlag{
			Name:    "transport",
			Aliases: []string{"t"},
			Usage:   "Transport: tcp, tls, uds",
			EnvVars: []string{"QIPC_TRANSPORT"},
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "User name for the handshake",
			EnvVars: []string{"QIPC_USER"},
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Password for the handshake",
			EnvVars: []string{"QIPC_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "CA bundle trusted for tls peers instead of the system roots",
			EnvVars: []string{"QIPC_TLS_CA"},
		},
		&cli.StringFlag{
			Name:    "server-name",
			Usage:   "Name verified in the tls peer certificate",
			EnvVars: []string{"QIPC_TLS_SERVER_NAME"},
		},
		&cli.BoolFlag{
			Name:    "insecure-skip-verify",
			Usage:   "Skip tls peer certificate verification",
			EnvVars: []string{"QIPC_TLS_INSECURE"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: q, table, json, yaml",
		},
		&cli.BoolFlag{
			Name:  "no-headers",
			Usage: "Omit table headers",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Dial, handshake and request timeout",
			Value: 10 * time.Second,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	ConfigPath string
	Profile    string

	Host      string
	Port      int
	Transport string
	User      string
	Password  string

	CAFile             string
	ServerName         string
	InsecureSkipVerify bool

	Output    string
	NoHeaders bool

	Timeout time.Duration
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		ConfigPath: c.String("config"),
		Profile:    c.String("profile"),
		Host:       c.String("host"),
		Port:       c.Int("port"),
		Transport:  c.String("transport"),
		User:       c.String("user"),
		Password:   c.String("password"),

		CAFile:             c.String("ca-file"),
		ServerName:         c.String("server-name"),
		InsecureSkipVerify: c.Bool("insecure-skip-verify"),

		Output:    c.String("output"),
		NoHeaders: c.Bool("no-headers"),
		Timeout:   c.Duration("timeout"),
		Verbose:   c.Bool("verbose"),
	}
}

// applyTLS overrides the profile's tls settings with the ones given.
func (f *GlobalFlags) applyTLS(p *config.Profile) {
	if f.CAFile != "" {
		p.CAFile = f.CAFile
	}
	if f.ServerName != "" {
		p.ServerName = f.ServerName
	}
	if f.InsecureSkipVerify {
		p.InsecureSkipVerify = true
	}
}

// loadConfig reads the CLI configuration named by --config.
func loadConfig(c *cli.Context) (*config.CLIConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load cli config: %w", err)
	}
	return cfg, nil
}

// ResolveTarget merges the selected profile with connection flags.
func ResolveTarget(c *cli.Context) (connection.Target, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return connection.Target{}, err
	}
	flags := ParseGlobalFlags(c)
	p, err := cfg.Resolve(flags.Profile)
	if err != nil {
		return connection.Target{}, err
	}
	if flags.Host != "" {
		p.Host = flags.Host
	}
	if flags.Port != 0 {
		p.Port = flags.Port
	}
	if flags.Transport != "" {
		p.Transport = flags.Transport
	}
	if flags.User != "" {
		p.User = flags.User
	}
	if flags.Password != "" {
		p.Password = flags.Password
	}
	flags.applyTLS(&p)
	return connection.TargetFromProfile(p)
}

// Formatter returns the formatter selected by --output, falling back to the
// configured default.
func Formatter(c *cli.Context) (output.Formatter, error) {
	flags := ParseGlobalFlags(c)
	name := flags.Output
	if name == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return nil, err
		}
		name = cfg.Output
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format, flags.NoHeaders), nil
}

// GetConnectionManager retrieves the connection manager from context.
func GetConnectionManager(c *cli.Context) *connection.Manager {
	if mgr, ok := c.App.Metadata[metaManager].(*connection.Manager); ok {
		return mgr
	}
	return nil
}

// EnsureConnected connects the manager to the resolved target.
func EnsureConnected(c *cli.Context) (*connection.Manager, error) {
	mgr := GetConnectionManager(c)
	if mgr == nil {
		return nil, fmt.Errorf("connection manager not initialized")
	}
	if mgr.IsConnected() {
		return mgr, nil
	}
	target, err := ResolveTarget(c)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(c.Context, ParseGlobalFlags(c).Timeout)
	defer cancel()
	if err := mgr.Connect(ctx, target); err != nil {
		return nil, fmt.Errorf("connect %s: %w", target, err)
	}
	return mgr, nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
