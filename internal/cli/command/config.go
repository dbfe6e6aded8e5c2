package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.yaml.in/yaml/v3"

	"github.com/yndnr/qipc-go/internal/cli/config"
	"github.com/yndnr/qipc-go/internal/cli/output"
	"github.com/yndnr/qipc-go/internal/transport"
)

// ConfigCommand returns the CLI configuration command group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration and connection profiles",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective CLI configuration",
				Action: configShow,
			},
			{
				Name:   "profiles",
				Usage:  "List connection profiles",
				Action: configProfiles,
			},
			{
				Name:      "set-profile",
				Usage:     "Create or update a connection profile",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "default",
						Usage: "Make this the default profile",
					},
				},
				Action: configSetProfile,
			},
			{
				Name:      "set-output",
				Usage:     "Set the default output format",
				ArgsUsage: "FORMAT",
				Action:    configSetOutput,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	masked := *cfg
	masked.Profiles = make(map[string]config.Profile, len(cfg.Profiles))
	for name, p := range cfg.Profiles {
		if p.Password != "" {
			p.Password = "******"
		}
		masked.Profiles[name] = p
	}

	fmt.Fprintf(c.App.Writer, "# %s\n", c.String("config"))
	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return err
	}
	return enc.Close()
}

func configProfiles(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	table := &output.Table{}
	table.SetHeaders("", "NAME", "TARGET", "USER")
	for _, name := range cfg.ProfileNames() {
		p, _ := cfg.Resolve(name)
		mark := ""
		if name == cfg.Profile {
			mark = "*"
		}
		table.AddRow(mark, name, fmt.Sprintf("%s://%s:%d", p.Transport, p.Host, p.Port), p.User)
	}
	return table.RenderWithOptions(c.App.Writer, ParseGlobalFlags(c).NoHeaders)
}

// configSetProfile stores the global connection flags under NAME. Unset
// flags keep the profile's current values.
func configSetProfile(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("config set-profile: expected NAME", 2)
	}
	name := c.Args().First()
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	p := cfg.Profiles[name]
	flags := ParseGlobalFlags(c)
	if flags.Transport != "" {
		if _, err := transport.ParseKind(flags.Transport); err != nil {
			return err
		}
		p.Transport = flags.Transport
	}
	if flags.Host != "" {
		p.Host = flags.Host
	}
	if flags.Port != 0 {
		p.Port = flags.Port
	}
	if flags.User != "" {
		p.User = flags.User
	}
	if flags.Password != "" {
		p.Password = flags.Password
	}
	flags.applyTLS(&p)
	cfg.SetProfile(name, p)
	if c.Bool("default") {
		cfg.Profile = name
	}

	if err := config.Save(cfg, c.String("config")); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "profile %q saved\n", name)
	return nil
}

func configSetOutput(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("config set-output: expected FORMAT", 2)
	}
	format, err := output.ParseFormat(c.Args().First())
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Output = string(format)
	return config.Save(cfg, c.String("config"))
}
