package config

// DefaultProfileName is the profile used when none is selected.
const DefaultProfileName = "default"

// CLIConfig is the configuration for qipc-cli.
type CLIConfig struct {
	// Profile names the profile used when --profile is not given.
	Profile string `koanf:"profile" yaml:"profile"`
	// Output is q, table, json or yaml.
	Output string `koanf:"output" yaml:"output"`
	// History is the REPL history file; empty disables persistence.
	History string `koanf:"history" yaml:"history,omitempty"`

	Profiles map[string]Profile `koanf:"profiles" yaml:"profiles"`
}

// Profile stores connection details for one peer.
type Profile struct {
	Transport string `koanf:"transport" yaml:"transport"` // tcp, tls, uds
	Host      string `koanf:"host" yaml:"host"`
	Port      int    `koanf:"port" yaml:"port"`
	User      string `koanf:"user" yaml:"user,omitempty"`
	Password  string `koanf:"password" yaml:"password,omitempty"`

	// CAFile, ServerName and InsecureSkipVerify apply to tls profiles.
	CAFile             string `koanf:"cafile" yaml:"cafile,omitempty"`
	ServerName         string `koanf:"servername" yaml:"servername,omitempty"`
	InsecureSkipVerify bool   `koanf:"insecureskipverify" yaml:"insecureskipverify,omitempty"`
}

// Credentials returns the user:password string sent in the handshake.
func (p Profile) Credentials() string {
	if p.Password == "" {
		return p.User
	}
	return p.User + ":" + p.Password
}

// DefaultProfile returns the profile of a local peer on the conventional port.
func DefaultProfile() Profile {
	return Profile{
		Transport: "tcp",
		Host:      "localhost",
		Port:      5010,
	}
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Profile:  DefaultProfileName,
		Output:   "q",
		History:  DefaultHistoryPath(),
		Profiles: map[string]Profile{DefaultProfileName: DefaultProfile()},
	}
}
