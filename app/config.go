package app

import (
	"encoding/json"
	"errors"
	"os"
)

type InitCfg struct{}

// Config is the daemon configuration, parsed from flags by go-arg and
// persisted as JSON under the profile directory.
type Config struct {
	InitCfgCmd  *InitCfg `arg:"subcommand:initcfg" json:"-" help:"initialize relay configuration files"`
	Listen      string   `arg:"-l,--listen" default:"127.0.0.1:3334" json:"listen" help:"network address to listen on"`
	Profile     string   `arg:"-p,--profile" json:"-" default:"simulatr" help:"profile name to use for storage"`
	Name        string   `arg:"-n,--name" json:"name" default:"simulatr mock relay" help:"name of relay for NIP-11"`
	Description string   `arg:"-d,--description" json:"description" help:"description of relay for NIP-11"`
	Pubkey      string   `arg:"--pubkey" json:"pubkey" help:"public key of relay operator"`
	Contact     string   `arg:"-c,--contact" json:"contact,omitempty" help:"non-nostr relay operator contact details"`
	Icon        string   `arg:"-i,--icon" json:"icon,omitempty" help:"icon to show on relay information pages"`
	LatencyMs   int      `arg:"--latency" json:"latency_ms" default:"0" help:"artificial delay applied to every protocol message, in milliseconds"`
	JitterMs    int      `arg:"--jitter" json:"jitter_ms" default:"0" help:"random extra latency bound, in milliseconds"`
	QR          bool     `arg:"--qr" json:"-" help:"print the relay websocket URL as a QR code on startup"`
	LogLevel    string   `arg:"--loglevel" json:"-" default:"info" help:"set log level [off,fatal,error,warn,info,debug,trace]"`
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(filename string) (err error) {
	if c == nil {
		err = errors.New("cannot save nil relay config")
		slog.E.Ln(err)
		return
	}
	var b []byte
	if b, err = json.MarshalIndent(c, "", "    "); chk(err) {
		return
	}
	if err = os.WriteFile(filename, b, 0600); chk(err) {
		return
	}
	return
}

// Load reads a previously saved configuration over the current values.
func (c *Config) Load(filename string) (err error) {
	if c == nil {
		err = errors.New("cannot load into nil config")
		slog.E.Ln(err)
		return
	}
	var b []byte
	if b, err = os.ReadFile(filename); err != nil {
		return
	}
	if err = json.Unmarshal(b, c); chk(err) {
		return
	}
	return
}
