// Package config implements the configuration for the hlpuf simulator.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"

	"github.com/alan-christopher/hlpuf/hlpuf"
	"github.com/alan-christopher/hlpuf/hlpuf/puf"
	"github.com/alan-christopher/hlpuf/hlpuf/sim"
)

const (
	defaultLogLevel      = "NOTICE"
	defaultVariant       = "batch"
	defaultChannelLength = 0.4
	defaultAttempts      = 1
)

// Protocol is the protocol and PUF configuration shared by both parties.
type Protocol struct {
	// Variant is "batch" or "stream".
	Variant string

	// ChallengeBits and Count size the CRP table. Zero selects the
	// variant's default.
	ChallengeBits int
	Count         int

	// ChallengeSeed and ResponseSeed seed the CRP table. An omitted seed
	// selects the default; zero is a valid seed.
	ChallengeSeed *int64
	ResponseSeed  *int64

	// SymbolDelay is the pause between stream symbols, in ticks.
	SymbolDelay uint64

	variant hlpuf.Variant
}

func (pCfg *Protocol) validate() error {
	if pCfg.Variant == "" {
		pCfg.Variant = defaultVariant
	}
	v, err := hlpuf.ParseVariant(pCfg.Variant)
	if err != nil {
		return fmt.Errorf("config: Protocol: %v", err)
	}
	pCfg.variant = v
	pCfg.Variant = v.String()

	def := v.DefaultParams()
	if pCfg.ChallengeBits == 0 {
		pCfg.ChallengeBits = def.ChallengeBits
	}
	if pCfg.Count == 0 {
		pCfg.Count = def.Count
	}
	if pCfg.ChallengeSeed == nil {
		pCfg.ChallengeSeed = &def.ChallengeSeed
	}
	if pCfg.ResponseSeed == nil {
		pCfg.ResponseSeed = &def.ResponseSeed
	}
	if pCfg.SymbolDelay == 0 {
		pCfg.SymbolDelay = uint64(hlpuf.DefaultSymbolDelay)
	}
	if err := v.Validate(pCfg.params()); err != nil {
		return fmt.Errorf("config: Protocol: %v", err)
	}
	return nil
}

func (pCfg *Protocol) params() puf.Params {
	return puf.Params{
		ChallengeBits: pCfg.ChallengeBits,
		Count:         pCfg.Count,
		ChallengeSeed: *pCfg.ChallengeSeed,
		ResponseSeed:  *pCfg.ResponseSeed,
	}
}

// Network is the simulated network configuration.
type Network struct {
	// ClassicalLength and QuantumLength are channel lengths in kilometres.
	ClassicalLength float64
	QuantumLength   float64
}

func (nCfg *Network) validate() error {
	var err error
	if nCfg.ClassicalLength < 0 {
		err = multierr.Append(err, fmt.Errorf("config: Network: ClassicalLength %v is negative", nCfg.ClassicalLength))
	}
	if nCfg.QuantumLength < 0 {
		err = multierr.Append(err, fmt.Errorf("config: Network: QuantumLength %v is negative", nCfg.QuantumLength))
	}
	return err
}

// Run controls how many attempts are simulated.
type Run struct {
	// Attempts is the number of independent authentication attempts.
	Attempts int

	// SampleSeed seeds CRP sampling and measurement.
	SampleSeed int64
}

func (rCfg *Run) validate() error {
	switch {
	case rCfg.Attempts == 0:
		rCfg.Attempts = defaultAttempts
	case rCfg.Attempts < 0:
		return fmt.Errorf("config: Run: Attempts %d is negative", rCfg.Attempts)
	}
	return nil
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout will be used.
	File string

	// Level specifies the log level.
	Level string
}

func (lCfg *Logging) validate() error {
	lvl := strings.ToUpper(lCfg.Level)
	switch lvl {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	case "":
		lvl = defaultLogLevel
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", lCfg.Level)
	}
	lCfg.Level = lvl
	return nil
}

// Config is the top level simulator configuration.
type Config struct {
	Protocol *Protocol
	Network  *Network
	Run      *Run
	Logging  *Logging
}

// FixupAndValidate applies defaults to config entries and validates the
// supplied configuration. Every problem found is reported.
func (c *Config) FixupAndValidate() error {
	if c.Protocol == nil {
		c.Protocol = &Protocol{}
	}
	if c.Network == nil {
		c.Network = &Network{
			ClassicalLength: defaultChannelLength,
			QuantumLength:   defaultChannelLength,
		}
	}
	if c.Run == nil {
		c.Run = &Run{}
	}
	if c.Logging == nil {
		c.Logging = &Logging{}
	}

	var err error
	for _, v := range []interface{ validate() error }{c.Protocol, c.Network, c.Run, c.Logging} {
		err = multierr.Append(err, v.validate())
	}
	return err
}

// Variant returns the parsed protocol variant. Only valid after
// FixupAndValidate succeeds.
func (c *Config) Variant() hlpuf.Variant {
	return c.Protocol.variant
}

// PUFParams returns the CRP table parameters.
func (c *Config) PUFParams() puf.Params {
	return c.Protocol.params()
}

// Connection returns the channel description for the simulated network.
func (c *Config) Connection() sim.ConnectionOpts {
	return sim.ConnectionOpts{
		ClassicalLength: c.Network.ClassicalLength,
		QuantumLength:   c.Network.QuantumLength,
	}
}

// Default returns a validated configuration for variant v.
func Default(v hlpuf.Variant) *Config {
	c := &Config{Protocol: &Protocol{Variant: v.String()}}
	if err := c.FixupAndValidate(); err != nil {
		panic(err)
	}
	return c
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)

	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses, and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
