package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/alan-christopher/hlpuf/hlpuf"
	"github.com/alan-christopher/hlpuf/hlpuf/puf"
)

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile("testdata/stream.toml")
	require.NoError(t, err)

	require.Equal(t, hlpuf.VariantStream, cfg.Variant())
	require.Equal(t, puf.Params{ChallengeBits: 2, Count: 5, ChallengeSeed: 2, ResponseSeed: 5}, cfg.PUFParams())
	require.Equal(t, uint64(3), cfg.Protocol.SymbolDelay)
	require.Equal(t, 1.2, cfg.Connection().QuantumLength)
	require.Equal(t, 10, cfg.Run.Attempts)
	require.Equal(t, int64(42), cfg.Run.SampleSeed)
	require.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	require.Equal(t, hlpuf.VariantBatch, cfg.Variant())
	require.Equal(t, hlpuf.VariantBatch.DefaultParams(), cfg.PUFParams())
	require.Equal(t, 0.4, cfg.Network.ClassicalLength)
	require.Equal(t, 0.4, cfg.Network.QuantumLength)
	require.Equal(t, 1, cfg.Run.Attempts)
	require.Equal(t, "NOTICE", cfg.Logging.Level)
	require.False(t, cfg.Logging.Disable)

	require.Equal(t, hlpuf.VariantStream.DefaultParams(), Default(hlpuf.VariantStream).PUFParams())
}

func TestExplicitZeroLengthNetwork(t *testing.T) {
	cfg, err := Load([]byte("[Network]\n"))
	require.NoError(t, err)
	require.Zero(t, cfg.Network.ClassicalLength)
	require.Zero(t, cfg.Network.QuantumLength)
}

func TestOverridesKeepSeeds(t *testing.T) {
	cfg, err := Load([]byte(`
[Protocol]
  Variant = "a"
  ChallengeBits = 16
  Count = 100
  ChallengeSeed = 7
  ResponseSeed = 9
`))
	require.NoError(t, err)
	require.Equal(t, "batch", cfg.Protocol.Variant)
	require.Equal(t, puf.Params{ChallengeBits: 16, Count: 100, ChallengeSeed: 7, ResponseSeed: 9}, cfg.PUFParams())
}

func TestZeroSeeds(t *testing.T) {
	cfg, err := Load([]byte(`
[Protocol]
  ChallengeSeed = 0
  ResponseSeed = 0
`))
	require.NoError(t, err)
	require.Equal(t, int64(0), cfg.PUFParams().ChallengeSeed)
	require.Equal(t, int64(0), cfg.PUFParams().ResponseSeed)

	cfg, err = Load([]byte("[Protocol]\n  ResponseSeed = 0\n"))
	require.NoError(t, err)
	require.Equal(t, puf.DefaultChallengeSeed, cfg.PUFParams().ChallengeSeed)
	require.Equal(t, int64(0), cfg.PUFParams().ResponseSeed)
}

func TestValidationReportsEveryProblem(t *testing.T) {
	_, err := Load([]byte(`
[Protocol]
  Variant = "c"

[Network]
  ClassicalLength = -1
  QuantumLength = -2

[Run]
  Attempts = -3

[Logging]
  Level = "loud"
`))
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 5)
}

func TestInvalidProtocol(t *testing.T) {
	tcs := []struct {
		name string
		body string
	}{
		{"one bit batch", "[Protocol]\n  ChallengeBits = 1\n"},
		{"negative count", "[Protocol]\n  Count = -4\n"},
		{"unknown key", "[Protocol]\n  Colour = \"blue\"\n"},
		{"not toml", "[Protocol"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.body))
			require.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("testdata/does-not-exist.toml")
	require.Error(t, err)
}
