package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, argv ...string) Args {
	t.Helper()
	var args Args
	p, err := arg.NewParser(arg.Config{}, &args)
	require.NoError(t, err)
	require.NoError(t, p.Parse(argv))
	return args
}

func TestArgs_Defaults(t *testing.T) {
	args := parse(t)

	assert.Equal(t, 300*time.Millisecond, args.Latency)
	assert.Equal(t, 200*time.Millisecond, args.Debounce)
	assert.Zero(t, args.FaultRate)
	assert.False(t, args.NoSeed)
	lvl, err := args.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)
	assert.NoError(t, args.Valid())
}

func TestArgs_FlagsAndEnv(t *testing.T) {
	t.Setenv("DIRECTORY_DEBOUNCE", "50ms")
	t.Setenv("LOG_LEVEL", "debug")

	args := parse(t, "--latency", "0s", "--no-seed", "--fault-rate", "0.25")

	assert.Equal(t, time.Duration(0), args.Latency)
	assert.Equal(t, 50*time.Millisecond, args.Debounce)
	assert.Equal(t, 0.25, args.FaultRate)
	assert.True(t, args.NoSeed)
	assert.Equal(t, "debug", args.LogLevel)
}

func TestArgs_Valid(t *testing.T) {
	args := parse(t)
	args.FaultRate = 1.5
	args.LogLevel = "loud"

	err := args.Valid()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIRECTORY_FAULT_RATE")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestNewApp_Seeded(t *testing.T) {
	args := parse(t, "--latency", "0s")
	a, err := NewApp(args)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	list, err := a.CustomerUC.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Jean Dupont", list[0].FullName())
}

func TestNewApp_NoSeedAndConsole(t *testing.T) {
	args := parse(t, "--latency", "0s", "--debounce", "0s", "--no-seed")
	a, err := NewApp(args)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	var out bytes.Buffer
	script := strings.Join([]string{
		"new",
		"set firstName Ada",
		"set lastName Lovelace",
		"set email ada@lovelace.org",
		"submit",
		"quit",
	}, "\n")
	require.NoError(t, a.Console(strings.NewReader(script), &out).Run(context.Background()))

	assert.Contains(t, out.String(), "customer created.")
	list, err := a.CustomerUC.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ID)
}

func TestNewApp_RejectsInvalidArgs(t *testing.T) {
	args := parse(t)
	args.Latency = -time.Second

	_, err := NewApp(args)
	assert.Error(t, err)
}

func TestFaults(t *testing.T) {
	assert.Nil(t, faults(0))
	always := faults(1)
	require.NotNil(t, always)
	assert.ErrorIs(t, always("create"), errSimulated)
}
