package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerFlagsDefaults(t *testing.T) {
	cfg, err := ParseServerFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, uint16(1920), cfg.Width)
	assert.Equal(t, uint16(1080), cfg.Height)
	assert.False(t, cfg.Verbose)
}

func TestParseServerFlagsOverride(t *testing.T) {
	cfg, err := ParseServerFlags([]string{"--width=640", "--height=480", "--verbose"})
	require.NoError(t, err)
	assert.Equal(t, uint16(640), cfg.Width)
	assert.Equal(t, uint16(480), cfg.Height)
	assert.True(t, cfg.Verbose)
}

func TestParseClientFlagsRequiresTargetAndImage(t *testing.T) {
	_, err := ParseClientFlags(nil)
	assert.Error(t, err)

	_, err = ParseClientFlags([]string{"--target=192.0.2.1"})
	assert.Error(t, err)

	cfg, err := ParseClientFlags([]string{"--target=192.0.2.1", "--image=./pic.png"})
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.1", cfg.Target)
}

func TestParseClientFlagsNoQuerySizeRequiresDimensions(t *testing.T) {
	_, err := ParseClientFlags([]string{"--target=192.0.2.1", "--image=./pic.png", "--no-query-size"})
	assert.Error(t, err)

	cfg, err := ParseClientFlags([]string{
		"--target=192.0.2.1", "--image=./pic.png", "--no-query-size",
		"--width=100", "--height=100",
	})
	require.NoError(t, err)
	assert.True(t, cfg.NoQuerySize)
	assert.Equal(t, uint16(100), cfg.Width)
}
