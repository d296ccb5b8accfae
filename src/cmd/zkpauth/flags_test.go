// FILE: zkpauth/src/cmd/zkpauth/flags_test.go
package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		want     FlagConfig
		wantRest []string
	}{
		{
			name: "empty",
		},
		{
			name: "version",
			args: []string{"-version"},
			want: FlagConfig{ShowVersion: true},
		},
		{
			name:     "config with separate value",
			args:     []string{"--config", "/etc/zkpauth.toml", "--server.tcp.port=9000"},
			want:     FlagConfig{ConfigFile: "/etc/zkpauth.toml"},
			wantRest: []string{"--server.tcp.port=9000"},
		},
		{
			name:     "config with equals",
			args:     []string{"--config=/tmp/z.toml", "--quiet"},
			want:     FlagConfig{ConfigFile: "/tmp/z.toml", Quiet: true},
			wantRest: []string{"--quiet=true"},
		},
		{
			name:     "override with separate value",
			args:     []string{"--logging.level", "debug", "-q"},
			want:     FlagConfig{Quiet: true},
			wantRest: []string{"--logging.level", "debug", "--quiet=true"},
		},
		{
			name: "dump config",
			args: []string{"-dump-config", "out.toml"},
			want: FlagConfig{DumpConfig: "out.toml"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fc, rest, err := ParseFlags(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.want, *fc)
			assert.Equal(t, tc.wantRest, rest)
		})
	}

	t.Run("help", func(t *testing.T) {
		fc, _, err := ParseFlags([]string{"-h"})
		require.NoError(t, err)
		assert.True(t, fc.ShowHelp)
	})

	errorCases := map[string][]string{
		"missing value":  {"--config"},
		"unknown flag":   {"-verbose"},
		"stray argument": {"serve"},
	}
	for name, args := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseFlags(args)
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "ERROR"} {
		_, err := parseLogLevel(level)
		assert.NoError(t, err, level)
	}
	_, err := parseLogLevel("trace")
	assert.Error(t, err)
}
