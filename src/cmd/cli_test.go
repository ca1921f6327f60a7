package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsToServe(t *testing.T) {
	cfg := &CLIConfig{ClusterID: -1}
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Serve)
	assert.Equal(t, ":7860", cfg.Addr)
	assert.Equal(t, "file", cfg.Source)
}

func TestValidateMutuallyExclusiveCommands(t *testing.T) {
	cfg := &CLIConfig{Serve: true, Export: true, ClusterID: -1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only one of")
}

func TestValidateServeSource(t *testing.T) {
	cfg := &CLIConfig{Serve: true, Source: "db", ClusterID: -1}
	require.NoError(t, cfg.Validate())

	cfg = &CLIConfig{Serve: true, Source: "redis", ClusterID: -1}
	assert.Error(t, cfg.Validate())
}

func TestValidateSummarize(t *testing.T) {
	cfg := &CLIConfig{Summarize: true, ClusterID: -1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-ai is required")

	cfg = &CLIConfig{Summarize: true, AIProvider: "openai", ClusterID: -1}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "forensic", cfg.Strategy)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestValidateFetch(t *testing.T) {
	cfg := &CLIConfig{Fetch: true, ClusterID: -1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-file is required")

	cfg = &CLIConfig{Fetch: true, AddressFile: "wallets.txt", ClusterID: -1}
	assert.NoError(t, cfg.Validate())
}

func TestValidateExport(t *testing.T) {
	cfg := &CLIConfig{Export: true, ClusterID: -1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one of")

	cfg = &CLIConfig{Export: true, ClusterID: 3}
	require.NoError(t, cfg.Validate())

	cfg = &CLIConfig{Export: true, Anomalies: true, ClusterID: -1, Format: "md"}
	require.NoError(t, cfg.Validate())

	cfg = &CLIConfig{Export: true, Wallet: "0xabc", ClusterID: -1, Format: "docx"}
	assert.Error(t, cfg.Validate())
}
