// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// resetHarvestState restores the viper-bound flags and the in-memory
// config after a test mutates them.
func resetHarvestState(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		for _, name := range []string{"workers", "download-workers", "out"} {
			f := harvestCmd.Flags().Lookup(name)
			require.NotNil(t, f)
			require.NoError(t, f.Value.Set(f.DefValue))
			f.Changed = false
		}
		viper.SetConfigType("yaml")
		require.NoError(t, viper.ReadConfig(strings.NewReader("")))
	})
}

func TestResolveHarvestConfigDefaults(t *testing.T) {
	resetHarvestState(t)

	cfg := resolveHarvestConfig(harvestCmd)
	assert.Equal(t, types.DefaultWorkers, cfg.Workers)
	assert.Equal(t, types.DefaultDownloadWorkers, cfg.DownloadWorkers)
	assert.Equal(t, "papers", cfg.OutputDir)
}

func TestResolveHarvestConfigReadsConfigFile(t *testing.T) {
	resetHarvestState(t)

	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(strings.NewReader(
		"harvest:\n  workers: 7\n  download_workers: 2\n  output_dir: /data/papers\n")))

	cfg := resolveHarvestConfig(harvestCmd)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, 2, cfg.DownloadWorkers)
	assert.Equal(t, "/data/papers", cfg.OutputDir)
}

func TestResolveHarvestConfigFlagBeatsConfigFile(t *testing.T) {
	resetHarvestState(t)

	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(strings.NewReader("harvest:\n  workers: 7\n")))
	require.NoError(t, harvestCmd.Flags().Set("workers", "5"))

	cfg := resolveHarvestConfig(harvestCmd)
	assert.Equal(t, 5, cfg.Workers)
}
