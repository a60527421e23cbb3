package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when config file is missing", func(t *testing.T) {
		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, ":8181", cfg.Server.Addr)
		assert.Equal(t, "estimatedhours", cfg.EstimationTools.EstimationField)
		assert.Equal(t, []string{"closed"}, cfg.EstimationTools.ClosedStates)
		assert.Equal(t, "h", cfg.EstimationTools.EstimationSuffix)
		assert.False(t, cfg.EstimationTools.ServersideCharts)
		assert.False(t, cfg.EstimationTools.SkipMalformed)
		assert.Equal(t, "https://chart.googleapis.com/chart", cfg.Chart.ServiceURL)
		assert.Equal(t, 30*time.Second, cfg.Chart.Timeout)
		assert.Equal(t, "trac", cfg.Database.Schema)
	})

	t.Run("should override defaults from yaml file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := `
host: https://trac.example.org/project
estimationtools:
  estimationfield: hours_remaining
  closedstates: [closed, verified]
  serversidecharts: true
  customfields: [hours_remaining]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://trac.example.org/project", cfg.Host)
		assert.Equal(t, "hours_remaining", cfg.EstimationTools.EstimationField)
		assert.Equal(t, []string{"closed", "verified"}, cfg.EstimationTools.ClosedStates)
		assert.True(t, cfg.EstimationTools.ServersideCharts)
		assert.Equal(t, "h", cfg.EstimationTools.EstimationSuffix)
	})

	t.Run("should override file values from environment", func(t *testing.T) {
		// given
		t.Setenv("ESTIMATIONTOOLS_ESTIMATIONTOOLS_ESTIMATIONSUFFIX", "d")
		t.Setenv("ESTIMATIONTOOLS_SERVER_ADDR", ":9000")
		t.Setenv("ESTIMATIONTOOLS_CHART_TIMEOUT", "5s")

		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "d", cfg.EstimationTools.EstimationSuffix)
		assert.Equal(t, ":9000", cfg.Server.Addr)
		assert.Equal(t, 5*time.Second, cfg.Chart.Timeout)
	})

	t.Run("should split list values from environment", func(t *testing.T) {
		// given
		t.Setenv("ESTIMATIONTOOLS_ESTIMATIONTOOLS_CLOSEDSTATES", "closed,resolved")
		t.Setenv("ESTIMATIONTOOLS_ESTIMATIONTOOLS_CUSTOMFIELDS", "estimatedhours, totalhours")

		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"closed", "resolved"}, cfg.EstimationTools.ClosedStates)
		assert.Equal(t, []string{"estimatedhours", "totalhours"}, cfg.EstimationTools.CustomFields)
		assert.True(t, cfg.EstimationTools.ComponentEnabled("WorkloadChart"))
	})

	t.Run("should fail on malformed yaml", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		require.NoError(t, os.WriteFile(path, []byte("estimationtools: [unclosed"), 0o600))

		// when
		_, err := Load(path)

		// then
		assert.Error(t, err)
	})
}

func TestEstimationTools_ComponentEnabled(t *testing.T) {
	t.Run("should be enabled when estimation field is a declared custom field", func(t *testing.T) {
		cfg := Defaults().EstimationTools

		assert.NoError(t, cfg.CheckEstimationField())
		assert.True(t, cfg.ComponentEnabled("WorkloadChart"))
	})

	t.Run("should be disabled when estimation field is not declared", func(t *testing.T) {
		cfg := Defaults().EstimationTools
		cfg.EstimationField = "hours_remaining"

		assert.ErrorIs(t, cfg.CheckEstimationField(), ErrEstimationFieldNotConfigured)
		assert.False(t, cfg.ComponentEnabled("WorkloadChart"))
	})

	t.Run("should be disabled when estimation field is empty", func(t *testing.T) {
		cfg := Defaults().EstimationTools
		cfg.EstimationField = ""

		assert.False(t, cfg.ComponentEnabled("HoursRemaining"))
	})
}
