package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HANDLER", "prepare-hourly-data")
	t.Setenv("BUCKET", "data-bucket")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prepare-hourly-data", cfg.Handler)
	assert.Equal(t, "data-bucket", cfg.Bucket)
	assert.Equal(t, "*", cfg.Origin)
	assert.Equal(t, 24, cfg.GapFillLimit)
	assert.Equal(t, "PT5M", cfg.ResultsSamplingRate)
	assert.Equal(t, 20, cfg.SummaryRows)
	assert.Equal(t, 25, cfg.IngestBatchSize)
	assert.Equal(t, 24*time.Hour, cfg.Aggregation())
	assert.Equal(t, 5*time.Second, cfg.UnloadPollInterval)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("STACK_ID", "abc")
	t.Setenv("GAP_FILL_LIMIT", "6")
	t.Setenv("RESULTS_SAMPLING_RATE", "1h")
	t.Setenv("AGGREGATION_LEVEL", "PT1H")
	t.Setenv("INGEST_BATCH_SIZE", "10")
	t.Setenv("UNLOAD_POLL_INTERVAL", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 6, cfg.GapFillLimit)
	assert.Equal(t, "1h", cfg.ResultsSamplingRate)
	assert.Equal(t, time.Hour, cfg.Aggregation())
	assert.Equal(t, 10, cfg.IngestBatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.UnloadPollInterval)
	assert.Equal(t, "l4edemoapp-projects-abc", cfg.ProjectsTable())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("GAP_FILL_LIMIT", "-1")
	t.Setenv("RESULTS_SAMPLING_RATE", "PT2M")
	t.Setenv("INGEST_BATCH_SIZE", "100")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "GAP_FILL_LIMIT")
	assert.ErrorContains(t, err, "RESULTS_SAMPLING_RATE")
	assert.ErrorContains(t, err, "INGEST_BATCH_SIZE")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Region:              "eu-west-1",
		ResultsSamplingRate: "PT5M",
		AggregationLevel:    "P1D",
		SummaryRows:         20,
		IngestBatchSize:     25,
		UnloadPollInterval:  time.Second,
	}
	require.NoError(t, valid.Validate())

	noRegion := valid
	noRegion.Region = ""
	assert.ErrorContains(t, noRegion.Validate(), "AWS_REGION")

	badLevel := valid
	badLevel.AggregationLevel = "daily"
	assert.ErrorContains(t, badLevel.Validate(), "AGGREGATION_LEVEL")
	assert.Equal(t, 24*time.Hour, badLevel.Aggregation())

	noPoll := valid
	noPoll.UnloadPollInterval = 0
	assert.ErrorContains(t, noPoll.Validate(), "UNLOAD_POLL_INTERVAL")
}
