package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"l4e-demo-pipeline/src/timeseries"
)

// Config is read from the function's environment.
type Config struct {
	Handler             string
	Region              string
	Bucket              string
	StackID             string
	Origin              string
	LogLevel            string
	GapFillLimit        int
	ResultsSamplingRate string
	AggregationLevel    string
	SummaryRows         int
	IngestBatchSize     int
	// UnloadPollInterval is how long to wait between checks for a
	// finished Timestream export.
	UnloadPollInterval  time.Duration
}

const maxBatchSize = 25

func setDefaults(v *viper.Viper) {
	v.SetDefault("aws_region", "eu-west-1")
	v.SetDefault("origin", "*")
	v.SetDefault("log_level", "info")
	v.SetDefault("gap_fill_limit", 24)
	v.SetDefault("results_sampling_rate", "PT5M")
	v.SetDefault("aggregation_level", "P1D")
	v.SetDefault("summary_rows", 20)
	v.SetDefault("ingest_batch_size", maxBatchSize)
	v.SetDefault("unload_poll_interval", 5*time.Second)
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"handler", "bucket", "stack_id"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{
		Handler:             v.GetString("handler"),
		Region:              v.GetString("aws_region"),
		Bucket:              v.GetString("bucket"),
		StackID:             v.GetString("stack_id"),
		Origin:              v.GetString("origin"),
		LogLevel:            v.GetString("log_level"),
		GapFillLimit:        v.GetInt("gap_fill_limit"),
		ResultsSamplingRate: v.GetString("results_sampling_rate"),
		AggregationLevel:    v.GetString("aggregation_level"),
		SummaryRows:         v.GetInt("summary_rows"),
		IngestBatchSize:     v.GetInt("ingest_batch_size"),
		UnloadPollInterval:  v.GetDuration("unload_poll_interval"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail mid-invocation.
func (c *Config) Validate() error {
	var errs []error
	if c.Region == "" {
		errs = append(errs, errors.New("AWS_REGION must be set"))
	}
	if c.GapFillLimit < 0 {
		errs = append(errs, fmt.Errorf("GAP_FILL_LIMIT must not be negative, got %d", c.GapFillLimit))
	}
	if _, err := timeseries.LookupSamplingRate(c.ResultsSamplingRate); err != nil {
		errs = append(errs, fmt.Errorf("RESULTS_SAMPLING_RATE: %w", err))
	}
	if _, err := timeseries.ParseAggregationLevel(c.AggregationLevel); err != nil {
		errs = append(errs, fmt.Errorf("AGGREGATION_LEVEL: %w", err))
	}
	if c.SummaryRows <= 0 {
		errs = append(errs, fmt.Errorf("SUMMARY_ROWS must be positive, got %d", c.SummaryRows))
	}
	if c.IngestBatchSize <= 0 || c.IngestBatchSize > maxBatchSize {
		errs = append(errs, fmt.Errorf("INGEST_BATCH_SIZE must be in 1..%d, got %d", maxBatchSize, c.IngestBatchSize))
	}
	if c.UnloadPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("UNLOAD_POLL_INTERVAL must be positive, got %s", c.UnloadPollInterval))
	}
	return errors.Join(errs...)
}

// Aggregation is the parsed AggregationLevel.
func (c *Config) Aggregation() time.Duration {
	d, err := timeseries.ParseAggregationLevel(c.AggregationLevel)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// ProjectsTable is the table listing every user's projects.
func (c *Config) ProjectsTable() string {
	return "l4edemoapp-projects-" + c.StackID
}
