package replay

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/lookout/lookouttest"
	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/storage/storagetest"
	"l4e-demo-pipeline/src/timeseries"
	"l4e-demo-pipeline/src/types"
)

var (
	t0      = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	fiveMin = timeseries.MustSamplingRate("PT5M")
)

func everyTenMinutes(from time.Time, n int) *timeseries.Series {
	s := timeseries.NewSeries([]string{"temp"})
	for i := 0; i < n; i++ {
		s.Append(from.Add(time.Duration(i)*10*time.Minute), []float64{float64(i)})
	}
	return s
}

func TestNewWindow(t *testing.T) {
	w, err := NewWindow(t0, "1day")
	require.NoError(t, err)
	assert.Equal(t, Window{Start: t0, End: time.Date(2023, 1, 1, 23, 59, 59, 0, time.UTC)}, w)

	w, err = NewWindow(t0, "1week")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 7, 23, 59, 59, 0, time.UTC), w.End)

	w, err = NewWindow(t0, "1month")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 30, 23, 59, 59, 0, time.UTC), w.End)

	_, err = NewWindow(t0, "1year")
	assert.ErrorContains(t, err, "1year")
	assert.Equal(t, []string{"1day", "1month", "1week"}, ReplayDurations())
}

func TestAlignedStart(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 7, 33, 0, time.FixedZone("CEST", 2*3600))

	assert.Equal(t, time.Date(2023, 6, 1, 10, 5, 0, 0, time.UTC), AlignedStart(now, fiveMin))
	assert.Equal(t, time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC), AlignedStart(now, timeseries.Hourly))
	assert.Equal(t, time.Date(2023, 6, 1, 10, 7, 30, 0, time.UTC), AlignedStart(now, timeseries.MustSamplingRate("PT30S")))
}

func TestResampleWindow(t *testing.T) {
	dataset := everyTenMinutes(t0.Add(-time.Hour), 20)
	window := Window{Start: t0, End: t0.Add(time.Hour - time.Second)}

	out, err := Resample(dataset, window, []string{"temp", "flow"}, fiveMin)
	require.NoError(t, err)

	// 00:00 through 00:50, the odd ticks carried forward
	require.Equal(t, 11, out.Len())
	assert.Equal(t, []string{"temp", "flow"}, out.Columns)
	assert.Equal(t, t0, out.Timestamps[0])
	assert.Equal(t, 6.0, out.Values[0][0])
	assert.Equal(t, 6.0, out.Values[1][0])
	assert.Equal(t, 7.0, out.Values[2][0])
	assert.Equal(t, 0.0, out.Values[0][1], "unknown tag is zero-filled")
}

func TestShift(t *testing.T) {
	s := everyTenMinutes(t0, 4)
	start := time.Date(2023, 6, 1, 10, 5, 0, 0, time.UTC)

	shifted := Shift(s, start, fiveMin)
	require.Equal(t, 4, shifted.Len())
	assert.Equal(t, start, shifted.Timestamps[0])
	assert.Equal(t, start.Add(15*time.Minute), shifted.Timestamps[3])
	assert.Equal(t, s.Values, shifted.Values)

	assert.Equal(t, 3, NumInferenceFiles(shifted, fiveMin))
	assert.Zero(t, NumInferenceFiles(Shift(everyTenMinutes(t0, 1), start, fiveMin), fiveMin))
}

type fixture struct {
	s3      *storagetest.S3
	handler *Handler
}

func newFixture(t *testing.T) *fixture {
	models := lookouttest.New()
	models.AddDataset("l4e-demo-app-abcd1234-pump1", "data-bucket", "training-data/")
	models.AddModel("pump1-model", "l4e-demo-app-abcd1234-pump1", "PT5M")

	s3 := storagetest.New()
	var csv strings.Builder
	csv.WriteString("Time,temp\n")
	for i := 0; i < 160; i++ {
		fmt.Fprintf(&csv, "%s,%d\n", timeseries.FormatTimestamp(t0.Add(time.Duration(i)*10*time.Minute)), i)
	}
	s3.Put("data-bucket", "training-data/pump1/sensors.csv", []byte(csv.String()), nil)

	return &fixture{
		s3: s3,
		handler: &Handler{
			Lookout: models,
			Store:   storage.New(s3),
			Log:     zap.NewNop(),
			Now:     func() time.Time { return time.Date(2023, 6, 1, 10, 7, 33, 0, time.UTC) },
		},
	}
}

func TestHandleGeneratesReplayData(t *testing.T) {
	f := newFixture(t)

	resp, err := f.handler.Handle(context.Background(), types.ReplayRequest{
		ModelName:          "pump1-model",
		ProjectName:        "abcd1234-pump1",
		GenerateReplayData: true,
		ReplayDuration:     "1day",
		ReplayStart:        "2023-01-01 00:00:00",
		UID:                "abcd1234",
	})
	require.NoError(t, err)

	assert.Equal(t, "data-bucket", resp.Bucket)
	assert.Equal(t, "pump1-model-scheduler", resp.Name)
	assert.Equal(t, "inference-data/pump1-model/input/", resp.InputPrefix)
	assert.Equal(t, "inference-data/pump1-model/output/", resp.OutputPrefix)
	assert.Equal(t, "inference-data/pump1-model/inference-input.csv", resp.Key)
	assert.Equal(t, "2023-01-01 00:00:00", resp.ReplayStartTime)
	assert.Equal(t, "2023-01-01 23:59:59", resp.ReplayEndTime)
	// 00:00 through 23:50 at five minutes
	assert.Equal(t, 286, resp.NumInferenceFiles)
	assert.NotEmpty(t, resp.Token)

	body, ok := f.s3.Get("data-bucket", resp.Key)
	require.True(t, ok)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 288)
	assert.Equal(t, "Time,temp,bucket,modelName,projectName,uid", lines[0])
	assert.Equal(t, "2023-06-01 10:05:00,0.0,data-bucket,pump1-model,pump1,abcd1234", lines[1])
	assert.Equal(t, "2023-06-01 10:10:00,0.0,data-bucket,pump1-model,pump1,abcd1234", lines[2])
	assert.Equal(t, "2023-06-01 10:15:00,1.0,data-bucket,pump1-model,pump1,abcd1234", lines[3])

	for _, prefix := range []string{resp.InputPrefix, resp.OutputPrefix} {
		_, ok := f.s3.Get("data-bucket", prefix+storage.PlaceholderName)
		assert.True(t, ok, prefix)
	}
}

func TestHandleWithoutReplayData(t *testing.T) {
	f := newFixture(t)

	resp, err := f.handler.Handle(context.Background(), types.ReplayRequest{
		ModelName:   "pump1-model",
		ProjectName: "abcd1234-pump1",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Key)
	assert.Zero(t, resp.NumInferenceFiles)

	_, ok := f.s3.Get("data-bucket", "inference-data/pump1-model/output/"+storage.PlaceholderName)
	assert.True(t, ok)
	_, ok = f.s3.Get("data-bucket", "inference-data/pump1-model/inference-input.csv")
	assert.False(t, ok)
}

func TestHandleErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, types.ReplayRequest{ModelName: "pump1-model"})
	assert.ErrorContains(t, err, "projectName")

	_, err = f.handler.Handle(ctx, types.ReplayRequest{ModelName: "pump1-model", ProjectName: "unknown"})
	assert.Error(t, err)

	base := types.ReplayRequest{
		ModelName:          "pump1-model",
		ProjectName:        "abcd1234-pump1",
		GenerateReplayData: true,
		ReplayDuration:     "1day",
		ReplayStart:        "2023-01-01 00:00:00",
	}

	badDuration := base
	badDuration.ReplayDuration = "forever"
	_, err = f.handler.Handle(ctx, badDuration)
	assert.ErrorContains(t, err, "forever")

	badStart := base
	badStart.ReplayStart = "soon"
	_, err = f.handler.Handle(ctx, badStart)
	assert.ErrorIs(t, err, timeseries.ErrMalformedTimestamp)

	noData := base
	noData.ReplayStart = "2024-01-01 00:00:00"
	_, err = f.handler.Handle(ctx, noData)
	assert.ErrorContains(t, err, "no data")
}
