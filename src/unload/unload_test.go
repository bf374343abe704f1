package unload

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/storage/storagetest"
	"l4e-demo-pipeline/src/timeseries"
	"l4e-demo-pipeline/src/types"
)

const (
	bucket       = "data-bucket"
	unloadPrefix = "timestream-unload/abcd1234-pump1/"
	targetKey    = "raw-datasets/pump1/sensors.csv"
)

type exportRow struct {
	Time         string   `parquet:"time"`
	MeasureName  string   `parquet:"measure_name"`
	MeasureValue *float64 `parquet:"measure_value"`
}

type timedRow struct {
	Time         time.Time `parquet:"time,timestamp(millisecond)"`
	MeasureName  string    `parquet:"measure_name"`
	MeasureValue float64   `parquet:"measure_value"`
}

type noValueRow struct {
	Time        string `parquet:"time"`
	MeasureName string `parquet:"measure_name"`
}

func encode[T any](t *testing.T, rows []T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, parquet.Write(&buf, rows))
	return buf.Bytes()
}

func value(v float64) *float64 {
	return &v
}

func row(ts, name string, v float64) exportRow {
	return exportRow{Time: ts, MeasureName: name, MeasureValue: value(v)}
}

func request() types.UnloadResponse {
	return types.UnloadResponse{
		UID:                      "abcd1234",
		AssetDescription:         "main pump",
		DatasetPreparationSfnArn: "arn:aws:states:eu-west-1:123456789012:stateMachine:prepare",
		TimestampCol:             "time",
		QueryID:                  "query-1",
		Detail: types.ObjectDetail{
			Bucket:       types.BucketRef{Name: bucket},
			Object:       types.ObjectRef{Key: targetKey},
			UnloadObject: &types.ObjectRef{Key: unloadPrefix},
		},
	}
}

func newHandler(s3 *storagetest.S3) *Handler {
	return &Handler{
		Store:        storage.New(s3),
		Log:          zap.NewNop(),
		PollInterval: time.Millisecond,
	}
}

func putExport(t *testing.T, s3 *storagetest.S3) {
	s3.Put(bucket, unloadPrefix+"results/part-0.parquet", encode(t, []exportRow{
		row("2023-01-01 00:00:00.000000000", "temp", 1.5),
		row("2023-01-01 00:00:00.000000000", "pressure", 10),
		row("2023-01-01 01:00:00.000000000", "temp", 2),
		row("2023-01-01 01:00:00.000000000", "temp", 2.5),
	}), nil)
	s3.Put(bucket, unloadPrefix+"results/part-1.parquet", encode(t, []exportRow{
		row("2023-01-01 00:00:00.000000000", "temp", 1.75),
		row("2023-01-01 02:00:00.000000000", "pressure", 12),
	}), nil)
}

func TestHandle(t *testing.T) {
	s3 := storagetest.New()
	putExport(t, s3)
	s3.Put(bucket, unloadPrefix+"manifest.json", []byte(`{}`), nil)
	s3.Put(bucket, unloadPrefix+"metadata.json", []byte(`{}`), nil)

	resp, err := newHandler(s3).Handle(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, types.SensorsFileResponse{
		StatusCode:               200,
		UID:                      "abcd1234",
		AssetDescription:         "main pump",
		DatasetPreparationSfnArn: "arn:aws:states:eu-west-1:123456789012:stateMachine:prepare",
		Rows:                     3,
		Sensors:                  []string{"pressure", "temp"},
		Detail: types.ObjectDetail{
			Bucket: types.BucketRef{Name: bucket},
			Object: types.ObjectRef{Key: targetKey},
		},
	}, resp)

	csv, ok := s3.Get(bucket, targetKey)
	require.True(t, ok)
	assert.Equal(t, "timestamp,pressure,temp\n"+
		"2023-01-01 00:00:00,10.0,1.75\n"+
		"2023-01-01 01:00:00,,2.5\n"+
		"2023-01-01 02:00:00,12.0,\n", string(csv))
	assert.Equal(t, map[string]string{
		storage.UserTag:             "abcd1234",
		storage.AssetDescriptionTag: "main pump",
	}, s3.Tags[bucket+"/"+targetKey])

	left, err := storage.New(s3).ListKeys(context.Background(), bucket, unloadPrefix)
	require.NoError(t, err)
	assert.Empty(t, left, "export is removed")
}

func TestHandleWaitsForManifest(t *testing.T) {
	s3 := storagetest.New()
	putExport(t, s3)

	go func() {
		time.Sleep(20 * time.Millisecond)
		s3.Put(bucket, unloadPrefix+"manifest.json", []byte(`{}`), nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := newHandler(s3).Handle(ctx, request())
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Rows)
}

func TestHandleGivesUpWithoutManifest(t *testing.T) {
	s3 := storagetest.New()
	putExport(t, s3)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newHandler(s3).Handle(ctx, request())
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, ok := s3.Get(bucket, targetKey)
	assert.False(t, ok)
}

func TestHandleKeepsTargetInsideExport(t *testing.T) {
	s3 := storagetest.New()
	putExport(t, s3)
	s3.Put(bucket, unloadPrefix+"manifest.json", []byte(`{}`), nil)

	req := request()
	req.Detail.Object.Key = unloadPrefix + "sensors.csv"

	_, err := newHandler(s3).Handle(context.Background(), req)
	require.NoError(t, err)

	_, ok := s3.Get(bucket, unloadPrefix+"sensors.csv")
	assert.True(t, ok)
	_, ok = s3.Get(bucket, unloadPrefix+"manifest.json")
	assert.False(t, ok)
}

func TestHandleErrors(t *testing.T) {
	t.Run("missing unload key", func(t *testing.T) {
		req := request()
		req.Detail.UnloadObject = nil
		_, err := newHandler(storagetest.New()).Handle(context.Background(), req)
		assert.Error(t, err)
	})

	t.Run("missing timestamp column name", func(t *testing.T) {
		req := request()
		req.TimestampCol = ""
		_, err := newHandler(storagetest.New()).Handle(context.Background(), req)
		assert.Error(t, err)
	})

	t.Run("empty export", func(t *testing.T) {
		s3 := storagetest.New()
		s3.Put(bucket, unloadPrefix+"manifest.json", []byte(`{}`), nil)
		_, err := newHandler(s3).Handle(context.Background(), request())
		assert.ErrorContains(t, err, "no measures")
	})

	t.Run("export without values", func(t *testing.T) {
		s3 := storagetest.New()
		s3.Put(bucket, unloadPrefix+"manifest.json", []byte(`{}`), nil)
		s3.Put(bucket, unloadPrefix+"results/part-0.parquet", encode(t, []noValueRow{
			{Time: "2023-01-01 00:00:00", MeasureName: "temp"},
		}), nil)
		_, err := newHandler(s3).Handle(context.Background(), request())
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("unreadable file", func(t *testing.T) {
		s3 := storagetest.New()
		s3.Put(bucket, unloadPrefix+"manifest.json", []byte(`{}`), nil)
		s3.Put(bucket, unloadPrefix+"results/part-0.parquet", []byte("not parquet"), nil)
		_, err := newHandler(s3).Handle(context.Background(), request())
		assert.ErrorContains(t, err, "part-0.parquet")
	})
}

func TestReadMeasuresSkipsNulls(t *testing.T) {
	data := encode(t, []exportRow{
		row("2023-01-01 00:00:00", "temp", 1),
		{Time: "2023-01-01 01:00:00", MeasureName: "temp"},
		{Time: "2023-01-01 02:00:00", MeasureValue: value(3)},
	})

	measures, err := ReadMeasures(data, "time")
	require.NoError(t, err)
	require.Len(t, measures, 2)
	assert.Equal(t, "1.0", measures[0].Value)
	assert.Equal(t, "", measures[1].Value, "a null value is kept as an empty cell")
}

func TestReadMeasuresTimestampColumn(t *testing.T) {
	ts := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	data := encode(t, []timedRow{
		{Time: ts, MeasureName: "temp", MeasureValue: 21.5},
		{Time: ts.Add(time.Hour), MeasureName: "temp", MeasureValue: 22},
	})

	measures, err := ReadMeasures(data, "time")
	require.NoError(t, err)
	require.Len(t, measures, 2)
	assert.True(t, ts.Equal(measures[0].Timestamp), "got %s", measures[0].Timestamp)
	assert.True(t, ts.Add(time.Hour).Equal(measures[1].Timestamp))
	assert.Equal(t, "21.5", measures[0].Value)

	_, err = ReadMeasures(data, "event_time")
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestPivot(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	cest := time.FixedZone("CEST", 2*3600)

	table := Pivot([]Measure{
		{Timestamp: t0.Add(time.Hour), Name: "b", Value: "2.0"},
		{Timestamp: t0, Name: "b", Value: "1.0"},
		{Timestamp: t0, Name: "a", Value: "5.0"},
		{Timestamp: t0.In(cest), Name: "a", Value: "6.0"},
	})

	assert.Equal(t, []string{"timestamp", "a", "b"}, table.Header)
	assert.Equal(t, [][]string{
		{"2023-01-01 00:00:00", "6.0", "1.0"},
		{"2023-01-01 01:00:00", "", "2.0"},
	}, table.Rows)
	assert.Equal(t, timeseries.FieldTypes{
		"timestamp": timeseries.String,
		"a":         timeseries.Number,
		"b":         timeseries.Number,
	}, table.FieldTypes)

	empty := Pivot(nil)
	assert.Equal(t, []string{"timestamp"}, empty.Header)
	assert.Zero(t, empty.Len())
}
