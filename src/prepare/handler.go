package prepare

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/dynamo"
	"l4e-demo-pipeline/src/lookout"
	"l4e-demo-pipeline/src/resampler"
	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/timeseries"
	"l4e-demo-pipeline/src/types"
)

// Handler turns a freshly uploaded raw dataset into its hourly and
// summary versions.
type Handler struct {
	Store   *storage.Store
	Log     *zap.Logger
	Options resampler.Options
}

func (h *Handler) Handle(ctx context.Context, event types.ObjectEvent) (types.PrepareResponse, error) {
	bucket := event.Detail.Bucket.Name
	key := event.Detail.Object.Key
	h.Log.Info("preparing dataset", zap.String("bucket", bucket), zap.String("key", key))

	asset, err := storage.AssetFromKey(key)
	if err != nil {
		return types.PrepareResponse{}, err
	}

	identity, err := h.Store.GetIdentity(ctx, bucket, key)
	if err != nil {
		return types.PrepareResponse{}, err
	}

	raw, _, err := h.Store.ReadSeries(ctx, bucket, key)
	if err != nil {
		return types.PrepareResponse{}, err
	}

	out, err := resampler.Prepare(raw, asset, h.Options)
	if err != nil {
		return types.PrepareResponse{}, fmt.Errorf("failed to resample %s: %w", key, err)
	}
	hourly, summary := out.Hourly, out.Summary

	dropped := out.Result.DroppedStarts()
	if len(dropped) > 0 {
		h.Log.Warn("dropped buckets beyond the gap-fill limit",
			zap.String("asset", asset),
			zap.Int("dropped", len(dropped)),
			zap.Time("first", dropped[0]),
		)
	}

	uploads := []struct {
		key   string
		table *timeseries.Table
	}{
		{storage.PreparedKey(asset), hourly},
		{storage.SummaryKey(asset), summary},
		// the raw file again, with its timestamp column renamed
		{storage.RawKey(asset), raw.Table()},
	}
	for _, u := range uploads {
		if err := h.Store.PutTable(ctx, bucket, u.key, u.table, identity.Tags()); err != nil {
			return types.PrepareResponse{}, err
		}
	}

	tableName := dynamo.TimeSeriesTable(identity.UserUID, asset)
	h.Log.Info("dataset prepared",
		zap.String("asset", asset),
		zap.Int("rawRows", raw.Len()),
		zap.Int("hourlyRows", hourly.Len()),
		zap.Int("summaryRows", summary.Len()),
	)

	return types.PrepareResponse{
		StatusCode:       200,
		Bucket:           bucket,
		Key:              storage.PreparedKey(asset),
		SummaryKey:       storage.SummaryKey(asset),
		ImportKey:        storage.PreparedPrefix(asset),
		Asset:            asset,
		InputPrefix:      storage.RawPrefix(asset),
		ClientToken:      uuid.NewString(),
		DatasetName:      lookout.DatasetName(identity.UserUID, asset),
		UserUID:          identity.UserUID,
		AssetDescription: identity.AssetDescription,
		TableName:        tableName,
		DroppedBuckets:   len(dropped),
		FilesToIngest: []types.FileToIngest{
			{Bucket: bucket, Table: tableName, Key: storage.PreparedKey(asset), FieldTypes: hourly.FieldTypes, KeySchema: &dynamo.TimeSeriesKey},
			{Bucket: bucket, Table: tableName, Key: storage.SummaryKey(asset), FieldTypes: summary.FieldTypes, KeySchema: &dynamo.TimeSeriesKey},
		},
	}, nil
}
