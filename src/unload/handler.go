package unload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/types"
)

const (
	manifestSuffix = "manifest.json"
	resultsFolder  = "results"

	DefaultPollInterval = 5 * time.Second
)

// Handler turns a finished Timestream export into the sensors CSV the
// dataset preparation starts from, then removes the export.
type Handler struct {
	Store        *storage.Store
	Log          *zap.Logger
	PollInterval time.Duration
}

func (h *Handler) Handle(ctx context.Context, req types.UnloadResponse) (types.SensorsFileResponse, error) {
	bucket, target := req.Detail.Bucket.Name, req.Detail.Object.Key
	if bucket == "" || target == "" || req.Detail.UnloadObject == nil || req.Detail.UnloadObject.Key == "" {
		return types.SensorsFileResponse{}, fmt.Errorf("bucket, object key and unload key are required, got %+v", req.Detail)
	}
	if req.TimestampCol == "" {
		return types.SensorsFileResponse{}, fmt.Errorf("timestampCol is required")
	}
	prefix := req.Detail.UnloadObject.Key
	log := h.Log.With(zap.String("bucket", bucket), zap.String("unloadPrefix", prefix))

	if err := h.waitForManifest(ctx, bucket, prefix); err != nil {
		return types.SensorsFileResponse{}, err
	}

	measures, err := h.readExport(ctx, bucket, prefix+resultsFolder, req.TimestampCol)
	if err != nil {
		return types.SensorsFileResponse{}, err
	}
	if len(measures) == 0 {
		return types.SensorsFileResponse{}, fmt.Errorf("no measures in s3://%s/%s%s", bucket, prefix, resultsFolder)
	}

	table := Pivot(measures)
	identity := storage.Identity{UserUID: req.UID, AssetDescription: req.AssetDescription}
	if err := h.Store.PutTable(ctx, bucket, target, table, identity.Tags()); err != nil {
		return types.SensorsFileResponse{}, err
	}
	log.Info("sensors file written",
		zap.String("key", target),
		zap.Int("measures", len(measures)),
		zap.Int("rows", table.Len()),
	)

	if err := h.deleteExport(ctx, bucket, prefix, target); err != nil {
		// the CSV is already in place, a leftover export only costs storage
		log.Warn("failed to delete timestream export", zap.Error(err))
	}

	return types.SensorsFileResponse{
		StatusCode:               200,
		UID:                      req.UID,
		AssetDescription:         req.AssetDescription,
		DatasetPreparationSfnArn: req.DatasetPreparationSfnArn,
		Rows:                     table.Len(),
		Sensors:                  table.Header[1:],
		Detail: types.ObjectDetail{
			Bucket: req.Detail.Bucket,
			Object: req.Detail.Object,
		},
	}, nil
}

// waitForManifest polls the export prefix until Timestream has written
// its manifest, or ctx ends.
func (h *Handler) waitForManifest(ctx context.Context, bucket, prefix string) error {
	interval := h.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		keys, err := h.Store.ListKeys(ctx, bucket, prefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if strings.HasSuffix(key, manifestSuffix) {
				return nil
			}
		}

		h.Log.Debug("timestream unload still in progress", zap.String("prefix", prefix))
		select {
		case <-ctx.Done():
			return fmt.Errorf("no manifest under s3://%s/%s: %w", bucket, prefix, ctx.Err())
		case <-time.After(interval):
		}
	}
}

func (h *Handler) readExport(ctx context.Context, bucket, prefix, timestampCol string) ([]Measure, error) {
	keys, err := h.Store.ListKeys(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	var measures []Measure
	for _, key := range keys {
		if strings.HasSuffix(key, "/") {
			continue
		}
		data, err := h.Store.GetObject(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
		m, err := ReadMeasures(data, timestampCol)
		if err != nil {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
		}
		measures = append(measures, m...)
	}
	return measures, nil
}

func (h *Handler) deleteExport(ctx context.Context, bucket, prefix, keep string) error {
	keys, err := h.Store.ListKeys(ctx, bucket, prefix)
	if err != nil {
		return err
	}
	doomed := keys[:0]
	for _, key := range keys {
		if key != keep {
			doomed = append(doomed, key)
		}
	}
	return h.Store.DeleteObjects(ctx, bucket, doomed)
}
