package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/service/lookoutequipment/lookoutequipmentiface"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/lookout"
	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/timeseries"
	"l4e-demo-pipeline/src/types"
)

// Handler prepares the prefixes a replay scheduler works in and, when
// asked, the historical window it replays.
type Handler struct {
	Lookout lookoutequipmentiface.LookoutEquipmentAPI
	Store   *storage.Store
	Log     *zap.Logger
	Now     func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) Handle(ctx context.Context, req types.ReplayRequest) (types.ReplayResponse, error) {
	if req.ModelName == "" || req.ProjectName == "" {
		return types.ReplayResponse{}, fmt.Errorf("modelName and projectName are required")
	}
	log := h.Log.With(zap.String("model", req.ModelName), zap.String("project", req.ProjectName))

	location, err := lookout.DescribeDataset(ctx, h.Lookout, lookout.DatasetPrefix+req.ProjectName)
	if err != nil {
		return types.ReplayResponse{}, err
	}

	resp := types.ReplayResponse{
		StatusCode:         200,
		Bucket:             location.Bucket,
		Token:              uuid.NewString(),
		Name:               req.ModelName + "-scheduler",
		ModelName:          req.ModelName,
		InputPrefix:        storage.InferencePrefix(req.ModelName, "input"),
		OutputPrefix:       storage.InferencePrefix(req.ModelName, "output"),
		GenerateReplayData: req.GenerateReplayData,
		UID:                req.UID,
	}

	if req.GenerateReplayData {
		if err := h.generate(ctx, req, location, &resp); err != nil {
			return types.ReplayResponse{}, err
		}
		log.Info("replay data generated",
			zap.String("key", resp.Key),
			zap.Int("inferenceFiles", resp.NumInferenceFiles),
		)
	}

	for _, prefix := range []string{resp.OutputPrefix, resp.InputPrefix} {
		if err := h.Store.PutObject(ctx, location.Bucket, prefix+storage.PlaceholderName, nil, "", nil); err != nil {
			return types.ReplayResponse{}, err
		}
	}
	return resp, nil
}

func (h *Handler) generate(ctx context.Context, req types.ReplayRequest, location lookout.DatasetLocation, resp *types.ReplayResponse) error {
	model, err := lookout.DescribeModel(ctx, h.Lookout, req.ModelName)
	if err != nil {
		return err
	}
	rate, err := timeseries.LookupSamplingRate(model.TargetSamplingRate)
	if err != nil {
		return fmt.Errorf("model %s: %w", req.ModelName, err)
	}

	start, err := timeseries.ParseTimestamp(req.ReplayStart)
	if err != nil {
		return fmt.Errorf("replayStart: %w", err)
	}
	window, err := NewWindow(start, req.ReplayDuration)
	if err != nil {
		return err
	}

	asset := lookout.ShortName(req.ProjectName)
	datasetKey, err := h.Store.FirstKey(ctx, location.Bucket, location.Prefix+asset+"/")
	if err != nil {
		return err
	}
	dataset, schema, err := h.Store.ReadSeries(ctx, location.Bucket, datasetKey)
	if err != nil {
		return err
	}

	tags := model.Schema.Tags()
	if len(tags) == 0 {
		tags = dataset.Columns
	}
	resampled, err := Resample(dataset, window, tags, rate)
	if err != nil {
		return err
	}
	if resampled.Len() == 0 {
		return fmt.Errorf("no data between %s and %s in s3://%s/%s",
			timeseries.FormatTimestamp(window.Start), timeseries.FormatTimestamp(window.End), location.Bucket, datasetKey)
	}
	timeline := Shift(resampled, AlignedStart(h.now(), rate), rate)

	table := replayTable(timeline, schema.TimestampColumn, location.Bucket, req.ModelName, asset, req.UID)
	key := storage.ReplayKey(req.ModelName)
	if err := h.Store.PutTable(ctx, location.Bucket, key, table, nil); err != nil {
		return err
	}

	resp.Key = key
	resp.NumInferenceFiles = NumInferenceFiles(timeline, rate)
	resp.ReplayStartTime = timeseries.FormatTimestamp(window.Start)
	resp.ReplayEndTime = timeseries.FormatTimestamp(window.End)
	return nil
}

// replayTable renders the timeline with the routing columns the scheduler
// forwards to generate-inference-input with every row.
func replayTable(s *timeseries.Series, timestampColumn, bucket, model, project, uid string) *timeseries.Table {
	header := append([]string{timestampColumn}, s.Columns...)
	header = append(header, "bucket", "modelName", "projectName", "uid")

	table := &timeseries.Table{Header: header, FieldTypes: timeseries.StringFieldsExcept(header)}
	for i, ts := range s.Timestamps {
		row := make([]string, 0, len(header))
		row = append(row, timeseries.FormatTimestamp(ts))
		for _, v := range s.Values[i] {
			row = append(row, timeseries.FormatFloat(v))
		}
		row = append(row, bucket, model, project, uid)
		table.Rows = append(table.Rows, row)
	}
	return table
}
