package results

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/service/lookoutequipment/lookoutequipmentiface"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/dynamo"
	"l4e-demo-pipeline/src/lookout"
	"l4e-demo-pipeline/src/reconstruct"
	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/timeseries"
	"l4e-demo-pipeline/src/types"
)

const (
	anomaliesName          = "anomalies"
	dailyRateName          = "daily_rate"
	sensorContributionName = "sensor_contribution"
)

type resultFile struct {
	name      string
	tableName string
	table     *timeseries.Table
}

// Handler rebuilds the evaluation results of a trained model and stages
// them for ingestion.
type Handler struct {
	Lookout      lookoutequipmentiface.LookoutEquipmentAPI
	Store        *storage.Store
	Log          *zap.Logger
	Bucket       string
	SamplingRate string
	Aggregation  time.Duration
}

func (h *Handler) Handle(ctx context.Context, req types.ModelRequest) (types.ResultsResponse, error) {
	if req.ModelName == "" {
		return types.ResultsResponse{}, fmt.Errorf("modelName is required")
	}
	h.Log.Info("extracting training results", zap.String("model", req.ModelName))

	model, err := lookout.DescribeModel(ctx, h.Lookout, req.ModelName)
	if err != nil {
		return types.ResultsResponse{}, err
	}
	ranges, err := model.ModelMetrics.Ranges()
	if err != nil {
		return types.ResultsResponse{}, fmt.Errorf("model %s: %w", req.ModelName, err)
	}

	assetName := lookout.AssetName(model.DatasetName)
	out, err := reconstruct.Reconstruct(reconstruct.Request{
		Ranges:       ranges,
		Start:        model.TrainingDataStartTime,
		End:          model.EvaluationDataEndTime,
		Tags:         model.Schema.Tags(),
		Asset:        lookout.ShortName(assetName),
		SamplingRate: h.SamplingRate,
		Aggregation:  h.Aggregation,
	})
	if err != nil {
		return types.ResultsResponse{}, fmt.Errorf("model %s: %w", req.ModelName, err)
	}

	tables := []resultFile{
		{anomaliesName, dynamo.AnomaliesTable(assetName), reconstruct.AnomaliesTable(out.Anomalies, req.ModelName)},
		{dailyRateName, dynamo.DailyRateTable(assetName), reconstruct.DailyRateTable(out.DailyRate, req.ModelName)},
	}
	if out.SensorContribution != nil {
		tables = append(tables, resultFile{sensorContributionName, dynamo.SensorContributionTable(assetName), reconstruct.SensorContributionTable(out.SensorContribution, req.ModelName)})
	} else {
		h.Log.Info("no diagnostics on predicted ranges, skipping sensor contribution", zap.String("model", req.ModelName))
	}

	files := make([]types.FileToIngest, 0, len(tables))
	for _, t := range tables {
		key := storage.ResultKey(assetName, t.name)
		if err := h.Store.PutTable(ctx, h.Bucket, key, t.table, nil); err != nil {
			return types.ResultsResponse{}, err
		}
		files = append(files, types.FileToIngest{
			Bucket:     h.Bucket,
			Table:      t.tableName,
			Key:        key,
			FieldTypes: t.table.FieldTypes,
		})
	}

	h.Log.Info("training results staged",
		zap.String("model", req.ModelName),
		zap.Int("ranges", len(ranges)),
		zap.Int("labels", out.Anomalies.Len()),
		zap.Float64("anomalous", out.Anomalies.Total()),
		zap.Int("files", len(files)),
	)

	return types.ResultsResponse{
		StatusCode:    200,
		Bucket:        h.Bucket,
		StartTime:     timeseries.FormatTimestamp(model.TrainingDataStartTime),
		EndTime:       timeseries.FormatTimestamp(model.EvaluationDataEndTime),
		FilesToIngest: files,
	}, nil
}
