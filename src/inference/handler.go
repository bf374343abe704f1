package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/service/lookoutequipment/lookoutequipmentiface"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/dynamo"
	"l4e-demo-pipeline/src/lookout"
	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/types"
)

// Handler serves the live inference side of the pipeline: storing what a
// scheduler produced and generating what it consumes.
type Handler struct {
	Lookout lookoutequipmentiface.LookoutEquipmentAPI
	Store   *storage.Store
	Dynamo  *dynamo.Store
	Log     *zap.Logger
}

// StoreResults stores every line of a scheduler result file in the result
// tables of its project, then stores the input rows that produced it.
func (h *Handler) StoreResults(ctx context.Context, event json.RawMessage) (types.InferenceResponse, error) {
	bucket, key, err := DetectObject(event)
	if err != nil {
		return types.InferenceResponse{}, err
	}
	output, err := storage.ParseInferenceOutputKey(key)
	if err != nil {
		return types.InferenceResponse{}, err
	}
	log := h.Log.With(zap.String("model", output.Model), zap.String("key", key))

	model, err := lookout.DescribeModel(ctx, h.Lookout, output.Model)
	if err != nil {
		return types.InferenceResponse{}, err
	}
	project := lookout.AssetName(model.DatasetName)

	content, err := h.Store.GetObject(ctx, bucket, key)
	if err != nil {
		return types.InferenceResponse{}, err
	}
	results, err := ParseResults(output.Model, bytes.NewReader(content))
	if err != nil {
		return types.InferenceResponse{}, fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
	}

	if err := h.Dynamo.EnsureResultsTable(ctx, dynamo.RawAnomaliesTable(project)); err != nil {
		return types.InferenceResponse{}, err
	}

	withDiagnostics := 0
	for _, r := range results {
		if err := h.Dynamo.StoreAnomaly(ctx, project, r); err != nil {
			return types.InferenceResponse{}, err
		}
		if err := h.Dynamo.StoreRawAnomaly(ctx, project, r); err != nil {
			return types.InferenceResponse{}, err
		}
		if r.Diagnostics == nil {
			continue
		}
		if err := h.Dynamo.StoreSensorContribution(ctx, project, r); err != nil {
			return types.InferenceResponse{}, err
		}
		withDiagnostics++
	}
	log.Info("stored inference results",
		zap.Int("results", len(results)),
		zap.Int("withDiagnostics", withDiagnostics),
	)

	asset := lookout.ShortName(project)
	inputKey := output.InputKey(asset)
	if _, err := h.storeInput(ctx, bucket, inputKey, asset, dynamo.ProjectTable(project)); err != nil {
		return types.InferenceResponse{}, err
	}

	return types.InferenceResponse{
		StatusCode: 200,
		Bucket:     bucket,
		File:       key,
		ModelName:  output.Model,
	}, nil
}

// StoreInputs stores the input rows behind a scheduler result file in the
// owner's time series table.
func (h *Handler) StoreInputs(ctx context.Context, event json.RawMessage) (types.InferenceResponse, error) {
	bucket, key, err := DetectObject(event)
	if err != nil {
		return types.InferenceResponse{}, err
	}
	output, err := storage.ParseInferenceOutputKey(key)
	if err != nil {
		return types.InferenceResponse{}, err
	}

	model, err := lookout.DescribeModel(ctx, h.Lookout, output.Model)
	if err != nil {
		return types.InferenceResponse{}, err
	}
	project := lookout.AssetName(model.DatasetName)
	uid, asset := lookout.UserUID(project), lookout.ShortName(project)

	inputKey := output.InputKey(asset)
	if _, err := h.storeInput(ctx, bucket, inputKey, asset, dynamo.TimeSeriesTable(uid, asset)); err != nil {
		return types.InferenceResponse{}, err
	}

	return types.InferenceResponse{
		StatusCode:        200,
		ModelName:         output.Model,
		DatasetName:       asset,
		InferenceInputKey: inputKey,
	}, nil
}

func (h *Handler) storeInput(ctx context.Context, bucket, key, asset, tableName string) (int, error) {
	in, err := h.Store.ReadTable(ctx, bucket, key)
	if err != nil {
		return 0, err
	}
	table, err := InputTable(in, asset)
	if err != nil {
		return 0, fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
	}

	written, err := h.Dynamo.BatchWriteTable(ctx, tableName, table, table.FieldTypes)
	if err != nil {
		return 0, err
	}
	h.Log.Info("stored inference input",
		zap.String("table", tableName),
		zap.String("key", key),
		zap.Int("rows", written),
	)
	return written, nil
}
