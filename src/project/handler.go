package project

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/service/lookoutequipment/lookoutequipmentiface"
	"github.com/aws/aws-sdk-go/service/timestreamquery/timestreamqueryiface"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/dynamo"
	"l4e-demo-pipeline/src/lookout"
	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/timestream"
	"l4e-demo-pipeline/src/types"
)

const readErrorMessage = "Error while reading the CSV file, check your file and try again"

// Handler keeps the projects table and answers model status requests.
type Handler struct {
	Lookout       lookoutequipmentiface.LookoutEquipmentAPI
	Timestream    timestreamqueryiface.TimestreamQueryAPI
	Store         *storage.Store
	Dynamo        *dynamo.Store
	Log           *zap.Logger
	ProjectsTable string
}

// NewProject registers an uploaded dataset as a project of its owner. A
// file that cannot be read is reported to the caller, not retried.
func (h *Handler) NewProject(ctx context.Context, req types.ObjectRequest) (types.StatusResponse, error) {
	log := h.Log.With(zap.String("bucket", req.Bucket), zap.String("key", req.Key))

	asset, err := storage.AssetFromKey(req.Key)
	if err != nil {
		return types.StatusResponse{}, err
	}

	table, err := h.Store.ReadTable(ctx, req.Bucket, req.Key)
	if err != nil {
		log.Warn("failed to read dataset", zap.Error(err))
		return types.StatusResponse{StatusCode: 400, ErrorMessage: readErrorMessage}, nil
	}
	identity, err := h.Store.GetIdentity(ctx, req.Bucket, req.Key)
	if err != nil {
		log.Warn("failed to read dataset tags", zap.Error(err))
		return types.StatusResponse{StatusCode: 400, ErrorMessage: readErrorMessage}, nil
	}

	err = h.Dynamo.StoreProject(ctx, h.ProjectsTable, dynamo.Project{
		UserID:           identity.UserUID,
		Project:          asset,
		NumRows:          table.Len(),
		ExecutionID:      req.ID,
		AssetDescription: identity.AssetDescription,
	})
	if err != nil {
		return types.StatusResponse{}, err
	}

	log.Info("project registered", zap.String("project", asset), zap.Int("rows", table.Len()))
	return types.StatusResponse{StatusCode: 200}, nil
}

func (h *Handler) DescribeModel(ctx context.Context, req types.ModelRequest) (types.ModelStatusResponse, error) {
	if req.ModelName == "" {
		return types.ModelStatusResponse{}, fmt.Errorf("modelName is required")
	}
	status, err := lookout.ModelStatus(ctx, h.Lookout, req.ModelName)
	if err != nil {
		return types.ModelStatusResponse{}, err
	}
	return types.ModelStatusResponse{StatusCode: 200, Status: status, ModelName: req.ModelName}, nil
}

// Unload starts exporting a Timestream query result to S3 and registers
// the project it will become. The row count is unknown until the export
// lands, so it is recorded as zero.
func (h *Handler) Unload(ctx context.Context, req types.UnloadRequest) (types.UnloadResponse, error) {
	asset, err := storage.AssetFromKey(req.Detail.Object.Key)
	if err != nil {
		return types.UnloadResponse{}, err
	}
	h.Log.Info("unloading timestream data", zap.String("project", asset), zap.String("query", req.UnloadQuery))

	queryID, err := timestream.Unload(ctx, h.Timestream, req.UnloadQuery)
	if err != nil {
		return types.UnloadResponse{}, err
	}

	err = h.Dynamo.StoreProject(ctx, h.ProjectsTable, dynamo.Project{
		UserID:           req.UID,
		Project:          asset,
		NumRows:          0,
		ExecutionID:      req.ID,
		AssetDescription: req.AssetDescription,
	})
	if err != nil {
		return types.UnloadResponse{}, err
	}

	return types.UnloadResponse{
		UID:                      req.UID,
		AssetDescription:         req.AssetDescription,
		DatasetPreparationSfnArn: req.DatasetPreparationSfnArn,
		TimestampCol:             req.TimestampCol,
		QueryID:                  queryID,
		Detail:                   req.Detail,
	}, nil
}
