package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"l4e-demo-pipeline/src/dynamo"
	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/types"
)

// Handler bulk-loads a staged CSV into its table and removes the staged
// file once every row is written.
type Handler struct {
	Store  *storage.Store
	Dynamo *dynamo.Store
	Log    *zap.Logger
}

func (h *Handler) Handle(ctx context.Context, file types.FileToIngest) (types.IngestResponse, error) {
	if file.Bucket == "" || file.Key == "" || file.Table == "" {
		return types.IngestResponse{}, fmt.Errorf("bucket, key and table are required, got %+v", file)
	}
	log := h.Log.With(zap.String("table", file.Table), zap.String("key", file.Key))

	key := dynamo.ResultsKey
	if file.KeySchema != nil {
		key = *file.KeySchema
	}
	if err := h.Dynamo.EnsureTable(ctx, file.Table, key); err != nil {
		return types.IngestResponse{}, err
	}

	table, err := h.Store.ReadTable(ctx, file.Bucket, file.Key)
	if err != nil {
		return types.IngestResponse{}, err
	}

	if len(file.FieldTypes) == 0 {
		log.Warn("no field types given, every column is written as a string")
	}

	log.Info("ingesting rows", zap.Int("rows", table.Len()))
	written, err := h.Dynamo.BatchWriteTable(ctx, file.Table, table, file.FieldTypes)
	if err != nil {
		return types.IngestResponse{}, err
	}

	if err := h.Store.DeleteObject(ctx, file.Bucket, file.Key); err != nil {
		// rows are already in, a leftover file is harmless
		log.Warn("failed to delete ingested file", zap.Error(err))
	}

	return types.IngestResponse{StatusCode: 200, Table: file.Table, Rows: written}, nil
}
