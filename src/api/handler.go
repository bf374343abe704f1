package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/types"
)

const copySessionName = "l4edemoapp-csv-from-s3-session"

var errBadRequest = errors.New("bad request")

// Handler answers the browser-facing functions. Every response carries
// CORS headers for Origin.
type Handler struct {
	Store  *storage.Store
	Log    *zap.Logger
	Origin string
	// AssumeRole returns a client acting as the given role.
	AssumeRole func(roleARN, sessionName string) s3iface.S3API
}

func (h *Handler) corsHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  h.Origin,
		"Access-Control-Allow-Methods": "*",
		"Access-Control-Allow-Headers": "*",
	}
}

func (h *Handler) respond(body any) (events.APIGatewayProxyResponse, error) {
	content, err := json.Marshal(body)
	if err != nil {
		return h.fail(err)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: 200,
		Headers:    h.corsHeaders(),
		Body:       string(content),
	}, nil
}

func (h *Handler) fail(err error) (events.APIGatewayProxyResponse, error) {
	status := 500
	if errors.Is(err, errBadRequest) {
		status = 400
	}
	h.Log.Error("request failed", zap.Int("status", status), zap.Error(err))

	body, _ := json.Marshal(types.StatusResponse{StatusCode: status, ErrorMessage: err.Error()})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    h.corsHeaders(),
		Body:       string(body),
	}, nil
}

func (h *Handler) ListBuckets(ctx context.Context) (events.APIGatewayProxyResponse, error) {
	buckets, err := h.Store.ListBuckets(ctx)
	if err != nil {
		return h.fail(err)
	}
	return h.respond(buckets)
}

func (h *Handler) ListObjects(ctx context.Context, req types.ListObjectsRequest) (events.APIGatewayProxyResponse, error) {
	if req.BucketName == "" {
		return h.fail(errors.Join(errBadRequest, errors.New("bucketName is required")))
	}
	listing, err := h.Store.ListObjects(ctx, req.BucketName, req.PathPrefix)
	if err != nil {
		return h.fail(err)
	}
	return h.respond(listing)
}

// CopyCSV copies a user's CSV from a bucket of theirs into the app bucket
// under an existing role they granted, then tags it as theirs.
func (h *Handler) CopyCSV(ctx context.Context, req types.CopyRequest) (events.APIGatewayProxyResponse, error) {
	switch {
	case req.CreateRole:
		return h.fail(errors.Join(errBadRequest, errors.New("creating a copy role is not supported, pass existingRole")))
	case req.ExistingRole == "":
		return h.fail(errors.Join(errBadRequest, errors.New("existingRole is required")))
	case req.SourceBucket == "" || req.SourcePrefix == "" || req.TargetBucket == "" || req.TargetPrefix == "":
		return h.fail(errors.Join(errBadRequest, errors.New("sourceBucket, sourcePrefix, targetBucket and targetPrefix are required")))
	}

	log := h.Log.With(
		zap.String("source", req.SourceBucket+"/"+req.SourcePrefix),
		zap.String("target", req.TargetBucket+"/"+req.TargetPrefix),
	)
	log.Info("copying csv", zap.String("role", req.ExistingRole))

	store := storage.New(h.AssumeRole(req.ExistingRole, copySessionName))
	if err := store.CopyObject(ctx, req.SourceBucket, req.SourcePrefix, req.TargetBucket, req.TargetPrefix); err != nil {
		return h.fail(err)
	}

	identity := storage.Identity{UserUID: req.UID, AssetDescription: req.AssetDescription}
	if err := store.PutTags(ctx, req.TargetBucket, req.TargetPrefix, identity.Tags()); err != nil {
		return h.fail(err)
	}

	return h.respond(types.StatusResponse{StatusCode: 200})
}
