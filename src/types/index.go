package types

import (
	"l4e-demo-pipeline/src/dynamo"
	"l4e-demo-pipeline/src/timeseries"
)

type BucketRef struct {
	Name string `json:"name"`
}

type ObjectRef struct {
	Key string `json:"key"`
}

// ObjectDetail is the detail of an object-created notification forwarded
// by the orchestrator.
type ObjectDetail struct {
	Bucket       BucketRef  `json:"bucket"`
	Object       ObjectRef  `json:"object"`
	UnloadObject *ObjectRef `json:"unloadObject,omitempty"`
}

type ObjectEvent struct {
	ID     string       `json:"id,omitempty"`
	Detail ObjectDetail `json:"detail"`
}

// FileToIngest tells the ingestion step which CSV goes to which table.
// Without a KeySchema the table is created as a model results table.
type FileToIngest struct {
	Bucket     string                `json:"bucket"`
	Table      string                `json:"table"`
	Key        string                `json:"key"`
	FieldTypes timeseries.FieldTypes `json:"fieldTypes"`
	KeySchema  *dynamo.KeySchema     `json:"keySchema,omitempty"`
}

type PrepareResponse struct {
	StatusCode       int            `json:"statusCode"`
	Bucket           string         `json:"bucket"`
	Key              string         `json:"key"`
	SummaryKey       string         `json:"summaryKey"`
	ImportKey        string         `json:"importKey"`
	Asset            string         `json:"asset"`
	InputPrefix      string         `json:"L4ES3InputPrefix"`
	ClientToken      string         `json:"L4EClientToken"`
	DatasetName      string         `json:"L4EDatasetName"`
	UserUID          string         `json:"userUid"`
	AssetDescription string         `json:"assetDescription"`
	TableName        string         `json:"tableName"`
	DroppedBuckets   int            `json:"droppedBuckets"`
	FilesToIngest    []FileToIngest `json:"filesToIngest"`
}

type ModelRequest struct {
	ModelName string `json:"modelName"`
}

type ResultsResponse struct {
	StatusCode    int            `json:"statusCode"`
	Bucket        string         `json:"bucket"`
	StartTime     string         `json:"startTime"`
	EndTime       string         `json:"endTime"`
	FilesToIngest []FileToIngest `json:"filesToIngest"`
}

type ModelStatusResponse struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	ModelName  string `json:"modelName"`
}

type IngestResponse struct {
	StatusCode int    `json:"statusCode"`
	Table      string `json:"table"`
	Rows       int    `json:"rows"`
}

type InferenceResponse struct {
	StatusCode        int    `json:"statusCode"`
	Bucket            string `json:"bucket,omitempty"`
	File              string `json:"file,omitempty"`
	ModelName         string `json:"modelName"`
	DatasetName       string `json:"datasetName,omitempty"`
	InferenceInputKey string `json:"inferenceInputKey,omitempty"`
}

type StatusResponse struct {
	StatusCode   int    `json:"statusCode"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

type ReplayRequest struct {
	ModelName          string `json:"modelName"`
	ProjectName        string `json:"projectName"`
	GenerateReplayData bool   `json:"generateReplayData"`
	ReplayDuration     string `json:"replayDuration"`
	ReplayStart        string `json:"replayStart"`
	UID                string `json:"uid"`
}

type ReplayResponse struct {
	StatusCode         int    `json:"statusCode"`
	NumInferenceFiles  int    `json:"numInferenceFiles,omitempty"`
	Bucket             string `json:"bucket"`
	Key                string `json:"key,omitempty"`
	Token              string `json:"token"`
	Name               string `json:"name"`
	ModelName          string `json:"modelName"`
	InputPrefix        string `json:"inputPrefix"`
	OutputPrefix       string `json:"outputPrefix"`
	GenerateReplayData bool   `json:"generateReplayData"`
	ReplayStartTime    string `json:"replayStartTime,omitempty"`
	ReplayEndTime      string `json:"replayEndTime,omitempty"`
	UID                string `json:"uid"`
}

type UnloadRequest struct {
	ID                       string       `json:"id"`
	UID                      string       `json:"uid"`
	UnloadQuery              string       `json:"unloadQuery"`
	AssetDescription         string       `json:"assetDescription"`
	DatasetPreparationSfnArn string       `json:"datasetPreparationSfnArn"`
	TimestampCol             string       `json:"timestampCol"`
	Detail                   ObjectDetail `json:"detail"`
}

type UnloadResponse struct {
	UID                      string       `json:"uid"`
	AssetDescription         string       `json:"assetDescription"`
	DatasetPreparationSfnArn string       `json:"datasetPreparationSfnArn"`
	TimestampCol             string       `json:"timestampCol"`
	QueryID                  string       `json:"queryId"`
	Detail                   ObjectDetail `json:"detail"`
}

// SensorsFileResponse points the dataset preparation at the CSV rebuilt
// from a Timestream export.
type SensorsFileResponse struct {
	StatusCode               int          `json:"statusCode"`
	UID                      string       `json:"uid"`
	AssetDescription         string       `json:"assetDescription"`
	DatasetPreparationSfnArn string       `json:"datasetPreparationSfnArn"`
	Rows                     int          `json:"rows"`
	Sensors                  []string     `json:"sensors"`
	Detail                   ObjectDetail `json:"detail"`
}

type CopyRequest struct {
	SourceBucket     string `json:"sourceBucket"`
	SourcePrefix     string `json:"sourcePrefix"`
	TargetBucket     string `json:"targetBucket"`
	TargetPrefix     string `json:"targetPrefix"`
	CreateRole       bool   `json:"createRole"`
	ExistingRole     string `json:"existingRole"`
	UID              string `json:"uid"`
	AssetDescription string `json:"assetDescription"`
}

type ListObjectsRequest struct {
	BucketName string `json:"bucketName"`
	PathPrefix string `json:"pathPrefix"`
}

type ObjectRequest struct {
	ID     string `json:"id"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}
