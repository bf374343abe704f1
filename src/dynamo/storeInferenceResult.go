package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"l4e-demo-pipeline/src/reconstruct"
	"l4e-demo-pipeline/src/timeseries"
)

// InferenceResult is one line of a model's inference output.
type InferenceResult struct {
	Model        string
	Timestamp    int64
	Prediction   float64
	AnomalyScore float64
	Diagnostics  reconstruct.Diagnostics
}

func resultKey(model string, timestamp int64) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"model": {
			S: aws.String(model),
		},
		"timestamp": {
			N: aws.String(strconv.FormatInt(timestamp, 10)),
		},
	}
}

// StoreAnomaly writes the predicted label to the project's anomalies table.
func (s *Store) StoreAnomaly(ctx context.Context, project string, r InferenceResult) error {
	item := resultKey(r.Model, r.Timestamp)
	item["anomaly"] = &dynamodb.AttributeValue{N: aws.String(timeseries.FormatFloat(r.Prediction))}

	return s.putItem(ctx, AnomaliesTable(project), item)
}

// StoreRawAnomaly writes the raw anomaly score. The raw anomalies table is
// not provisioned with the project; run EnsureResultsTable on it first.
func (s *Store) StoreRawAnomaly(ctx context.Context, project string, r InferenceResult) error {
	item := resultKey(r.Model, r.Timestamp)
	item["anomaly_score"] = &dynamodb.AttributeValue{N: aws.String(timeseries.FormatFloat(r.AnomalyScore))}

	return s.putItem(ctx, RawAnomaliesTable(project), item)
}

// StoreSensorContribution writes one attribute per diagnosed tag.
func (s *Store) StoreSensorContribution(ctx context.Context, project string, r InferenceResult) error {
	item := resultKey(r.Model, r.Timestamp)
	for key, value := range r.Diagnostics {
		item[key.Tag] = &dynamodb.AttributeValue{N: aws.String(timeseries.FormatFloat(value))}
	}

	return s.putItem(ctx, SensorContributionTable(project), item)
}

func (s *Store) putItem(ctx context.Context, table string, item map[string]*dynamodb.AttributeValue) error {
	_, err := s.API.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in %s: %w", table, err)
	}
	return nil
}
