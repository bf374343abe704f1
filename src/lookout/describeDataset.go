package lookout

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/lookoutequipment"
	"github.com/aws/aws-sdk-go/service/lookoutequipment/lookoutequipmentiface"
)

// DatasetLocation is where a dataset was ingested from.
type DatasetLocation struct {
	Bucket string
	Prefix string
}

// DescribeDataset returns the S3 input location of a dataset.
func DescribeDataset(ctx context.Context, client lookoutequipmentiface.LookoutEquipmentAPI, datasetName string) (DatasetLocation, error) {
	out, err := client.DescribeDatasetWithContext(ctx, &lookoutequipment.DescribeDatasetInput{
		DatasetName: aws.String(datasetName),
	})
	if err != nil {
		return DatasetLocation{}, fmt.Errorf("failed to describe dataset %s: %w", datasetName, err)
	}

	cfg := out.IngestionInputConfiguration
	if cfg == nil || cfg.S3InputConfiguration == nil {
		return DatasetLocation{}, fmt.Errorf("dataset %s has no S3 input configuration", datasetName)
	}

	return DatasetLocation{
		Bucket: aws.StringValue(cfg.S3InputConfiguration.Bucket),
		Prefix: aws.StringValue(cfg.S3InputConfiguration.Prefix),
	}, nil
}
