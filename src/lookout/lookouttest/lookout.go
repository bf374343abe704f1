// Package lookouttest fakes the model service for handler tests.
package lookouttest

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/lookoutequipment"
	"github.com/aws/aws-sdk-go/service/lookoutequipment/lookoutequipmentiface"
)

// LookoutEquipment answers describe calls from canned outputs keyed by name.
type LookoutEquipment struct {
	lookoutequipmentiface.LookoutEquipmentAPI

	Models   map[string]*lookoutequipment.DescribeModelOutput
	Datasets map[string]*lookoutequipment.DescribeDatasetOutput
}

func New() *LookoutEquipment {
	return &LookoutEquipment{
		Models:   map[string]*lookoutequipment.DescribeModelOutput{},
		Datasets: map[string]*lookoutequipment.DescribeDatasetOutput{},
	}
}

// AddModel registers a trained model of a dataset.
func (f *LookoutEquipment) AddModel(name, dataset, samplingRate string) *lookoutequipment.DescribeModelOutput {
	out := &lookoutequipment.DescribeModelOutput{
		ModelName:   aws.String(name),
		DatasetName: aws.String(dataset),
		Status:      aws.String("SUCCESS"),
	}
	if samplingRate != "" {
		out.DataPreProcessingConfiguration = &lookoutequipment.DataPreProcessingConfiguration{
			TargetSamplingRate: aws.String(samplingRate),
		}
	}
	f.Models[name] = out
	return out
}

// AddDataset registers a dataset ingested from bucket/prefix.
func (f *LookoutEquipment) AddDataset(name, bucket, prefix string) {
	f.Datasets[name] = &lookoutequipment.DescribeDatasetOutput{
		DatasetName: aws.String(name),
		IngestionInputConfiguration: &lookoutequipment.IngestionInputConfiguration{
			S3InputConfiguration: &lookoutequipment.IngestionS3InputConfiguration{
				Bucket: aws.String(bucket),
				Prefix: aws.String(prefix),
			},
		},
	}
}

func notFound(name string) error {
	return awserr.New("ResourceNotFoundException", name+" not found", nil)
}

func (f *LookoutEquipment) DescribeModelWithContext(_ aws.Context, in *lookoutequipment.DescribeModelInput, _ ...request.Option) (*lookoutequipment.DescribeModelOutput, error) {
	out, ok := f.Models[aws.StringValue(in.ModelName)]
	if !ok {
		return nil, notFound(aws.StringValue(in.ModelName))
	}
	return out, nil
}

func (f *LookoutEquipment) DescribeDatasetWithContext(_ aws.Context, in *lookoutequipment.DescribeDatasetInput, _ ...request.Option) (*lookoutequipment.DescribeDatasetOutput, error) {
	out, ok := f.Datasets[aws.StringValue(in.DatasetName)]
	if !ok {
		return nil, notFound(aws.StringValue(in.DatasetName))
	}
	return out, nil
}
