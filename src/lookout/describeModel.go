package lookout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/lookoutequipment"
	"github.com/aws/aws-sdk-go/service/lookoutequipment/lookoutequipmentiface"
)

// DescribeModel fetches a model and decodes its schema and metrics.
func DescribeModel(ctx context.Context, client lookoutequipmentiface.LookoutEquipmentAPI, modelName string) (*ModelDescription, error) {
	out, err := client.DescribeModelWithContext(ctx, &lookoutequipment.DescribeModelInput{
		ModelName: aws.String(modelName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe model %s: %w", modelName, err)
	}

	// The SDK output has the JSON shape of the API response, so it goes
	// through the same decoder as stored descriptions.
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode description of model %s: %w", modelName, err)
	}
	desc, err := ParseModelDescription(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", modelName, err)
	}
	if desc.ModelName == "" {
		desc.ModelName = modelName
	}

	return desc, nil
}

// ModelStatus returns the training status of a model without decoding
// its schema or metrics.
func ModelStatus(ctx context.Context, client lookoutequipmentiface.LookoutEquipmentAPI, modelName string) (string, error) {
	out, err := client.DescribeModelWithContext(ctx, &lookoutequipment.DescribeModelInput{
		ModelName: aws.String(modelName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe model %s: %w", modelName, err)
	}
	return aws.StringValue(out.Status), nil
}
