package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"l4e-demo-pipeline/src/types"
)

var ErrUnknownEvent = errors.New("unknown event type")

// DetectObject finds the object an invocation is about. S3 notifications
// and orchestrator object events are both accepted.
func DetectObject(event json.RawMessage) (bucket, key string, err error) {
	var s3Event events.S3Event
	if err := json.Unmarshal(event, &s3Event); err == nil {
		if len(s3Event.Records) > 0 && s3Event.Records[0].EventSource == "aws:s3" {
			entity := s3Event.Records[0].S3
			// notification keys are form-encoded
			key, err := url.QueryUnescape(entity.Object.Key)
			if err != nil {
				return "", "", fmt.Errorf("invalid object key %q: %w", entity.Object.Key, err)
			}
			return entity.Bucket.Name, key, nil
		}
	}

	var objectEvent types.ObjectEvent
	if err := json.Unmarshal(event, &objectEvent); err == nil {
		if objectEvent.Detail.Bucket.Name != "" && objectEvent.Detail.Object.Key != "" {
			return objectEvent.Detail.Bucket.Name, objectEvent.Detail.Object.Key, nil
		}
	}

	return "", "", ErrUnknownEvent
}
