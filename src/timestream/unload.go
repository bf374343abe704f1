package timestream

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/timestreamquery"
	"github.com/aws/aws-sdk-go/service/timestreamquery/timestreamqueryiface"
	"github.com/google/uuid"
)

// Unload runs an UNLOAD statement and returns its query id. The export
// itself completes asynchronously.
func Unload(ctx context.Context, client timestreamqueryiface.TimestreamQueryAPI, query string) (string, error) {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "UNLOAD") {
		return "", fmt.Errorf("not an UNLOAD statement: %q", query)
	}

	out, err := client.QueryWithContext(ctx, &timestreamquery.QueryInput{
		QueryString: aws.String(query),
		ClientToken: aws.String(ClientToken()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to run unload query: %w", err)
	}
	return aws.StringValue(out.QueryId), nil
}

// ClientToken is a fresh idempotency token in the 32 character form the
// query API accepts.
func ClientToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
