package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

// Project is an entry of the projects table.
type Project struct {
	UserID           string `dynamodbav:"user_id"`
	Project          string `dynamodbav:"project"`
	NumRows          int    `dynamodbav:"numRows"`
	ExecutionID      string `dynamodbav:"executionId"`
	AssetDescription string `dynamodbav:"assetDescription"`
}

// StoreProject registers a new project for a user.
func (s *Store) StoreProject(ctx context.Context, table string, p Project) error {
	item, err := dynamodbattribute.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project %s: %w", p.Project, err)
	}
	return s.putItem(ctx, table, item)
}
