package suppressions

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// Schema of the DynamoDB table: a string partition key, and the list as a list of strings.
const (
	tablePartitionKey  = "key"
	testIDsAttribute   = "testIDs"
	defaultAWSRegion   = "us-east-1"
	dynamoDBMaxRetries = 2
)

// DynamoDBStore keeps the list in one item of a DynamoDB table.
type DynamoDBStore struct {
	dynamodb *dynamodb.DynamoDB
	table    string
	key      string
}

// NewDynamoDBStore creates a store for an item in table. Credentials come from the usual AWS
// environment variables and config files. A non-empty endpoint overrides the service URL, for
// use with a local DynamoDB.
func NewDynamoDBStore(table, key, region, endpoint string) (*DynamoDBStore, error) {
	if region == "" {
		region = defaultAWSRegion
	}
	config := &aws.Config{
		Region:     aws.String(region),
		MaxRetries: aws.Int(dynamoDBMaxRetries),
	}
	if endpoint != "" {
		config.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("cannot create AWS session: %w", err)
	}
	return &DynamoDBStore{dynamodb: dynamodb.New(sess), table: table, key: key}, nil
}

func (d *DynamoDBStore) Description() string {
	return fmt.Sprintf("dynamodb://%s/%s", d.table, d.key)
}

func (d *DynamoDBStore) itemKey() map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		tablePartitionKey: {S: aws.String(d.key)},
	}
}

func (d *DynamoDBStore) Load(ctx context.Context) ([]string, error) {
	result, err := d.dynamodb.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.itemKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", d.Description(), err)
	}
	if result == nil || result.Item == nil {
		return nil, nil
	}
	attr := result.Item[testIDsAttribute]
	if attr == nil {
		return nil, nil
	}
	ids := make([]string, 0, len(attr.L))
	for _, v := range attr.L {
		if v.S != nil {
			ids = append(ids, *v.S)
		}
	}
	return ids, nil
}

func (d *DynamoDBStore) Save(ctx context.Context, testIDs []string) error {
	list := make([]*dynamodb.AttributeValue, 0, len(testIDs))
	for _, id := range testIDs {
		list = append(list, &dynamodb.AttributeValue{S: aws.String(id)})
	}
	item := d.itemKey()
	item[testIDsAttribute] = &dynamodb.AttributeValue{L: list}
	if _, err := d.dynamodb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("cannot write %s: %w", d.Description(), err)
	}
	return nil
}
