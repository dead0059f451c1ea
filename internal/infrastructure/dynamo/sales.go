package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shop-api-nosql/internal/domain"
)

// SaleRepo provides typed DynamoDB operations for the sales table.
type SaleRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSaleRepo(client *dynamodb.Client, tableName string) *SaleRepo {
	return &SaleRepo{client: client, tableName: tableName}
}

func (r *SaleRepo) Put(ctx context.Context, s *domain.Sale) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal sale: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SaleRepo) Get(ctx context.Context, saleID string) (*domain.Sale, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("sale_id", saleID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("sale not found: %w", domain.ErrNotFound)
	}
	var s domain.Sale
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByDateRange scans sales with sale_date within [from, to]. The
// attribute is stored as Unix seconds so the BETWEEN comparison is
// numeric, not lexicographic. Sales tables stay small relative to
// traffic and analytics runs are admin-only, so a filtered scan is
// acceptable here.
func (r *SaleRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Sale, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("sale_date BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberN{Value: strconv.FormatInt(from.UTC().Unix(), 10)},
			":to":   &types.AttributeValueMemberN{Value: strconv.FormatInt(to.UTC().Unix(), 10)},
		},
	})
	if err != nil {
		return nil, err
	}
	var sales []domain.Sale
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}
