package dynamo

import (
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shop-api-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sale_date is stored as whole Unix seconds so the BETWEEN filter in
// ListByDateRange compares numbers against the same-precision bounds.
// A sub-second sale date must land inside its boundary second, not
// below it.
func TestSaleDateStoredAsUnixSeconds(t *testing.T) {
	saleAt := time.Date(2026, 8, 20, 10, 0, 0, 500_000_000, time.UTC)
	item, err := attributevalue.MarshalMap(&domain.Sale{SaleID: "s1", SaleDate: saleAt})
	require.NoError(t, err)

	n, ok := item["sale_date"].(*types.AttributeValueMemberN)
	require.True(t, ok, "sale_date must marshal as a number attribute")

	stored, err := strconv.ParseInt(n.Value, 10, 64)
	require.NoError(t, err)

	from := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	assert.GreaterOrEqual(t, stored, from.UTC().Unix(),
		"sale inside the from boundary second stays within range")

	var got domain.Sale
	require.NoError(t, attributevalue.UnmarshalMap(item, &got))
	assert.True(t, got.SaleDate.Equal(saleAt.Truncate(time.Second)))
}
