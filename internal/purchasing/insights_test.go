package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestInsightsServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryPurchasingRepo()
	repo.supplierNames[1] = "Supplier A"
	svc := NewService(repo, nil, nil, NewInsightsCache(client))

	q := createQuotation(t, svc, "Office chairs", QuotationItemInput{Description: "chair", Qty: 10})
	p, err := svc.AddProposal(context.Background(), AddProposalInput{QuotationID: q.ID, SupplierID: 1, Value: 900})
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), p.ID, 3)
	require.NoError(t, err)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	first, err := svc.Insights(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, first.TopSuppliers, 1)
	require.Equal(t, 900.0, first.TopSuppliers[0].Total)

	// mutate the store; the cached aggregation must still be served
	repo.orders[999] = PurchaseOrder{ID: 999, SupplierID: 1, Value: 5000, Status: OrderOpen, CreatedAt: time.Now()}

	second, err := svc.Insights(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 900.0, second.TopSuppliers[0].Total)

	// expiring the cache surfaces the new order
	mr.FastForward(insightsTTL + time.Minute)
	third, err := svc.Insights(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 5900.0, third.TopSuppliers[0].Total)
}
