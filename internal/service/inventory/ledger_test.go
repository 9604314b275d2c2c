package inventory_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/inventory"
)

func TestLedger_ReserveReleaseCommit(t *testing.T) {
	ledger := inventory.NewLedger(nil)
	ledger.SetStock("sku-1", 10)

	require.NoError(t, ledger.Reserve("sku-1", 4))
	require.Equal(t, int32(6), ledger.Available("sku-1"))
	require.Equal(t, int32(4), ledger.Reserved("sku-1"))

	require.NoError(t, ledger.Release("sku-1", 1))
	require.Equal(t, int32(7), ledger.Available("sku-1"))

	require.NoError(t, ledger.Commit("sku-1", 3))
	require.Equal(t, int32(7), ledger.Available("sku-1"))
	require.Equal(t, int32(0), ledger.Reserved("sku-1"))
}

func TestLedger_ReserveInsufficientStock(t *testing.T) {
	ledger := inventory.NewLedger(nil)
	ledger.SetStock("sku-1", 1)

	err := ledger.Reserve("sku-1", 2)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	// Неудачный резерв не меняет остатки.
	require.Equal(t, int32(1), ledger.Available("sku-1"))
}

func TestLedger_UnknownSKU(t *testing.T) {
	ledger := inventory.NewLedger(nil)

	require.ErrorIs(t, ledger.Reserve("ghost", 1), domain.ErrInsufficientStock)
	require.ErrorIs(t, ledger.Release("ghost", 1), domain.ErrInvalidRelease)
	require.ErrorIs(t, ledger.Commit("ghost", 1), domain.ErrInvalidRelease)
}

func TestLedger_InvalidRelease(t *testing.T) {
	ledger := inventory.NewLedger(nil)
	ledger.SetStock("sku-1", 5)
	require.NoError(t, ledger.Reserve("sku-1", 2))

	require.ErrorIs(t, ledger.Release("sku-1", 3), domain.ErrInvalidRelease)
	require.ErrorIs(t, ledger.Commit("sku-1", 3), domain.ErrInvalidRelease)
	// Состояние не изменилось.
	require.Equal(t, int32(3), ledger.Available("sku-1"))
	require.Equal(t, int32(2), ledger.Reserved("sku-1"))
}

// Конкурентные резервы одного SKU не должны совместно превысить сток:
// успехов ровно столько, сколько позволяет остаток, остальные получают
// ErrInsufficientStock.
func TestLedger_ConcurrentReserve(t *testing.T) {
	const stock = 50
	const workers = 200

	ledger := inventory.NewLedger(nil)
	ledger.SetStock("sku-hot", stock)

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.Reserve("sku-hot", 1)
		}()
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	require.Equal(t, stock, ok)
	require.Equal(t, workers-stock, insufficient)
	require.Equal(t, int32(0), ledger.Available("sku-hot"))
	require.Equal(t, int32(stock), ledger.Reserved("sku-hot"))
}
