package cart

import (
	"math/rand/v2"
	"testing"

	"storefront/internal/catalog"
	"storefront/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeProducts map[int]models.Product

func (f fakeProducts) Get(id int) (models.Product, error) {
	p, ok := f[id]
	if !ok {
		return models.Product{}, models.NewNotFoundError("product", id)
	}
	return p, nil
}

func newFakeProducts() fakeProducts {
	return fakeProducts{
		1: {ID: 1, Name: "Lamp", Price: 89.99, Stock: 3},
		2: {ID: 2, Name: "Chair", Price: 299.99, Stock: 8},
		3: {ID: 3, Name: "Earbuds", Price: 149.99, Stock: 0},
	}
}

func TestStore(t *testing.T) {
	t.Run("Add_InsertsThenIncrements", func(t *testing.T) {
		s := NewStore(newFakeProducts())

		require.NoError(t, s.Add(1, 1))
		require.NoError(t, s.Add(2, 2))
		require.NoError(t, s.Add(1, 2))

		require.Equal(t, []models.LineItem{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 2}}, s.Lines())
		require.Equal(t, 5, s.LineCount())
	})

	t.Run("Add_CumulativeStockCheck", func(t *testing.T) {
		s := NewStore(newFakeProducts())

		require.NoError(t, s.Add(1, 2))
		err := s.Add(1, 2)
		require.ErrorIs(t, err, models.ErrOutOfStock)
		require.Equal(t, []models.LineItem{{ProductID: 1, Quantity: 2}}, s.Lines())

		require.ErrorIs(t, s.Add(3, 1), models.ErrOutOfStock)
		require.Len(t, s.Lines(), 1)
	})

	t.Run("Add_RejectsBadInput", func(t *testing.T) {
		s := NewStore(newFakeProducts())

		require.ErrorIs(t, s.Add(1, 0), models.ErrInvalidQuantity)
		require.ErrorIs(t, s.Add(1, -2), models.ErrInvalidQuantity)
		require.ErrorIs(t, s.Add(42, 1), models.ErrNotFound)
		require.True(t, s.IsEmpty())
	})

	t.Run("SetQuantity", func(t *testing.T) {
		s := NewStore(newFakeProducts())
		require.NoError(t, s.Add(2, 1))

		require.NoError(t, s.SetQuantity(2, 8))
		require.Equal(t, 8, s.LineCount())

		require.ErrorIs(t, s.SetQuantity(2, 9), models.ErrOutOfStock)
		require.ErrorIs(t, s.SetQuantity(2, 0), models.ErrInvalidQuantity)
		require.Equal(t, []models.LineItem{{ProductID: 2, Quantity: 8}}, s.Lines())

		require.ErrorIs(t, s.SetQuantity(1, 1), models.ErrNotFound)
		require.Len(t, s.Lines(), 1)
	})

	t.Run("RemoveIsNoOpWhenAbsent", func(t *testing.T) {
		s := NewStore(newFakeProducts())
		require.NoError(t, s.Add(1, 1))
		require.NoError(t, s.Add(2, 1))

		s.Remove(42)
		require.Len(t, s.Lines(), 2)

		s.Remove(1)
		require.Equal(t, []models.LineItem{{ProductID: 2, Quantity: 1}}, s.Lines())
	})

	t.Run("Clear", func(t *testing.T) {
		s := NewStore(newFakeProducts())
		require.NoError(t, s.Add(1, 1))
		s.Clear()
		require.True(t, s.IsEmpty())
		require.Zero(t, s.Total())
		require.Zero(t, s.LineCount())
	})

	t.Run("SubtractKeepsUnorderedQuantities", func(t *testing.T) {
		s := NewStore(newFakeProducts())
		require.NoError(t, s.Add(1, 1))
		require.NoError(t, s.Add(2, 2))
		ordered := s.Lines()

		require.NoError(t, s.Add(2, 3))
		require.NoError(t, s.Add(1, 1))
		s.Remove(1)
		require.NoError(t, s.Add(1, 2))

		s.Subtract(ordered)
		require.Equal(t, []models.LineItem{{ProductID: 2, Quantity: 3}, {ProductID: 1, Quantity: 1}}, s.Lines())

		s.Subtract([]models.LineItem{{ProductID: 2, Quantity: 3}, {ProductID: 1, Quantity: 5}, {ProductID: 9, Quantity: 1}})
		require.True(t, s.IsEmpty())
	})

	t.Run("TotalUsesLivePrices", func(t *testing.T) {
		repo, err := catalog.NewRepository([]models.Product{
			{ID: 1, Price: 10, Stock: 5},
			{ID: 2, Price: 2.5, Stock: 5},
		})
		require.NoError(t, err)
		s := NewStore(repo)

		require.NoError(t, s.Add(1, 2))
		require.NoError(t, s.Add(2, 4))
		require.Equal(t, 30.0, s.Total())

		require.NoError(t, repo.SetPrice(1, 12))
		require.Equal(t, 34.0, s.Total())
	})

	t.Run("DanglingLineContributesZero", func(t *testing.T) {
		products := newFakeProducts()
		s := NewStore(products)
		require.NoError(t, s.Add(1, 1))
		require.NoError(t, s.Add(2, 1))

		delete(products, 2)

		require.InDelta(t, 89.99, s.Total(), 1e-9)
		require.Len(t, s.Items(), 1)

		summary := s.Summary()
		require.Len(t, summary.Items, 1)
		require.Equal(t, 2, summary.LineCount)
		require.InDelta(t, 89.99, summary.Total, 1e-9)
	})

	t.Run("LinesReturnsCopy", func(t *testing.T) {
		s := NewStore(newFakeProducts())
		require.NoError(t, s.Add(1, 1))
		lines := s.Lines()
		lines[0].Quantity = 99
		require.Equal(t, 1, s.LineCount())
	})
}

// Random sequences of add/set/remove never produce duplicate lines,
// non-positive quantities, or quantities above stock.
func TestStoreInvariants(t *testing.T) {
	products := fakeProducts{
		1: {ID: 1, Price: 1, Stock: 5},
		2: {ID: 2, Price: 2, Stock: 1},
		3: {ID: 3, Price: 3, Stock: 10},
		4: {ID: 4, Price: 4, Stock: 0},
	}

	for seed := uint64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed))
		s := NewStore(products)

		for step := 0; step < 200; step++ {
			id := rng.IntN(6)
			qty := rng.IntN(8) - 2
			switch rng.IntN(3) {
			case 0:
				_ = s.Add(id, qty)
			case 1:
				_ = s.SetQuantity(id, qty)
			case 2:
				s.Remove(id)
			}

			seen := make(map[int]bool)
			for _, l := range s.Lines() {
				require.False(t, seen[l.ProductID], "duplicate line for product %d", l.ProductID)
				seen[l.ProductID] = true
				require.Positive(t, l.Quantity)
				p, err := products.Get(l.ProductID)
				require.NoError(t, err)
				require.LessOrEqual(t, l.Quantity, p.Stock)
			}
		}
	}
}
