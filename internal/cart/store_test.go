package cart

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	tee = Product{
		ID:       "armor-of-god-tee",
		Name:     "Armor of God Tee",
		Price:    decimal.NewFromInt(45),
		ImageURL: "https://res.cloudinary.com/exousia/tee.jpg",
	}
	hoodie = Product{
		ID:    "refined-by-fire-hoodie",
		Name:  "Refined by Fire Hoodie",
		Price: decimal.NewFromInt(89),
	}
)

func newTestStore(t *testing.T, storage Storage) *Store {
	t.Helper()
	counter := 0
	return NewStore(storage, zap.NewNop(), WithIDGenerator(func(productID, size, color string) string {
		counter++
		return fmt.Sprintf("%s-%s-%s-%d", productID, size, color, counter)
	}))
}

func assertSameItems(t *testing.T, want, got []LineItem) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].ProductID, got[i].ProductID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice), "price of %s", want[i].ID)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.Equal(t, want[i].Size, got[i].Size)
		assert.Equal(t, want[i].Color, got[i].Color)
		assert.Equal(t, want[i].ImageRef, got[i].ImageRef)
	}
}

func TestAddItem_MergesIdenticalVariant(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage())

	require.NoError(t, store.AddItem(tee, "M", "black", 1))
	require.NoError(t, store.AddItem(tee, "M", "black", 2))
	require.NoError(t, store.AddItem(tee, "M", "black", 4))

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
	assert.Equal(t, 7, store.TotalItems())
}

func TestAddItem_DifferentVariantsAreSeparateLines(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage())

	require.NoError(t, store.AddItem(tee, "M", "black", 1))
	require.NoError(t, store.AddItem(tee, "L", "black", 1))
	require.NoError(t, store.AddItem(tee, "M", "white", 1))
	require.NoError(t, store.AddItem(hoodie, "M", "black", 1))

	assert.Equal(t, 4, store.DistinctLines())
	items := store.Items()
	assert.Equal(t, "M", items[0].Size)
	assert.Equal(t, "L", items[1].Size)
	assert.Equal(t, "white", items[2].Color)
	assert.Equal(t, hoodie.ID, items[3].ProductID)
}

func TestAddItem_EmptyVariantIsValid(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage())

	require.NoError(t, store.AddItem(hoodie, "", "", 1))
	require.NoError(t, store.AddItem(hoodie, "", "", 1))

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage())

	assert.ErrorIs(t, store.AddItem(tee, "M", "black", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, store.AddItem(tee, "M", "black", -2), ErrInvalidQuantity)
	assert.True(t, store.IsEmpty())
}

func TestAddItem_SnapshotsPrice(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage())
	product := tee
	require.NoError(t, store.AddItem(product, "S", "", 1))

	product.Price = decimal.NewFromInt(999)
	require.NoError(t, store.AddItem(product, "S", "", 1))

	items := store.Items()
	require.Len(t, items, 1)
	assert.True(t, items[0].UnitPrice.Equal(decimal.NewFromInt(45)))
}

func TestAddItem_DefaultIDsAreUnique(t *testing.T) {
	store := NewStore(NewMemoryStorage(), zap.NewNop())

	require.NoError(t, store.AddItem(tee, "M", "black", 1))
	require.NoError(t, store.RemoveItem(store.Items()[0].ID))
	require.NoError(t, store.AddItem(tee, "M", "black", 1))
	require.NoError(t, store.AddItem(tee, "L", "black", 1))

	items := store.Items()
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].ID, items[1].ID)
	assert.Contains(t, items[0].ID, "armor-of-god-tee-M-black-")
}

func TestUpdateItemQuantity(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage())
	require.NoError(t, store.AddItem(tee, "M", "black", 1))
	require.NoError(t, store.AddItem(hoodie, "L", "grey", 1))
	teeID := store.Items()[0].ID

	t.Run("sets exact quantity", func(t *testing.T) {
		require.NoError(t, store.UpdateItemQuantity(teeID, 5))
		item, ok := store.Lookup(teeID)
		require.True(t, ok)
		assert.Equal(t, 5, item.Quantity)

		require.NoError(t, store.UpdateItemQuantity(teeID, 2))
		item, _ = store.Lookup(teeID)
		assert.Equal(t, 2, item.Quantity)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		require.NoError(t, store.UpdateItemQuantity("missing", 3))
		assert.Equal(t, 2, store.DistinctLines())
	})

	t.Run("zero removes", func(t *testing.T) {
		require.NoError(t, store.UpdateItemQuantity(teeID, 0))
		_, ok := store.Lookup(teeID)
		assert.False(t, ok)
		assert.Equal(t, 1, store.DistinctLines())
	})

	t.Run("negative removes", func(t *testing.T) {
		hoodieID := store.Items()[0].ID
		require.NoError(t, store.UpdateItemQuantity(hoodieID, -1))
		assert.True(t, store.IsEmpty())
	})
}

func TestRemoveItemAndClear(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage())
	require.NoError(t, store.AddItem(tee, "M", "black", 1))
	require.NoError(t, store.AddItem(hoodie, "L", "grey", 1))

	require.NoError(t, store.RemoveItem("missing"))
	assert.Equal(t, 2, store.DistinctLines())

	require.NoError(t, store.RemoveItem(store.Items()[0].ID))
	assert.Equal(t, hoodie.ID, store.Items()[0].ProductID)

	require.NoError(t, store.Clear())
	assert.True(t, store.IsEmpty())
	assert.True(t, store.TotalPrice().IsZero())
}

func TestTotals_TrackEveryMutation(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage())

	expect := func(price string, count int) {
		t.Helper()
		want := decimal.RequireFromString(price)
		sum := decimal.Zero
		for _, item := range store.Items() {
			sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		assert.True(t, want.Equal(store.TotalPrice()), "expected %s, got %s", price, store.TotalPrice())
		assert.True(t, sum.Equal(store.TotalPrice()))
		assert.Equal(t, count, store.TotalItems())
	}

	require.NoError(t, store.AddItem(tee, "M", "black", 1))
	expect("45", 1)
	require.NoError(t, store.AddItem(hoodie, "L", "grey", 2))
	expect("223", 3)
	require.NoError(t, store.UpdateItemQuantity(store.Items()[1].ID, 1))
	expect("134", 2)
	require.NoError(t, store.AddItem(tee, "M", "black", 1))
	expect("179", 3)
	require.NoError(t, store.RemoveItem(store.Items()[0].ID))
	expect("89", 1)
}

func TestRehydrate_RoundTrip(t *testing.T) {
	storage := NewMemoryStorage()
	store := newTestStore(t, storage)
	require.NoError(t, store.AddItem(tee, "M", "black", 2))
	require.NoError(t, store.AddItem(hoodie, "", "", 1))
	require.NoError(t, store.AddItem(Product{ID: "cap", Name: "Cap", Price: decimal.RequireFromString("19.99")}, "OS", "gold", 3))
	before := store.Items()

	reloaded := NewStore(storage, zap.NewNop())
	assert.True(t, reloaded.IsEmpty(), "store must not load until Rehydrate is called")

	require.NoError(t, reloaded.Rehydrate())
	assertSameItems(t, before, reloaded.Items())
	assert.True(t, store.TotalPrice().Equal(reloaded.TotalPrice()))
}

func TestRehydrate_NothingStored(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage())
	require.NoError(t, store.Rehydrate())
	assert.True(t, store.IsEmpty())
}

func TestRehydrate_CorruptRecordResetsToEmpty(t *testing.T) {
	tests := map[string]string{
		"not json":          `{"name":"exousia-cart",`,
		"foreign namespace": `{"name":"other-cart","version":1,"state":{"items":[]}}`,
		"future version":    `{"name":"exousia-cart","version":7,"state":{"items":[]}}`,
		"zero quantity":     `{"name":"exousia-cart","version":1,"state":{"items":[{"id":"a","productId":"p","price":"1","quantity":0}]}}`,
		"bad price":         `{"name":"exousia-cart","version":1,"state":{"items":[{"id":"a","productId":"p","price":"abc","quantity":1}]}}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			storage := NewMemoryStorage()
			require.NoError(t, storage.Save(DefaultNamespace, []byte(raw)))

			store := newTestStore(t, storage)
			require.NoError(t, store.Rehydrate())
			assert.True(t, store.IsEmpty())

			// the bad record is overwritten with an empty cart
			data, ok, err := storage.Load(DefaultNamespace)
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"name":"exousia-cart","version":1,"state":{"items":[]}}`, string(data))
		})
	}
}

type failingStorage struct {
	loadErr error
	saveErr error
}

func (f failingStorage) Load(string) ([]byte, bool, error) { return nil, false, f.loadErr }
func (f failingStorage) Save(string, []byte) error        { return f.saveErr }

func TestStorageErrorsAreReturned(t *testing.T) {
	boom := errors.New("disk full")

	store := newTestStore(t, failingStorage{loadErr: boom})
	assert.ErrorIs(t, store.Rehydrate(), boom)

	store = newTestStore(t, failingStorage{saveErr: boom})
	assert.ErrorIs(t, store.AddItem(tee, "M", "black", 1), boom)
}

// readOnlyStorage serves records from a MemoryStorage but rejects writes
// while saveErr is set.
type readOnlyStorage struct {
	*MemoryStorage
	saveErr error
}

func (r *readOnlyStorage) Save(key string, data []byte) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.MemoryStorage.Save(key, data)
}

func TestRehydrate_CorruptRecordSurvivesFailedOverwrite(t *testing.T) {
	storage := &readOnlyStorage{MemoryStorage: NewMemoryStorage()}
	require.NoError(t, storage.MemoryStorage.Save(DefaultNamespace, []byte(`{"name":"exousia-cart",`)))
	storage.saveErr = errors.New("read-only filesystem")

	store := newTestStore(t, storage)
	require.NoError(t, store.Rehydrate())
	assert.True(t, store.IsEmpty())
}

func TestFailedSaveLeavesCartUnchanged(t *testing.T) {
	storage := &readOnlyStorage{MemoryStorage: NewMemoryStorage()}
	store := newTestStore(t, storage)
	require.NoError(t, store.AddItem(tee, "M", "black", 1))
	require.NoError(t, store.AddItem(hoodie, "L", "", 1))
	before := store.Items()

	storage.saveErr = errors.New("disk full")

	assert.Error(t, store.AddItem(tee, "M", "black", 2))
	assert.Error(t, store.AddItem(tee, "S", "white", 1))
	assert.Error(t, store.UpdateItemQuantity(before[0].ID, 9))
	assert.Error(t, store.RemoveItem(before[1].ID))
	assert.Error(t, store.Clear())

	assertSameItems(t, before, store.Items())
	assert.Equal(t, 2, store.TotalItems())

	// memory still matches what a new session would load
	reloaded := newTestStore(t, storage)
	require.NoError(t, reloaded.Rehydrate())
	assertSameItems(t, before, reloaded.Items())
}

func TestWithNamespace(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage, zap.NewNop(), WithNamespace("preview-cart"))
	require.NoError(t, store.AddItem(tee, "M", "", 1))

	_, ok, err := storage.Load(DefaultNamespace)
	require.NoError(t, err)
	assert.False(t, ok)

	data, ok, err := storage.Load("preview-cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), `"name":"preview-cart"`)
}
