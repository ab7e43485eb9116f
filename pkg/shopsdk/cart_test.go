package shopsdk

import (
	"context"
	"math/rand/v2"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func requireConsistent(t *testing.T, s CartSnapshot) {
	t.Helper()
	var qty int
	var amount Money
	seen := map[int64]bool{}
	for _, l := range s.Lines {
		require.GreaterOrEqual(t, l.Quantity, 1, "line %d", l.ProductID)
		require.False(t, seen[l.ProductID], "duplicate line %d", l.ProductID)
		seen[l.ProductID] = true
		qty += l.Quantity
		amount += l.UnitPrice.Times(l.Quantity)
	}
	require.Equal(t, qty, s.TotalQuantity)
	require.Equal(t, amount, s.TotalAmount)
}

func TestSnapshotTotalsFollowLines(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	prices := []Money{0, 99, 1000, 4999, 12345}

	var s CartSnapshot
	for range 2000 {
		id := int64(rng.IntN(6) + 1)
		switch rng.IntN(4) {
		case 0, 1:
			s = s.WithAdded(CartLine{ProductID: id, UnitPrice: prices[int(id)%len(prices)], Quantity: rng.IntN(3)})
		case 2:
			next, ok := s.WithQuantity(id, rng.IntN(5)-1)
			_, had := s.Line(id)
			require.Equal(t, had, ok)
			s = next
		case 3:
			s = s.Without(id)
		}
		requireConsistent(t, s)
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	t.Parallel()

	a := CartSnapshot{}.WithAdded(CartLine{ProductID: 1, UnitPrice: 500, Quantity: 1})
	b := a.WithAdded(CartLine{ProductID: 1, UnitPrice: 500})
	c, _ := b.WithQuantity(1, 7)

	require.Equal(t, 1, a.Lines[0].Quantity)
	require.Equal(t, 2, b.Lines[0].Quantity)
	require.Equal(t, 7, c.Lines[0].Quantity)
}

func TestNewCartSnapshotNormalises(t *testing.T) {
	t.Parallel()

	got := NewCartSnapshot([]CartLine{
		{ProductID: 1, Name: "Beans", UnitPrice: 4999, Quantity: 1},
		{ProductID: 2, Name: "Ghost", UnitPrice: 100, Quantity: 0},
		{ProductID: 1, Name: "Beans", UnitPrice: 4999, Quantity: 2},
		{ProductID: 3, Name: "Filters", UnitPrice: 799, Quantity: 4},
	})
	want := CartSnapshot{
		Lines: []CartLine{
			{ProductID: 1, Name: "Beans", UnitPrice: 4999, Quantity: 3},
			{ProductID: 3, Name: "Filters", UnitPrice: 799, Quantity: 4},
		},
		TotalQuantity: 7,
		TotalAmount:   3*4999 + 4*799,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestWithLineRestoresOneLine(t *testing.T) {
	t.Parallel()

	s := CartSnapshot{}.
		WithAdded(CartLine{ProductID: 1, UnitPrice: 100, Quantity: 2}).
		WithAdded(CartLine{ProductID: 2, UnitPrice: 300, Quantity: 1})
	prev, _ := s.Line(1)

	s = s.Without(1).WithAdded(CartLine{ProductID: 2, UnitPrice: 300})
	s = s.withLine(prev)

	got, ok := s.Line(1)
	require.True(t, ok)
	require.Equal(t, prev, got)
	require.Equal(t, 4, s.TotalQuantity)
	requireConsistent(t, s)
}

func TestGuestCart(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	cart := NewCart(h.transport)

	a := CartLine{ProductID: 1, Name: "Beans", UnitPrice: 1000, Quantity: 1}
	require.NoError(t, cart.AddItem(ctx, a))
	require.NoError(t, cart.AddItem(ctx, a))

	snap := cart.Snapshot()
	require.Len(t, snap.Lines, 1)
	require.Equal(t, 2, snap.Lines[0].Quantity)
	require.Equal(t, 2, snap.TotalQuantity)
	require.Equal(t, Money(2000), snap.TotalAmount)

	require.NoError(t, cart.UpdateQuantity(ctx, 1, 0))
	require.Zero(t, cart.Snapshot().Len())

	err := cart.UpdateQuantity(ctx, 1, 3)
	require.ErrorIs(t, err, ErrLineNotFound)
	require.ErrorIs(t, err, ErrValidation)

	require.Zero(t, h.api.Calls("POST /cart/items"))
	require.Zero(t, h.api.Calls("PATCH /cart/items/{productId}"))
}

func TestCartAgainstServer(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	beans := h.api.AddProduct("Beans", "", 1000, 10)
	kettle := h.api.AddProduct("Kettle", "", 8900, 10)
	h.login(t)
	cart := NewCart(h.transport)

	t.Run("add twice", func(t *testing.T) {
		require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: beans}))
		require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: beans}))

		snap := cart.Snapshot()
		require.Len(t, snap.Lines, 1)
		require.Equal(t, "Beans", snap.Lines[0].Name)
		require.Equal(t, 2, snap.TotalQuantity)
		require.Equal(t, Money(2000), snap.TotalAmount)
		require.Equal(t, 2, h.api.CartQuantity(h.userID, beans))
	})

	t.Run("update quantity", func(t *testing.T) {
		require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: kettle, Quantity: 1}))
		require.NoError(t, cart.UpdateQuantity(ctx, beans, 5))
		requireConsistent(t, cart.Snapshot())
		require.Equal(t, 5, h.api.CartQuantity(h.userID, beans))
		require.Equal(t, Money(5*1000+8900), cart.Snapshot().TotalAmount)
	})

	t.Run("zero removes the line", func(t *testing.T) {
		require.NoError(t, cart.UpdateQuantity(ctx, kettle, 0))
		_, ok := cart.Snapshot().Line(kettle)
		require.False(t, ok)
		require.Zero(t, h.api.CartQuantity(h.userID, kettle))
		require.Equal(t, 1, h.api.Calls("DELETE /cart/items/{productId}"))
	})

	t.Run("failed update rolls back", func(t *testing.T) {
		before := cart.Snapshot()
		h.api.FailNext("PATCH /cart/items/{productId}", http.StatusInternalServerError, 1)

		err := cart.UpdateQuantity(ctx, beans, 9)
		require.ErrorIs(t, err, ErrServer)
		if diff := cmp.Diff(before, cart.Snapshot()); diff != "" {
			t.Fatalf("rollback mismatch (-want +got):\n%s", diff)
		}
		require.ErrorIs(t, cart.State().Err, ErrServer)
	})

	t.Run("failed add keeps the last good snapshot", func(t *testing.T) {
		before := cart.Snapshot()
		h.api.FailNext("POST /cart/items", http.StatusServiceUnavailable, 1)

		require.Error(t, cart.AddItem(ctx, CartLine{ProductID: kettle}))
		require.Equal(t, before, cart.Snapshot())
	})

	t.Run("fetch clears the error", func(t *testing.T) {
		require.NoError(t, cart.Fetch(ctx))
		require.NoError(t, cart.State().Err)
	})

	t.Run("remove and clear", func(t *testing.T) {
		require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: kettle}))
		require.NoError(t, cart.RemoveItem(ctx, beans))
		require.Equal(t, 1, cart.Snapshot().Len())

		require.NoError(t, cart.Clear(ctx))
		require.Zero(t, cart.Snapshot().Len())
		require.Zero(t, h.api.CartQuantity(h.userID, kettle))
	})
}

func TestCartOptimisticUpdateIsVisibleImmediately(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	beans := h.api.AddProduct("Beans", "", 1000, 10)
	h.login(t)
	cart := NewCart(h.transport)
	require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: beans}))

	h.api.Delay("PATCH /cart/items/{productId}", 200*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- cart.UpdateQuantity(ctx, beans, 4) }()

	require.Eventually(t, func() bool {
		st := cart.State()
		return st.Pending == 1 && st.Snapshot.TotalQuantity == 4
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, <-done)
	st := cart.State()
	require.Zero(t, st.Pending)
	require.Equal(t, 4, st.Snapshot.TotalQuantity)
}

func TestCartFetchReplacesLocalState(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	beans := h.api.AddProduct("Beans", "", 1000, 10)
	cart := NewCart(h.transport)

	// Guest lines are not on the server.
	require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: 42, UnitPrice: 5}))
	h.login(t)
	require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: beans}))
	require.NoError(t, cart.Fetch(ctx))

	snap := cart.Snapshot()
	require.Len(t, snap.Lines, 1)
	require.Equal(t, beans, snap.Lines[0].ProductID)
	requireConsistent(t, snap)
}

func TestCartOverlappingMutations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const patch = "PATCH /cart/items/{productId}"

	setup := func(t *testing.T) (*harness, *Cart, int64, int64) {
		t.Helper()
		h := newHarness(t)
		beans := h.api.AddProduct("Beans", "", 1000, 20)
		kettle := h.api.AddProduct("Kettle", "", 8900, 20)
		h.login(t)
		cart := NewCart(h.transport)
		require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: beans}))
		return h, cart, beans, kettle
	}

	t.Run("failed edit reverts only its own line", func(t *testing.T) {
		t.Parallel()
		h, cart, beans, kettle := setup(t)
		h.api.Delay(patch, 300*time.Millisecond)
		h.api.FailNext(patch, http.StatusInternalServerError, 1)

		done := make(chan error, 1)
		go func() { done <- cart.UpdateQuantity(ctx, beans, 7) }()
		require.Eventually(t, func() bool {
			return h.api.Calls(patch) == 1 && cart.Snapshot().TotalQuantity == 7
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: kettle}))
		require.ErrorIs(t, <-done, ErrServer)

		snap := cart.Snapshot()
		requireConsistent(t, snap)
		want := map[int64]int{beans: 1, kettle: 1}
		got := map[int64]int{}
		for _, l := range snap.Lines {
			got[l.ProductID] = l.Quantity
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("lines mismatch (-want +got):\n%s", diff)
		}
		require.Equal(t, Money(1000+8900), snap.TotalAmount)
		require.ErrorIs(t, cart.State().Err, ErrServer)
	})

	t.Run("last response to arrive wins", func(t *testing.T) {
		t.Parallel()
		h, cart, beans, kettle := setup(t)
		h.api.Delay(patch, 300*time.Millisecond)

		done := make(chan error, 1)
		go func() { done <- cart.UpdateQuantity(ctx, beans, 3) }()
		require.Eventually(t, func() bool {
			return h.api.Calls(patch) == 1 && cart.Snapshot().TotalQuantity == 3
		}, time.Second, 5*time.Millisecond)

		// Issued later, answered first: its view of the server predates the edit.
		require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: kettle}))
		mid := cart.Snapshot()
		requireConsistent(t, mid)
		line, ok := mid.Line(beans)
		require.True(t, ok)
		require.Equal(t, 1, line.Quantity)

		require.NoError(t, <-done)
		final := cart.Snapshot()
		requireConsistent(t, final)
		line, ok = final.Line(beans)
		require.True(t, ok)
		require.Equal(t, 3, line.Quantity)
		_, ok = final.Line(kettle)
		require.True(t, ok)
		require.Equal(t, Money(3*1000+8900), final.TotalAmount)
		require.Zero(t, cart.State().Pending)
	})
}
