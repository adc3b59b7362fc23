package canvas

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

func TestPlace_ResetsOwnership(t *testing.T) {
	store := newMemStore()
	store.put("3-4", "#000000", owner("u1"))
	svc := newTestService(store, &fakeProcessor{})

	n, err := svc.Place(context.Background(), "admin", []Placement{{Row: 3, Col: 4, Color: "#ff00ff"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p := store.pixel(t, "3-4")
	assert.Equal(t, "#ff00ff", p.Color)
	assert.Nil(t, p.OwnerID)
}

func TestPlace_InvalidEntryRejectsWholeBatch(t *testing.T) {
	store := newMemStore()
	store.put("0-0", "#000000", owner("u1"))
	svc := newTestService(store, &fakeProcessor{})

	_, err := svc.Place(context.Background(), "admin", []Placement{
		{Row: 0, Col: 0, Color: "#ff00ff"},
		{Row: 1, Col: 1, Color: "red"},
		{Row: 2, Col: 2, Color: "#00ff00"},
	})
	assert.ErrorIs(t, err, pixel.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "entry 1")
	assert.Equal(t, 0, store.writes)
	assert.Equal(t, "#000000", store.pixel(t, "0-0").Color)
}

func TestPlace_Validation(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeProcessor{})
	ctx := context.Background()

	tests := map[string][]Placement{
		"empty":        {},
		"negative row": {{Row: -1, Col: 0, Color: "#ffffff"}},
		"col too big":  {{Row: 0, Col: 10, Color: "#ffffff"}},
		"short color":  {{Row: 0, Col: 0, Color: "#fff"}},
		"no hash":      {{Row: 0, Col: 0, Color: "ffffff"}},
	}
	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Place(ctx, "admin", entries)
			assert.ErrorIs(t, err, pixel.ErrInvalidArgument)
		})
	}

	_, err := svc.Place(ctx, "", []Placement{{Row: 0, Col: 0, Color: "#ffffff"}})
	assert.ErrorIs(t, err, pixel.ErrUnauthenticated)
}

func TestPlace_DuplicatesLastWins(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeProcessor{})

	n, err := svc.Place(context.Background(), "admin", []Placement{
		{Row: 1, Col: 1, Color: "#111111"},
		{Row: 2, Col: 2, Color: "#222222"},
		{Row: 1, Col: 1, Color: "#333333"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "#333333", store.pixel(t, "1-1").Color)
	assert.Equal(t, "#222222", store.pixel(t, "2-2").Color)
}

func TestPlace_FullGridInParallel(t *testing.T) {
	store := newMemStore()
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			store.put(fmt.Sprintf("%d-%d", r, c), "#000000", owner("u1"))
		}
	}
	svc := newTestService(store, &fakeProcessor{})

	var entries []Placement
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			entries = append(entries, Placement{Row: r, Col: c, Color: "#ABCDEF"})
		}
	}

	n, err := svc.Place(context.Background(), "admin", entries)
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	all, err := svc.ListPixels(context.Background())
	require.NoError(t, err)
	for id, p := range all {
		assert.Equal(t, "#abcdef", p.Color, id)
		assert.Nil(t, p.OwnerID, id)
	}
}

func TestPlace_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "4-4"
	svc := newTestService(store, &fakeProcessor{})

	_, err := svc.Place(context.Background(), "admin", []Placement{
		{Row: 4, Col: 4, Color: "#ffffff"},
		{Row: 5, Col: 5, Color: "#ffffff"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "place 4-4")
}
