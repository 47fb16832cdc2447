package tasks

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"strconv"
	"testing"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
	testutil "github.com/desertthunder/chartsync/internal/testing"
)

func TestBuildIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes tagged items only", func(t *testing.T) {
		store := testutil.NewFakePlaylist(
			testutil.Tagged("i1", "v1", "beatport_track_id:100"),
			testutil.Tagged("i2", "v2", ""),
			testutil.Tagged("i3", "v3", "added by hand"),
			testutil.Tagged("i4", "v4", "note beatport_track_id:200 trailing"),
		)

		scan, err := BuildIndex(ctx, store, "PL1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := ExistingIndex{"100": "i1", "200": "i4"}
		if !reflect.DeepEqual(scan.Index, want) {
			t.Errorf("index = %v, want %v", scan.Index, want)
		}
		if scan.Total != 4 || scan.Untracked != 2 {
			t.Errorf("expected 4 total and 2 untracked, got %d and %d", scan.Total, scan.Untracked)
		}
		if len(scan.Shadowed) != 0 {
			t.Errorf("expected no shadowed items, got %v", scan.Shadowed)
		}
	})

	t.Run("empty playlist", func(t *testing.T) {
		scan, err := BuildIndex(ctx, testutil.NewFakePlaylist(), "PL1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if scan.Index == nil || len(scan.Index) != 0 {
			t.Errorf("expected empty non-nil index, got %v", scan.Index)
		}
	})

	t.Run("listing failure returns no partial index", func(t *testing.T) {
		store := testutil.NewFakePlaylist(testutil.Tagged("i1", "v1", "beatport_track_id:100"))
		store.ListErr = errors.New("page 2 failed")

		scan, err := BuildIndex(ctx, store, "PL1")
		if !errors.Is(err, shared.ErrRemoteFetch) {
			t.Fatalf("expected ErrRemoteFetch, got %v", err)
		}
		if scan != nil {
			t.Errorf("expected nil scan, got %+v", scan)
		}
	})

	// Two items carrying the same tag: the last one seen is indexed and the earlier one is
	// reported as shadowed. Whether a shadowed duplicate should also be removed is undecided;
	// today it is left in the playlist untouched.
	t.Run("duplicate tags keep the last item seen", func(t *testing.T) {
		store := testutil.NewFakePlaylist(
			testutil.Tagged("first", "v1", "beatport_track_id:100"),
			testutil.Tagged("second", "v2", "beatport_track_id:100"),
		)

		scan, err := BuildIndex(ctx, store, "PL1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if scan.Index["100"] != "second" {
			t.Errorf("expected last seen item, got %s", scan.Index["100"])
		}
		if len(scan.Shadowed) != 1 || scan.Shadowed[0].ID != "first" {
			t.Errorf("expected first item shadowed, got %v", scan.Shadowed)
		}
	})
}

func TestExistingIndexKeys(t *testing.T) {
	idx := ExistingIndex{"300": "c", "100": "a", "200": "b"}
	if got := idx.Keys(); !reflect.DeepEqual(got, []string{"100", "200", "300"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestComputeDiff(t *testing.T) {
	tt := []struct {
		name     string
		chart    []string
		existing []string
		want     Diff
	}{
		{
			name:     "add and remove",
			chart:    []string{"200", "300"},
			existing: []string{"100", "200"},
			want:     Diff{ToAdd: []string{"300"}, ToRemove: []string{"100"}},
		},
		{
			name:     "empty chart removes everything",
			chart:    nil,
			existing: []string{"100", "200"},
			want:     Diff{ToAdd: []string{}, ToRemove: []string{"100", "200"}},
		},
		{
			name:     "empty playlist adds everything",
			chart:    []string{"2", "1"},
			existing: nil,
			want:     Diff{ToAdd: []string{"1", "2"}, ToRemove: []string{}},
		},
		{
			name:     "in sync",
			chart:    []string{"1", "2"},
			existing: []string{"2", "1"},
			want:     Diff{ToAdd: []string{}, ToRemove: []string{}},
		},
		{
			name:     "duplicate chart ids collapse",
			chart:    []string{"5", "5", "6"},
			existing: []string{"6"},
			want:     Diff{ToAdd: []string{"5"}, ToRemove: []string{}},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeDiff(tc.chart, tc.existing)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ComputeDiff() = %+v, want %+v", got, tc.want)
			}
			if got.Empty() != (len(tc.want.ToAdd) == 0 && len(tc.want.ToRemove) == 0) {
				t.Errorf("Empty() = %v", got.Empty())
			}
		})
	}
}

func TestComputeDiffSetProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	randomSet := func() []string {
		n := rng.Intn(30)
		ids := make([]string, n)
		for i := range ids {
			ids[i] = strconv.Itoa(rng.Intn(40))
		}
		return ids
	}
	toSet := func(ids []string) map[string]bool {
		s := make(map[string]bool, len(ids))
		for _, id := range ids {
			s[id] = true
		}
		return s
	}
	keys := func(s map[string]bool) []string {
		out := make([]string, 0, len(s))
		for k := range s {
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	}

	for i := 0; i < 200; i++ {
		a, b := randomSet(), randomSet()
		diff := ComputeDiff(a, b)
		setA, setB := toSet(a), toSet(b)
		add, remove := toSet(diff.ToAdd), toSet(diff.ToRemove)

		common := map[string]bool{}
		for id := range setA {
			if setB[id] {
				common[id] = true
			}
		}

		for id := range add {
			if remove[id] || common[id] {
				t.Fatalf("to_add overlaps: %s (a=%v b=%v)", id, a, b)
			}
		}
		for id := range remove {
			if common[id] {
				t.Fatalf("to_remove overlaps unchanged: %s (a=%v b=%v)", id, a, b)
			}
		}

		unionA := map[string]bool{}
		for id := range add {
			unionA[id] = true
		}
		for id := range common {
			unionA[id] = true
		}
		if !reflect.DeepEqual(keys(unionA), keys(setA)) {
			t.Fatalf("to_add ∪ common != chart: %v vs %v", keys(unionA), keys(setA))
		}

		unionB := map[string]bool{}
		for id := range remove {
			unionB[id] = true
		}
		for id := range common {
			unionB[id] = true
		}
		if !reflect.DeepEqual(keys(unionB), keys(setB)) {
			t.Fatalf("to_remove ∪ common != existing: %v vs %v", keys(unionB), keys(setB))
		}
	}
}

func TestChartIDs(t *testing.T) {
	entries := []models.ChartEntry{{ID: "3"}, {ID: "1"}}
	if got := ChartIDs(entries); !reflect.DeepEqual(got, []string{"3", "1"}) {
		t.Errorf("ChartIDs() = %v", got)
	}
}
