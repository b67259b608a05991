package nsindex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKinds = []Kind{KindSingle, KindList, KindUniqueList, KindObject}

// sampleValue returns a valid Put value for kind.
func sampleValue(kind Kind, s string) Value {
	if kind == KindObject {
		return Record{"v": s}
	}
	return Text(s)
}

func newMemIndex(t *testing.T, kind Kind, d Driver) *Index[string] {
	t.Helper()
	idx, err := New[string]("index_unit_test", WithKind[string](kind), WithDriver[string](d))
	require.NoError(t, err)
	return idx
}

func TestGet_UnknownKeyIsEmpty(t *testing.T) {
	ctx := context.Background()
	want := map[Kind]Value{
		KindSingle:     Absent{},
		KindList:       List{},
		KindUniqueList: List{},
		KindObject:     Record{},
	}
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			idx := newMemIndex(t, kind, NewMemory())
			v, err := idx.Get(ctx, "aaa")
			require.NoError(t, err)
			require.NotNil(t, v)
			assert.Equal(t, want[kind], v)
		})
	}
}

func TestSingle_PutGetOverwrite(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindSingle, NewMemory())

	require.NoError(t, idx.Put(ctx, "k", Text("one")))
	require.NoError(t, idx.Put(ctx, "k", Text("two")))

	v, err := idx.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, Text("two"), v)

	// Empty text is a value, not absence.
	require.NoError(t, idx.Put(ctx, "empty", Text("")))
	v, err = idx.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, Text(""), v)
}

func TestList_MostRecentFirst(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindList, NewMemory())

	const key = "asabo"
	for _, v := range []string{"the beste1", "the beste2", "the beste3"} {
		require.NoError(t, idx.Put(ctx, key, Text(v)))
	}

	got, err := idx.GetList(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"the beste3", "the beste2", "the beste1"}, got)
}

func TestList_KeepsDuplicates(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindList, NewMemory())

	require.NoError(t, idx.Put(ctx, "k", Text("x")))
	require.NoError(t, idx.Put(ctx, "k", Text("x")))

	got, err := idx.GetList(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x"}, got)
}

func TestUniqueList_Deduplicates(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindUniqueList, NewMemory())

	require.NoError(t, idx.Put(ctx, "k", Text("a")))
	require.NoError(t, idx.Put(ctx, "k", Text("a")))

	got, err := idx.GetList(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	require.NoError(t, idx.Put(ctx, "k", Text("b")))
	got, err = idx.GetList(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got)
}

func TestUniqueList_ReadThenWrite(t *testing.T) {
	ctx := context.Background()
	mock := &mockDriver{
		lrangeFunc: func(ctx context.Context, key string) ([]string, error) {
			return []string{"present"}, nil
		},
	}
	idx := newMemIndex(t, KindUniqueList, mock)

	require.NoError(t, idx.Put(ctx, "k", Text("present")))
	assert.Equal(t, []string{"LRANGE index_unit_test:k"}, mock.getCalls())

	require.NoError(t, idx.Put(ctx, "k", Text("new")))
	assert.Equal(t, []string{
		"LRANGE index_unit_test:k",
		"LRANGE index_unit_test:k",
		"LPUSH index_unit_test:k",
	}, mock.getCalls())
}

func TestUniqueList_AtomicConcurrentPuts(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	idx, err := New[string]("ns", WithKind[string](KindUniqueList),
		WithDriver[string](mem), WithAtomicUnique[string](true))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, idx.Put(ctx, "k", Text("same")))
		}()
	}
	wg.Wait()

	got, err := idx.GetList(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"same"}, got)
}

func TestUniqueList_AtomicIgnoredWithoutPrimitive(t *testing.T) {
	ctx := context.Background()
	mock := &mockDriver{}
	idx, err := New[string]("ns", WithKind[string](KindUniqueList),
		WithDriver[string](mock), WithAtomicUnique[string](true))
	require.NoError(t, err)

	require.NoError(t, idx.Put(ctx, "k", Text("v")))
	assert.Equal(t, []string{"LRANGE ns:k", "LPUSH ns:k"}, mock.getCalls())
}

func TestObject_PutMergesFields(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindObject, NewMemory())

	require.NoError(t, idx.Put(ctx, "rec", Record{"a": "1", "b": "2"}))
	require.NoError(t, idx.Put(ctx, "rec", Record{"b": "3", "c": "4"}))

	got, err := idx.GetRecord(ctx, "rec")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "3", "c": "4"}, got)
}

func TestObject_EmptyRecordIsNoop(t *testing.T) {
	ctx := context.Background()
	mock := &mockDriver{}
	idx := newMemIndex(t, KindObject, mock)

	require.NoError(t, idx.Put(ctx, "rec", Record{}))
	assert.Empty(t, mock.getCalls())
}

func TestObject_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindObject, NewMemory())
	require.NoError(t, idx.Put(ctx, "rec", Record{"a": "1"}))

	got, err := idx.GetRecord(ctx, "rec")
	require.NoError(t, err)
	got["a"] = "changed"

	again, err := idx.GetRecord(ctx, "rec")
	require.NoError(t, err)
	assert.Equal(t, "1", again["a"])
}

func TestPut_RejectsInvalidInputWithoutStoreCall(t *testing.T) {
	ctx := context.Background()
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			mock := &mockDriver{}
			idx := newMemIndex(t, kind, mock)

			err := idx.Put(ctx, "", sampleValue(kind, "v"))
			assert.ErrorIs(t, err, ErrInvalidArgument)

			err = idx.Put(ctx, "k", nil)
			assert.ErrorIs(t, err, ErrInvalidArgument)

			var wrong Value = Record{"a": "b"}
			if kind == KindObject {
				wrong = Text("plain")
			}
			err = idx.Put(ctx, "k", wrong)
			assert.ErrorIs(t, err, ErrInvalidArgument)

			err = idx.Put(ctx, "k", List{"x"})
			assert.ErrorIs(t, err, ErrInvalidArgument)

			err = idx.Update(ctx, "k", nil)
			assert.ErrorIs(t, err, ErrInvalidArgument)

			assert.Empty(t, mock.getCalls(), "invalid input must not reach the store")
		})
	}
}

func TestGetDelete_RejectEmptyKey(t *testing.T) {
	ctx := context.Background()
	mock := &mockDriver{}
	idx := newMemIndex(t, KindList, mock)

	_, err := idx.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, idx.Delete(ctx, ""), ErrInvalidArgument)
	assert.Empty(t, mock.getCalls())
}

func TestTypedGetters_KindMismatch(t *testing.T) {
	ctx := context.Background()

	single := newMemIndex(t, KindSingle, NewMemory())
	_, err := single.GetList(ctx, "k")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = single.GetRecord(ctx, "k")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	list := newMemIndex(t, KindList, NewMemory())
	_, _, err = list.GetText(ctx, "k")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	v, found, err := newMemIndex(t, KindSingle, NewMemory()).GetText(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, v)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			idx := newMemIndex(t, kind, NewMemory())

			// Unknown key is a no-op.
			require.NoError(t, idx.Delete(ctx, "asakrassa"))

			require.NoError(t, idx.Put(ctx, "k", sampleValue(kind, "v")))
			require.NoError(t, idx.Delete(ctx, "k"))

			v, err := idx.Get(ctx, "k")
			require.NoError(t, err)
			empty, err := newMemIndex(t, kind, NewMemory()).Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, empty, v)
		})
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindList, NewMemory())

	require.NoError(t, idx.Put(ctx, "asaba", Text("ABC")))
	require.NoError(t, idx.Put(ctx, "asaba", Text("DEF")))
	require.NoError(t, idx.Update(ctx, "asaba", Text("ABC123")))

	got, err := idx.GetList(ctx, "asaba")
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC123"}, got)

	// Update on an unknown key behaves like Put.
	require.NoError(t, idx.Update(ctx, "fresh", Text("KULBANA")))
	got, err = idx.GetList(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, []string{"KULBANA"}, got)
}

func TestUpdate_ObjectReplacesRecord(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindObject, NewMemory())

	require.NoError(t, idx.Put(ctx, "rec", Record{"a": "1", "b": "2"}))
	require.NoError(t, idx.Update(ctx, "rec", Record{"c": "3"}))

	got, err := idx.GetRecord(ctx, "rec")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"c": "3"}, got)
}

func TestUpdate_PutFailureLeavesKeyDeleted(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	pushErr := errors.New("push failed")
	failing := &failingPush{Memory: mem, err: pushErr}
	idx := newMemIndex(t, KindList, failing)

	require.NoError(t, mem.LPush(ctx, "index_unit_test:k", "old"))

	err := idx.Update(ctx, "k", Text("new"))
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, pushErr)

	got, err := idx.GetList(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)
}

type failingPush struct {
	*Memory
	err error
}

func (f *failingPush) LPush(ctx context.Context, key, value string) error {
	return f.err
}

func TestSearchAndSize(t *testing.T) {
	ctx := context.Background()
	idx, err := New[string]("", WithDriver[string](NewMemory()))
	require.NoError(t, err)

	for i, k := range []string{"as", "asa", "asas", "asasas"} {
		require.NoError(t, idx.Put(ctx, k, Text(fmt.Sprintf("the beste%d", i+1))))
	}

	size, err := idx.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, size)

	keys, err := idx.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, size)

	found, err := idx.Search(ctx, "asas")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"asas", "asasas"}, found)

	found, err = idx.Search(ctx, "aaa")
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.NotNil(t, found)
}

func TestSearch_SubsetOfKeys(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindSingle, NewMemory())
	for _, k := range []string{"alpha", "alpine", "beta", "al"} {
		require.NoError(t, idx.Put(ctx, k, Text(k)))
	}

	all, err := idx.Keys(ctx)
	require.NoError(t, err)
	found, err := idx.Search(ctx, "alp")
	require.NoError(t, err)

	assert.Subset(t, all, found)
	assert.ElementsMatch(t, []string{"alpha", "alpine"}, found)
}

func TestSearch_PatternIsNamespaced(t *testing.T) {
	ctx := context.Background()
	mock := &mockDriver{
		keysFunc: func(ctx context.Context, pattern string) ([]string, error) {
			return []string{"we*rd:one", "we*rd:two", "other:x"}, nil
		},
	}
	idx, err := New[string]("we*rd", WithDriver[string](mock))
	require.NoError(t, err)

	keys, err := idx.Search(ctx, "o")
	require.NoError(t, err)
	assert.Equal(t, []string{`KEYS we\*rd:o*`}, mock.getCalls())
	assert.ElementsMatch(t, []string{"one", "two"}, keys)
}

func TestNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	a, err := New[string]("a", WithDriver[string](mem))
	require.NoError(t, err)
	ab, err := New[string]("ab", WithDriver[string](mem))
	require.NoError(t, err)
	glob, err := New[string]("a*", WithDriver[string](mem))
	require.NoError(t, err)

	require.NoError(t, a.Put(ctx, "k1", Text("v")))
	require.NoError(t, ab.Put(ctx, "k2", Text("v")))

	keys, err := a.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k1"}, keys)

	keys, err = ab.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k2"}, keys)

	keys, err = glob.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, a.Clear(ctx))
	size, err := ab.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	idx, err := New[string]("ns", WithDriver[string](NewMemory()), WithClearConcurrency[string](2))
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		require.NoError(t, idx.Put(ctx, fmt.Sprintf("key%02d", i), Text("v")))
	}
	require.NoError(t, idx.Clear(ctx))

	size, err := idx.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)

	// Clearing an empty namespace is fine.
	require.NoError(t, idx.Clear(ctx))
}

func TestSharedDriver_InstancesSeeEachOther(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	idx1 := newMemIndex(t, KindList, mem)
	idx2 := newMemIndex(t, KindList, mem)

	const key, value = "Netflix", "The Crown"
	for _, idx := range []*Index[string]{idx1, idx2} {
		got, err := idx.GetList(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	require.NoError(t, idx1.Update(ctx, key, Text(value)))

	for _, idx := range []*Index[string]{idx1, idx2} {
		got, err := idx.GetList(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []string{value}, got)
	}
}

func TestReopenIndex_AddsItems(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	const iterations = 10
	var wg sync.WaitGroup
	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx := newMemIndex(t, KindList, mem)
			assert.NoError(t, idx.Put(ctx, "asaklint", Text(fmt.Sprintf("the beste no %d", i))))
		}()
	}
	wg.Wait()

	got, err := newMemIndex(t, KindList, mem).GetList(ctx, "asaklint")
	require.NoError(t, err)
	assert.Len(t, got, iterations)
}

func TestManyItemsOnOneKey(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindList, NewMemory())

	const n = 2000
	for i := 0; i < n; i++ {
		require.NoError(t, idx.Put(ctx, "D5320", Text(fmt.Sprintf("v%d", i))))
	}

	got, err := idx.GetList(ctx, "D5320")
	require.NoError(t, err)
	assert.Len(t, got, n)

	keys, err := idx.Search(ctx, "D5320")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestComplexKey(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t, KindList, NewMemory())

	const key = `*$HDv>J7{$}s&N*+Gm=sZ@+9E!WL)!ZhT)?SofkHM^{YKE&FTADDFRErY%YDvfprAd-)[DWp6/u$9+@zFJ%1xLq{gBz+/cx(4D]H<ixour7fiuT[.AHJcZgurQAf`
	require.NoError(t, idx.Put(ctx, key, Text("val1")))

	got, err := idx.GetList(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"val1"}, got)

	keys, err := idx.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)
}

func TestGet_WrongShapeIsStoreError(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	single := newMemIndex(t, KindSingle, mem)
	list := newMemIndex(t, KindList, mem)

	require.NoError(t, single.Put(ctx, "k", Text("v")))

	_, err := list.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}
