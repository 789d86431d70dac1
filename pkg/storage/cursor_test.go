package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenDocs builds a collection of 10 documents with _id "doc0".."doc9" and a
// value field counting down, so insertion order and sorted order differ
func tenDocs(t *testing.T) *Collection {
	t.Helper()
	coll := NewCollection("people")
	for i := 0; i < 10; i++ {
		_, err := coll.Insert(domain.Document{
			"_id": fmt.Sprintf("doc%d", i),
			"n":   9 - i,
		})
		require.NoError(t, err)
	}
	return coll
}

func resultIDs(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i], _ = d["_id"].(string)
	}
	return out
}

func TestFetchAllReturnsMatchesInStoredOrder(t *testing.T) {
	coll := tenDocs(t)
	docs, err := coll.Query(map[string]interface{}{"n": map[string]interface{}{"$lt": 3}}).FetchAll()
	require.NoError(t, err)
	// n < 3 are the last three inserted, in insertion order
	assert.Equal(t, []string{"doc7", "doc8", "doc9"}, resultIDs(docs))
}

func TestFetchAllIsIdempotentOnceMaterialized(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(nil)

	first, err := cursor.FetchAll()
	require.NoError(t, err)

	// a write after materialization must not affect the cached results
	_, err = coll.Insert(domain.Document{"_id": "late", "n": 99})
	require.NoError(t, err)

	second, err := cursor.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, resultIDs(first), resultIDs(second))

	// a fresh cursor sees the new document
	fresh, err := coll.Query(nil).FetchAll()
	require.NoError(t, err)
	assert.Equal(t, 11, len(fresh))
}

func TestRewindDiscardsCache(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(nil)

	_, err := cursor.FetchAll()
	require.NoError(t, err)

	_, err = coll.Insert(domain.Document{"_id": "late", "n": 99})
	require.NoError(t, err)

	docs, err := cursor.Rewind().FetchAll()
	require.NoError(t, err)
	assert.Equal(t, 11, len(docs), "rewind must force a rescan")
}

func TestFetchOne(t *testing.T) {
	coll := tenDocs(t)

	doc, err := coll.Query(map[string]interface{}{"n": 5}).FetchOne()
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "doc4", doc["_id"])

	// no match yields nil without error
	doc, err = coll.Query(map[string]interface{}{"n": 123}).FetchOne()
	require.NoError(t, err)
	assert.Nil(t, doc)

	// after FetchAll, FetchOne serves from the cache
	cursor := coll.Query(nil)
	all, err := cursor.FetchAll()
	require.NoError(t, err)
	doc, err = cursor.FetchOne()
	require.NoError(t, err)
	assert.Equal(t, all[0]["_id"], doc["_id"])
}

func TestSkipLimitWindow(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(nil)

	_, err := cursor.Sort(map[string]interface{}{"n": 1})
	require.NoError(t, err)
	_, err = cursor.Skip(3)
	require.NoError(t, err)
	_, err = cursor.Limit(4)
	require.NoError(t, err)

	docs, err := cursor.FetchAll()
	require.NoError(t, err)
	// sorted by n ascending: doc9 (n=0) .. doc0 (n=9); window [3,7)
	assert.Equal(t, []string{"doc6", "doc5", "doc4", "doc3"}, resultIDs(docs))
}

func TestSkipPastEndAndUnboundedLimit(t *testing.T) {
	coll := tenDocs(t)

	cursor := coll.Query(nil)
	_, err := cursor.Skip(50)
	require.NoError(t, err)
	docs, err := cursor.FetchAll()
	require.NoError(t, err)
	assert.Empty(t, docs)

	cursor = coll.Query(nil)
	_, err = cursor.Limit(-1)
	require.NoError(t, err)
	docs, err = cursor.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, 10, len(docs))
}

func TestSkipLimitValidation(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(nil)

	_, err := cursor.Skip("three")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = cursor.Limit(nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = cursor.Limit(2.5)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	// whole floats are numbers
	_, err = cursor.Skip(3.0)
	assert.NoError(t, err)
}

func TestCountAppliesPagination(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(nil)
	_, err := cursor.Limit(4)
	require.NoError(t, err)

	count, err := cursor.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestPointLookupBypassesSortSkipLimit(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(map[string]interface{}{"_id": "doc5"})
	_, err := cursor.Sort(map[string]interface{}{"n": -1})
	require.NoError(t, err)
	_, err = cursor.Skip(3)
	require.NoError(t, err)
	_, err = cursor.Limit(0)
	require.NoError(t, err)

	docs, err := cursor.FetchAll()
	require.NoError(t, err)
	require.Equal(t, 1, len(docs))
	assert.Equal(t, "doc5", docs[0]["_id"])

	// unknown id yields the empty set
	docs, err = coll.Query(map[string]interface{}{"_id": "nope"}).FetchAll()
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLazySortDoesNotTouchCachedResults(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(nil)

	docs, err := cursor.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, "doc0", docs[0]["_id"])

	// binding a sort after materialization is lazy
	_, err = cursor.Sort(map[string]interface{}{"n": 1})
	require.NoError(t, err)
	docs, err = cursor.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, "doc0", docs[0]["_id"], "cached results must stay untouched")

	// the pending sort applies on the next materialization
	docs, err = cursor.Rewind().FetchAll()
	require.NoError(t, err)
	assert.Equal(t, "doc9", docs[0]["_id"])
}

func TestInPlaceSort(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(nil)

	// no spec and nothing fetched: state error
	_, err := cursor.Sort()
	assert.True(t, errors.Is(err, domain.ErrState))

	_, err = cursor.Sort(map[string]interface{}{"n": 1})
	require.NoError(t, err)
	docs, err := cursor.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, "doc9", docs[0]["_id"])

	// re-sort the cached results descending... still needs a spec change
	_, err = cursor.Sort(map[string]interface{}{"n": -1})
	require.NoError(t, err)
	_, err = cursor.Sort()
	require.NoError(t, err)
	docs, err = cursor.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, "doc0", docs[0]["_id"], "in-place sort physically reorders the cache")
}

func TestInPlaceSortSkipsCurrentCache(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(nil)

	_, err := cursor.Sort(map[string]interface{}{"n": -1})
	require.NoError(t, err)
	docs, err := cursor.FetchAll()
	require.NoError(t, err)
	require.Equal(t, "doc0", docs[0]["_id"])

	// materialization already applied the comparator, so a no-arg sort
	// leaves the cache alone rather than re-sorting it
	docs[0], docs[1] = docs[1], docs[0]
	_, err = cursor.Sort()
	require.NoError(t, err)
	again, err := cursor.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, "doc1", again[0]["_id"])

	// compiling a fresh comparator invalidates that state; the next
	// in-place sort reorders again
	_, err = cursor.Sort(map[string]interface{}{"n": -1})
	require.NoError(t, err)
	_, err = cursor.Sort()
	require.NoError(t, err)
	again, err = cursor.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, "doc0", again[0]["_id"])
}

func TestSortBeforePaginate(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(nil)
	_, err := cursor.Sort(map[string]interface{}{"n": -1})
	require.NoError(t, err)
	_, err = cursor.Limit(2)
	require.NoError(t, err)

	docs, err := cursor.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"doc0", "doc1"}, resultIDs(docs), "limit slices the sorted set, not the scan order")
}

func TestForEachAndMap(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(map[string]interface{}{"n": map[string]interface{}{"$gte": 7}})
	_, err := cursor.Sort(map[string]interface{}{"n": 1})
	require.NoError(t, err)

	var seen []string
	err = cursor.ForEach(func(doc domain.Document) {
		seen = append(seen, doc["_id"].(string))
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc2", "doc1", "doc0"}, seen)

	values, err := cursor.Map(func(doc domain.Document) interface{} {
		return doc["n"]
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{7, 8, 9}, values)
}

func TestHasNextNext(t *testing.T) {
	coll := NewCollection("tiny")
	for i := 0; i < 3; i++ {
		_, err := coll.Insert(domain.Document{"_id": fmt.Sprintf("d%d", i)})
		require.NoError(t, err)
	}
	cursor := coll.Query(nil)

	var walked []string
	for {
		ok, err := cursor.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		doc, err := cursor.Next()
		require.NoError(t, err)
		walked = append(walked, doc["_id"].(string))
	}
	assert.Equal(t, []string{"d0", "d1", "d2"}, walked)

	_, err := cursor.Next()
	assert.True(t, errors.Is(err, domain.ErrState))

	// rewind resets the walk
	cursor.Rewind()
	doc, err := cursor.Next()
	require.NoError(t, err)
	assert.Equal(t, "d0", doc["_id"])
}

func TestProjectionInclusion(t *testing.T) {
	coll := NewCollection("proj")
	_, err := coll.Insert(domain.Document{"_id": "a", "name": "Alice", "age": 30, "city": "Leeds"})
	require.NoError(t, err)

	docs, err := coll.Query(nil).Project(map[string]interface{}{"name": 1}).FetchAll()
	require.NoError(t, err)
	require.Equal(t, 1, len(docs))
	assert.Equal(t, domain.Document{"_id": "a", "name": "Alice"}, docs[0], "_id is included by default")

	// explicit _id exclusion alongside inclusions
	docs, err = coll.Query(nil).Project(map[string]interface{}{"name": 1, "_id": 0}).FetchAll()
	require.NoError(t, err)
	assert.Equal(t, domain.Document{"name": "Alice"}, docs[0])
}

func TestProjectionExclusion(t *testing.T) {
	coll := NewCollection("proj")
	_, err := coll.Insert(domain.Document{"_id": "a", "name": "Alice", "age": 30})
	require.NoError(t, err)

	docs, err := coll.Query(nil).Project(map[string]interface{}{"age": 0}).FetchAll()
	require.NoError(t, err)
	assert.Equal(t, domain.Document{"_id": "a", "name": "Alice"}, docs[0])
}

func TestProjectionMixedInclusionWins(t *testing.T) {
	coll := NewCollection("proj")
	_, err := coll.Insert(domain.Document{"_id": "a", "name": "Alice", "age": 30, "city": "Leeds"})
	require.NoError(t, err)

	// mixing inclusion and exclusion beyond _id: inclusion wins, exclusion
	// entries are ignored
	docs, err := coll.Query(nil).Project(map[string]interface{}{"name": 1, "age": 0}).FetchAll()
	require.NoError(t, err)
	assert.Equal(t, domain.Document{"_id": "a", "name": "Alice"}, docs[0])
}

func TestProjectionDoesNotMutateStoredDocument(t *testing.T) {
	coll := NewCollection("proj")
	_, err := coll.Insert(domain.Document{"_id": "a", "name": "Alice", "age": 30})
	require.NoError(t, err)

	_, err = coll.Query(nil).Project(map[string]interface{}{"name": 1}).FetchAll()
	require.NoError(t, err)

	stored, ok := coll.FindByID("a")
	require.True(t, ok)
	assert.Equal(t, 30, stored["age"])
}

func TestUnsupportedCursorMethods(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(nil)

	checks := map[string]error{}
	checks["batchSize"] = cursor.BatchSize(10)
	checks["close"] = cursor.Close()
	checks["comment"] = cursor.Comment("why")
	_, checks["explain"] = cursor.Explain()
	checks["hint"] = cursor.Hint("n")
	checks["maxScan"] = cursor.MaxScan(5)
	checks["maxTimeMS"] = cursor.MaxTimeMS(100)
	checks["min"] = cursor.Min(nil)
	checks["max"] = cursor.Max(nil)
	checks["noCursorTimeout"] = cursor.NoCursorTimeout()
	checks["readConcern"] = cursor.ReadConcern("local")
	checks["readPref"] = cursor.ReadPref("primary")
	checks["returnKey"] = cursor.ReturnKey()
	checks["showRecordId"] = cursor.ShowRecordId()
	checks["snapshot"] = cursor.Snapshot()
	checks["tailable"] = cursor.Tailable()
	_, checks["toArray"] = cursor.ToArray()
	_, checks["size"] = cursor.Size()
	checks["pretty"] = cursor.Pretty()
	_, checks["objsLeftInBatch"] = cursor.ObjsLeftInBatch()
	_, checks["itcount"] = cursor.Itcount()

	for method, err := range checks {
		assert.True(t, errors.Is(err, domain.ErrUnsupported), "method %s", method)
	}

	// a failed stub call leaves the cursor usable
	docs, err := cursor.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, 10, len(docs))
}

func TestSelectorCompileErrorSurfacesOnFetch(t *testing.T) {
	coll := tenDocs(t)
	cursor := coll.Query(map[string]interface{}{"n": map[string]interface{}{"$bogus": 1}})

	_, err := cursor.FetchAll()
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	_, err = cursor.FetchOne()
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	_, err = cursor.Count()
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestCompiledSelectorReuseAcrossCursors(t *testing.T) {
	coll := tenDocs(t)
	first := coll.Query(map[string]interface{}{"n": map[string]interface{}{"$gt": 6}})
	docs, err := first.FetchAll()
	require.NoError(t, err)

	// feed the compiled selector into a second cursor
	reused := coll.Query(first.selector)
	docs2, err := reused.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, resultIDs(docs), resultIDs(docs2))
}
