// Package nsindex provides namespaced indexes over a Redis-style key-value store.
//
// # Overview
//
// An Index binds a namespace, a storage Kind and a Driver. Every application key
// is prefixed with the namespace before it reaches the store, and the prefix is
// stripped again from the keys that Search and Keys return. The index keeps no
// data of its own, so any number of indexes may share one connection and see
// each other's writes.
//
// # Kinds
//
//	KindSingle      one string per key               (SET / GET)
//	KindList        strings, most recent first       (LPUSH / LRANGE)
//	KindUniqueList  KindList without repeated values (LRANGE + LPUSH)
//	KindObject      field -> string record           (HSET / HGETALL)
//
// Values are one of Text, List, Record or Absent. Put takes Text, or Record for
// KindObject; Get returns the shape of the index's kind.
//
// # Quick Start
//
//	idx, err := nsindex.Open[string](ctx, nsindex.Config{
//	    Host:      "localhost",
//	    Port:      6379,
//	    IndexType: "strings",
//	    Namespace: "photos",
//	})
//	if err != nil {
//	    return err
//	}
//	defer idx.Close()
//
//	idx.Put(ctx, "2017", nsindex.Text("beach.jpg"))
//	idx.Put(ctx, "2017", nsindex.Text("snow.jpg"))
//	v, _ := idx.GetList(ctx, "2017") // [snow.jpg beach.jpg]
//
// Sharing a connection:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	a, _ := nsindex.Open[string](ctx, nsindex.Config{Client: rdb, Namespace: "ns"})
//	b, _ := nsindex.Open[string](ctx, nsindex.Config{Client: rdb, Namespace: "ns"})
//
// Tests and tools can run without a server through the in-memory driver:
//
//	idx, _ := nsindex.New[string]("ns", nsindex.WithDriver[string](nsindex.NewMemory()))
//
// # Consistency
//
// Nothing spans more than one store command except Update (Delete then Put),
// Clear (Keys then concurrent Deletes) and KindUniqueList puts (read, then
// push when missing). Two concurrent unique puts of one value may both push
// it; WithAtomicUnique(true) closes that gap on drivers implementing
// UniquePusher.
//
// # Error Handling
//
//	ErrConfiguration    bad kind or config, at construction
//	ErrInvalidArgument  empty key, nil value, wrong value shape; no store call made
//	ErrStore            wraps any driver failure; the cause stays reachable
//
// Unknown keys are never an error.
package nsindex
