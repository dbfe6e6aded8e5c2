// Package cmap provides a sharded concurrent map.
//
// Keys are spread over a power-of-two number of shards by maphash, each
// with its own RWMutex. All visits one shard at a time, so a loop sees a
// consistent view of each shard but not of the whole map.
//
//	m := cmap.New[ulid.ULID, *session.Session]()
//	m.SetIfAbsent(id, s)
//	for id, s := range m.All() { ... }
package cmap
