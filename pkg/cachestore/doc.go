/*
Package cachestore holds values that scripts share across runs.

Scripts write with the setcache helper and read with getcache. Two backends
implement Store: Memory keeps values in process, Redis shares them between
engine instances through a go-redis UniversalClient.

	store := cachestore.NewMemory(cachestore.MemoryConfig{TTL: time.Minute})
	defer store.Close()

	_ = store.Set(ctx, "fuel", 0.42)
	v, ok, err := store.Get(ctx, "fuel")

Redis values are msgpack encoded. Numbers therefore come back as the
smallest msgpack integer or float type that holds them.
*/
package cachestore
