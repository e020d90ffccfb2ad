// Package pool provides generic object pooling.
//
// Pool[T] builds on sync.Pool with type safety, a reset hook that runs
// before an object is reused, and allocation counters that show how well
// the pool is working:
//
//	p := pool.New(
//	    func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
//	    func(b *bytes.Buffer) { b.Reset() },
//	)
//	buf := p.Get()
//	defer p.Put(buf)
//
//	allocated, inUse, hits := p.Stats()
//
// The JSON helpers in pkg/json pool their encode buffers this way.
package pool
