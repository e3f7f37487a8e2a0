package util

import "sync"

// DefaultChunkCap is the capacity of pooled read buffers.  It matches
// the largest chunk size the pipeline pulls in a single socket read.
const DefaultChunkCap = 4096

// chunkPool provides reusable byte buffers for socket reads, reducing
// GC pressure on the per-connection read loop.
var chunkPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultChunkCap)
		return &buf
	},
}

// GetChunk retrieves a read buffer from the pool.  Callers must return
// it with [PutChunk] when the connection's reader is done with it.
func GetChunk() *[]byte {
	return chunkPool.Get().(*[]byte)
}

// PutChunk returns a buffer to the pool for reuse.
func PutChunk(buf *[]byte) {
	if buf == nil {
		return
	}
	chunkPool.Put(buf)
}
