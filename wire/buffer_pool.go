package wire

import (
	"bytes"
	"sync"
)

// MaxPooledBuffer caps the size of buffers returned to the pool; anything
// larger is left for the GC to prevent the pool from pinning large slabs.
const MaxPooledBuffer = 1024 * 1024

// bufferPool reuses byte buffers across frame and payload encoding to
// reduce allocations on the write path.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves a reset buffer from the pool.
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > MaxPooledBuffer {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
