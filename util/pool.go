package util

import "sync"

// readChunks recycles the socket read chunks of closed streams, so a
// burst of short-lived status pings does not allocate 32 KiB each.
var readChunks = sync.Pool{ //nolint:gochecknoglobals
	New: func() any {
		b := make([]byte, DefaultBufSize)
		return &b
	},
}

// GetBuf returns a DefaultBufSize read chunk. Return it with [PutBuf].
func GetBuf() *[]byte {
	return readChunks.Get().(*[]byte)
}

// PutBuf recycles buf. A buffer whose capacity no longer matches, because
// the caller replaced it, is left to the garbage collector.
func PutBuf(buf *[]byte) {
	if buf == nil || cap(*buf) != DefaultBufSize {
		return
	}
	*buf = (*buf)[:DefaultBufSize]
	readChunks.Put(buf)
}
