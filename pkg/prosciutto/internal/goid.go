package internal

import (
	"bytes"
	"runtime"
	"strconv"
)

// GoroutineID returns the id of the calling goroutine, parsed from the
// runtime stack header ("goroutine 42 [running]:"). Only used to tell whether
// a call is running on the UI loop; never for anything else.
func GoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
