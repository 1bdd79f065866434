package main

import (
	"bytes"
	"sync"
)

type syncWriter struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.buf.String()
}
