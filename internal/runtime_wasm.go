//go:build wasm

package internal

import "sync"

var once sync.Once
var globalRuntime *Runtime

func GetRuntime() *Runtime {
	once.Do(func() {
		globalRuntime = NewRuntime()
	})

	return globalRuntime
}

func LookupRuntime() *Runtime {
	return GetRuntime()
}

// ReleaseRuntime is a no-op: wasm runs a single goroutine-agnostic runtime.
func ReleaseRuntime() {}
