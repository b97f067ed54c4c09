/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/julienschmidt/httprouter"
)

// Lookup profiles exposed under /pprof/<name>.
var namedProfiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// Sampling rates applied when profiling is enabled. The block and mutex
// profiles stay empty unless these are non-zero.
const (
	blockProfileRate     = 10_000 // one sample per 10µs blocked
	mutexProfileFraction = 100
)

func registerProfileHandlers(cfg *Config, mux *httprouter.Router) {
	runtime.SetBlockProfileRate(blockProfileRate)
	runtime.SetMutexProfileFraction(mutexProfileFraction)

	for _, name := range namedProfiles {
		mux.Handler(http.MethodGet, cfg.prefix+"/pprof/"+name, pprof.Handler(name))
	}

	for name, handler := range map[string]http.HandlerFunc{
		"cmdline": pprof.Cmdline,
		"profile": pprof.Profile,
		"symbol":  pprof.Symbol,
		"trace":   pprof.Trace,
	} {
		mux.Handler(http.MethodGet, cfg.prefix+"/pprof/"+name, handler)
	}

	logf(cfg, "START: Profiling endpoints enabled at %s/pprof/", cfg.prefix)
}
