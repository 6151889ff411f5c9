// Package config defines the environment-driven knobs of the ember
// runtime, parsed once at process startup by internal/cli and threaded
// into the vm.Config the interpreter is built with.
package config

import "github.com/caarlos0/env/v6"

// Options holds every EMBER_-prefixed environment variable the runtime
// consults. Zero-value Options is a usable (if conservative) default; use
// Load to populate it from the environment.
type Options struct {
	// GCStressTest makes every collection check run a full cycle rather
	// than only once bytesAllocated exceeds nextGC. The VM checks after
	// allocating a closure, class, instance, bound method or concatenated
	// string; allocations by the compiler, by upvalue capture and by
	// interning-table growth never trigger a collection.
	GCStressTest bool `env:"EMBER_GC_STRESS"`

	// GCLogVerbose emits one line to stderr per collection cycle.
	GCLogVerbose bool `env:"EMBER_GC_LOG"`

	// GCHeapGrowFactor scales bytesAllocated into the next collection
	// threshold after a cycle.
	GCHeapGrowFactor float64 `env:"EMBER_GC_GROW_FACTOR" envDefault:"2.0"`

	// MaxStackSlots bounds the VM's value stack: 64 call frames times
	// 256 slots each, 16,384 slots total by default.
	MaxStackSlots int `env:"EMBER_MAX_STACK" envDefault:"16384"`

	// MaxCallFrames bounds the VM's call-frame array.
	MaxCallFrames int `env:"EMBER_MAX_FRAMES" envDefault:"64"`
}

// Load reads Options from the process environment, applying the
// envDefault tags for anything unset.
func Load() (Options, error) {
	var o Options
	if err := env.Parse(&o); err != nil {
		return Options{}, err
	}
	return o, nil
}
