// Copyright 2025 SpeechBrain-Go. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
package cpu

import (
	internalcpu "github.com/whettenr/speechbrain/internal/backend/cpu"
	"github.com/whettenr/speechbrain/internal/tensor"
)

// Backend is the CPU compute backend.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend satisfies the tensor.Backend interface.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend with parallel execution enabled.
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates a CPU backend that runs single-threaded.
func NewSequential() *Backend {
	return internalcpu.NewSequential()
}
