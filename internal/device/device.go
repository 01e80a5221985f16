/*
 * riscv-isa-sim - Device bus contract
 *
 * Copyright 2026, riscv-isa-sim Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package device defines the contract every memory-mapped peripheral on
// the bus satisfies.
package device

import "github.com/davetw/riscv-isa-sim/internal/hart"

// AccessType distinguishes a store from a load/execute for permission
// checks that care about direction (world-guard PMP).
type AccessType int

const (
	AccessLoad AccessType = iota
	AccessStore
	AccessExec
)

// Device is the common trait every peripheral on the Bus satisfies. A
// false return means "refuse"; the Bus surfaces that to the caller as an
// access fault.
//
// hv identifies the hart that issued the access, so world-guarded devices
// can consult the hart's current marker without reaching through a
// package-level global.
type Device interface {
	Load(hv hart.View, offset uint64, size int) (data []byte, ok bool)
	Store(hv hart.View, offset uint64, size int, data []byte) (ok bool)
}

// Sized is implemented by devices with a fixed declared register-window
// size. The Bus itself takes the size as an AddDevice argument; callers
// read it from Size() when registering a device.
type Sized interface {
	Size() uint64
}

// PutUint encodes v as size little-endian bytes (size is 1, 2, 4, or 8).
func PutUint(v uint64, size int) []byte {
	b := make([]byte, size)
	for i := 0; i < size; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// GetUint decodes size little-endian bytes (size is 1, 2, 4, or 8).
func GetUint(b []byte) uint64 {
	var v uint64
	for i := 0; i < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
