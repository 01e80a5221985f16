/*
 * riscv-isa-sim - Address-indexed device bus
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

// Package bus routes hart-issued loads and stores to the device whose
// declared base address is the greatest one not exceeding the request.
package bus

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/davetw/riscv-isa-sim/internal/device"
	"github.com/davetw/riscv-isa-sim/internal/hart"
)

type entry struct {
	base uint64
	size uint64
	dev  device.Device
	name string
}

// Bus is a sparse mapping from base address to owning device. No two
// registered devices may overlap; AddDevice rejects attempts that would
// overlap an existing registration.
type Bus struct {
	entries []entry // kept sorted by base
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

// AddDevice registers dev at base, with the given declared register-window
// size. name is used only for log messages and error text. Overlap with
// an already-registered device is a configuration error.
func (b *Bus) AddDevice(base, size uint64, dev device.Device, name string) error {
	if size == 0 {
		return fmt.Errorf("bus: device %q at %#x has zero size", name, base)
	}
	i := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].base >= base })
	if i < len(b.entries) && b.entries[i].base == base {
		return fmt.Errorf("bus: device %q overlaps %q at base %#x", name, b.entries[i].name, base)
	}
	// Overlap with the predecessor.
	if i > 0 {
		prev := b.entries[i-1]
		if prev.base+prev.size > base {
			return fmt.Errorf("bus: device %q at %#x overlaps %q at %#x..%#x", name, base, prev.name, prev.base, prev.base+prev.size)
		}
	}
	// Overlap with the successor.
	if i < len(b.entries) {
		next := b.entries[i]
		if base+size > next.base {
			return fmt.Errorf("bus: device %q at %#x..%#x overlaps %q at %#x", name, base, base+size, next.name, next.base)
		}
	}
	e := entry{base: base, size: size, dev: dev, name: name}
	b.entries = append(b.entries, entry{})
	copy(b.entries[i+1:], b.entries[i:])
	b.entries[i] = e
	slog.Debug("bus: device registered", "name", name, "base", fmt.Sprintf("%#x", base), "size", size)
	return nil
}

// findDevice returns the entry whose base is the greatest base <= addr,
// or ok=false if addr is below every registered device.
func (b *Bus) findDevice(addr uint64) (entry, bool) {
	i := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].base > addr })
	if i == 0 {
		return entry{}, false
	}
	return b.entries[i-1], true
}

// Load dispatches a load to the device whose range covers [addr, addr+size).
// A false return means "refuse" — address unmapped, or the access spans
// past the end of the target device's declared size.
func (b *Bus) Load(hv hart.View, addr uint64, size int) ([]byte, bool) {
	e, ok := b.findDevice(addr)
	if !ok {
		return nil, false
	}
	offset := addr - e.base
	if offset+uint64(size) > e.size {
		return nil, false
	}
	return e.dev.Load(hv, offset, size)
}

// Store dispatches a store the same way Load does.
func (b *Bus) Store(hv hart.View, addr uint64, size int, data []byte) bool {
	e, ok := b.findDevice(addr)
	if !ok {
		return false
	}
	offset := addr - e.base
	if offset+uint64(size) > e.size {
		return false
	}
	return e.dev.Store(hv, offset, size, data)
}

// Find returns the device registered at exactly base, or nil.
func (b *Bus) Find(base uint64) device.Device {
	for _, e := range b.entries {
		if e.base == base {
			return e.dev
		}
	}
	return nil
}

// Replace swaps the device handle registered at exactly base, keeping its
// declared size. Used at machine-construction time to insert a world-guard
// proxy in place of the raw device it wraps, once the guard configuration
// naming that device has been read.
func (b *Bus) Replace(base uint64, dev device.Device) error {
	for i := range b.entries {
		if b.entries[i].base == base {
			b.entries[i].dev = dev
			return nil
		}
	}
	return fmt.Errorf("bus: no device registered at base %#x to replace", base)
}
