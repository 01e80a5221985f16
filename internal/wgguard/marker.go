/*
 * riscv-isa-sim - World-guard marker register
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

// Package wgguard implements the world-guard access-control layer: the
// per-hart marker register, address-range filters, and PMP capability
// blocks that gate downstream device accesses by world ID.
package wgguard

import (
	"github.com/davetw/riscv-isa-sim/internal/device"
	"github.com/davetw/riscv-isa-sim/internal/hart"
)

const markerSize = 0x8

// Marker is a per-hart world-ID register with a write-once lock. Once lock
// is set non-zero, every subsequent write to wid or lock is rejected.
// Marker implements hart.Marker so a Hart can read its current world ID.
type Marker struct {
	wid        uint32
	lock       uint32
	widTrusted uint32
}

// NewMarker creates a Marker whose initial world ID is wid and whose
// associated hart may only reach wgguard devices (itself, filters, PMPs
// configured with the same widTrusted) while its own marker equals
// widTrusted.
func NewMarker(wid, widTrusted uint32) *Marker {
	return &Marker{wid: wid, widTrusted: widTrusted}
}

// WID implements hart.Marker.
func (m *Marker) WID() uint32 { return m.wid }

func (m *Marker) Size() uint64 { return markerSize }

// trusted reports whether hv's current world matches the world this
// marker (and its siblings configured with the same widTrusted) requires
// to touch guard registers.
func (m *Marker) trusted(hv hart.View) bool {
	return hv != nil && hv.MarkerWID() == m.widTrusted
}

func (m *Marker) Load(hv hart.View, offset uint64, size int) ([]byte, bool) {
	if !m.trusted(hv) || size != 4 {
		return nil, false
	}
	switch offset {
	case 0x0:
		return device.PutUint(uint64(m.wid), 4), true
	case 0x4:
		return device.PutUint(uint64(m.lock), 4), true
	default:
		return nil, false
	}
}

func (m *Marker) Store(hv hart.View, offset uint64, size int, data []byte) bool {
	if !m.trusted(hv) || size != 4 {
		return false
	}
	switch offset {
	case 0x0:
		if m.lock != 0 {
			return false
		}
		m.wid = uint32(device.GetUint(data))
		return true
	case 0x4:
		if m.lock != 0 {
			return false
		}
		m.lock = uint32(device.GetUint(data))
		return true
	default:
		return false
	}
}

var _ device.Device = (*Marker)(nil)
var _ hart.Marker = (*Marker)(nil)
