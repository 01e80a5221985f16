/*
 * riscv-isa-sim - Hart state shared with devices
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

// Package hart models the slice of processor state that MMIO devices are
// allowed to touch: the per-hart interrupt-pending bits and the bound
// world-guard marker. The simulator owns the Hart values; devices only
// ever receive a View or a narrow mutation capability, never the CPU
// itself.
package hart

// MIP bit positions, matching the RISC-V privileged spec. The core only
// ever sets or clears the bits it owns: CLINT owns MSIP/MTIP, PLIC owns
// MEIP/SEIP.
const (
	MIPMSIP uint32 = 1 << 3
	MIPMTIP uint32 = 1 << 7
	MIPSEIP uint32 = 1 << 9
	MIPMEIP uint32 = 1 << 11
)

// Marker is the minimal read surface of a world-guard marker register
// that a Hart needs to expose to downstream devices. The concrete type
// lives in package wgguard; defined here as an interface to avoid an
// import cycle between hart and wgguard.
type Marker interface {
	WID() uint32
}

// View is a read-only handle to a hart's identity and current world
// marker. Devices receive a View, never a *Hart, so they cannot mutate
// anything but the MIP bits they're explicitly handed a setter for.
type View interface {
	ID() int
	MarkerWID() uint32
}

// Hart is the simulator's own record for one hart. Device Load/Store
// calls only receive it as a View; the CLINT and PLIC hold the Harts
// vector so they can set and clear their own MIP bits.
type Hart struct {
	id     int
	mip    uint32
	marker Marker
}

// New creates a Hart with the given identity. BindMarker attaches its
// world-guard marker once that device exists (construction order: harts
// first, then the marker devices that reference them).
func New(id int) *Hart {
	return &Hart{id: id}
}

func (h *Hart) ID() int { return h.id }

// MarkerWID returns the hart's current world ID, or 0 if no marker is
// bound yet.
func (h *Hart) MarkerWID() uint32 {
	if h.marker == nil {
		return 0
	}
	return h.marker.WID()
}

// BindMarker attaches the world-guard marker that tracks this hart's
// current world ID.
func (h *Hart) BindMarker(m Marker) {
	h.marker = m
}

// MIP returns the hart's current interrupt-pending bits.
func (h *Hart) MIP() uint32 { return h.mip }

// SetMIP sets bits in mask, unconditionally of their previous value.
func (h *Hart) SetMIP(mask uint32) { h.mip |= mask }

// ClearMIP clears bits in mask.
func (h *Hart) ClearMIP(mask uint32) { h.mip &^= mask }

// AssignMIP sets or clears mask depending on level, leaving every other
// bit untouched. This is the shape CLINT/PLIC actually want: "MTIP(i) :=
// mtime >= mtimecmp[i]" regardless of what it was a moment ago.
func (h *Hart) AssignMIP(mask uint32, level bool) {
	if level {
		h.SetMIP(mask)
	} else {
		h.ClearMIP(mask)
	}
}

// Harts is the vector of harts the simulator owns, passed by shared
// read-only handle to devices that need to look a hart up by ID (the
// CLINT and PLIC address every hart by index; world-guard devices only
// ever touch the single hart that issued the access, via View).
type Harts []*Hart

// ByID returns the hart with the given ID, or nil if out of range.
func (hs Harts) ByID(id int) *Hart {
	if id < 0 || id >= len(hs) {
		return nil
	}
	return hs[id]
}

// Len is a convenience wrapper so callers don't need to know Harts is a
// slice under the hood.
func (hs Harts) Len() int { return len(hs) }
