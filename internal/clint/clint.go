/*
 * riscv-isa-sim - Core-Local Interruptor
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

// Package clint implements the core-local interruptor: mtime, one
// mtimecmp per hart, and one msip per hart.
//
//	0x0000 + 4*i   msip[i]      (32-bit, only bit 0 meaningful)
//	0x4000 + 8*i   mtimecmp[i]  (64-bit)
//	0xBFF8         mtime        (64-bit)
//	size           0xC000
package clint

import (
	"github.com/davetw/riscv-isa-sim/internal/clock"
	"github.com/davetw/riscv-isa-sim/internal/device"
	"github.com/davetw/riscv-isa-sim/internal/hart"
)

const (
	msipBase     = 0x0000
	mtimecmpBase = 0x4000
	mtimeBase    = 0xBFF8
	mtimeSize    = 8
	Size         = 0xC000
)

// Clint is the Core-Local Interruptor device. One Clint instance serves
// every hart in the machine.
type Clint struct {
	harts    hart.Harts
	freqHz   uint64
	realTime bool
	clk      clock.Source
	anchorUS int64

	mtime    uint64
	mtimecmp []uint64
}

// New creates a Clint bound to harts. When realTime is true, every load
// and store re-derives mtime from the wall clock; otherwise mtime only
// moves in response to Tick.
func New(harts hart.Harts, freqHz uint64, realTime bool, clk clock.Source) *Clint {
	c := &Clint{
		harts:    harts,
		freqHz:   freqHz,
		realTime: realTime,
		clk:      clk,
		anchorUS: clk.NowMicros(),
		mtimecmp: make([]uint64, len(harts)),
	}
	c.updateMTIP()
	return c
}

func (c *Clint) Size() uint64 { return Size }

// SetRealTime switches between wall-clock-derived and tick-driven mtime.
// Switching into real-time mode re-anchors the wall clock to the current
// virtual mtime so the transition doesn't jump.
func (c *Clint) SetRealTime(realTime bool) {
	if realTime && !c.realTime {
		c.anchorUS = c.clk.NowMicros() - int64(c.mtime*1_000_000/c.freqHz)
	}
	c.realTime = realTime
	c.resample()
}

// Tick advances virtual time by inc when not in real-time mode; it is a
// no-op otherwise (real-time mode derives mtime from the wall clock
// instead). Called by the instruction-step loop with inc equal to the
// number of instructions retired since the previous call.
func (c *Clint) Tick(inc uint64) {
	if c.realTime {
		return
	}
	c.mtime += inc
	c.updateMTIP()
}

// MTime returns the current value of mtime, sampling the wall clock first
// if running in real-time mode.
func (c *Clint) MTime() uint64 {
	c.resample()
	return c.mtime
}

// resample re-derives mtime from the wall clock when real-time mode is on,
// and always recomputes MTIP afterward. Every load and store calls this
// first, the way clint_t::increment(0) does before touching a register.
func (c *Clint) resample() {
	if c.realTime {
		diffUS := c.clk.NowMicros() - c.anchorUS
		if diffUS < 0 {
			diffUS = 0
		}
		c.mtime = uint64(diffUS) * c.freqHz / 1_000_000
	}
	c.updateMTIP()
}

func (c *Clint) updateMTIP() {
	for i, h := range c.harts {
		h.AssignMIP(hart.MIPMTIP, c.mtime >= c.mtimecmp[i])
	}
}

func (c *Clint) Load(_ hart.View, offset uint64, size int) ([]byte, bool) {
	c.resample()

	n := uint64(len(c.harts))
	switch {
	case offset < msipBase+4*n:
		if offset+uint64(size) > msipBase+4*n {
			return nil, false
		}
		snapshot := make([]byte, 4*n)
		for i, h := range c.harts {
			if h.MIP()&hart.MIPMSIP != 0 {
				snapshot[4*i] = 1
			}
		}
		return snapshot[offset-msipBase : offset-msipBase+uint64(size)], true

	case offset >= mtimecmpBase && offset < mtimecmpBase+8*n:
		if offset+uint64(size) > mtimecmpBase+8*n {
			return nil, false
		}
		raw := make([]byte, 8*n)
		for i, v := range c.mtimecmp {
			copy(raw[8*i:8*i+8], device.PutUint(v, 8))
		}
		rel := offset - mtimecmpBase
		return raw[rel : rel+uint64(size)], true

	case offset >= mtimeBase && offset+uint64(size) <= mtimeBase+mtimeSize:
		raw := device.PutUint(c.mtime, 8)
		rel := offset - mtimeBase
		return raw[rel : rel+uint64(size)], true

	default:
		return nil, false
	}
}

func (c *Clint) Store(_ hart.View, offset uint64, size int, data []byte) bool {
	n := uint64(len(c.harts))
	switch {
	case offset < msipBase+4*n:
		if offset+uint64(size) > msipBase+4*n {
			return false
		}
		c.storeMsip(offset, size, data)

	case offset >= mtimecmpBase && offset < mtimecmpBase+8*n:
		if offset+uint64(size) > mtimecmpBase+8*n {
			return false
		}
		raw := make([]byte, 8*n)
		for i, v := range c.mtimecmp {
			copy(raw[8*i:8*i+8], device.PutUint(v, 8))
		}
		rel := offset - mtimecmpBase
		copy(raw[rel:rel+uint64(size)], data)
		for i := range c.mtimecmp {
			c.mtimecmp[i] = device.GetUint(raw[8*i : 8*i+8])
		}

	case offset >= mtimeBase && offset+uint64(size) <= mtimeBase+mtimeSize:
		raw := device.PutUint(c.mtime, 8)
		rel := offset - mtimeBase
		copy(raw[rel:rel+uint64(size)], data)
		c.mtime = device.GetUint(raw)

	default:
		return false
	}

	c.resample()
	return true
}

// storeMsip honours only bit 0 of each 32-bit word the write covers;
// every other bit of the word is ignored, matching the original's
// mask-based partial update (it never reads back bits it didn't touch).
func (c *Clint) storeMsip(offset uint64, size int, data []byte) {
	n := len(c.harts)
	raw := make([]byte, 4*n)
	mask := make([]byte, 4*n)
	copy(raw[offset-msipBase:], data[:size])
	for i := 0; i < size; i++ {
		mask[offset-msipBase+uint64(i)] = 0xff
	}
	for i, h := range c.harts {
		// Only update when the write actually covers the low byte of this
		// hart's word — matches the original's "mask[i] & 0xFF" check.
		if mask[4*i] == 0 {
			continue
		}
		h.AssignMIP(hart.MIPMSIP, raw[4*i]&1 != 0)
	}
}
