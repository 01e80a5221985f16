/*
 * riscv-isa-sim - World-guard range filter
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

package wgguard

import (
	"github.com/davetw/riscv-isa-sim/internal/device"
	"github.com/davetw/riscv-isa-sim/internal/hart"
)

const filterConfigSize = 0x4

// Filter gates a downstream device's address range by world ID: a request
// is honoured only when it lies entirely inside [addr, addr+size) and the
// requesting world is either the trusted world or named in widMask.
//
// The original constructor's "wid |= 1ul << wid" against a freshly
// defaulted wid self-shadows; NewFilter instead builds the mask from the
// caller's initial world plus any explicitly supplied allowlist, which is
// the evident intent.
type Filter struct {
	addr, size uint64
	widMask    uint32
	widTrusted uint32
}

// NewFilter creates a Filter over the downstream range [addr, addr+size).
// initialWid is folded into widMask so the world active at boot is always
// allowed; extraMask ORs in any additional worlds.
func NewFilter(addr, size uint64, widTrusted, initialWid, extraMask uint32) *Filter {
	return &Filter{
		addr:       addr,
		size:       size,
		widMask:    (uint32(1) << initialWid) | extraMask,
		widTrusted: widTrusted,
	}
}

// InRange implements Guard: the request must lie entirely within the
// filter's downstream range.
func (f *Filter) InRange(addr uint64, length int) bool {
	if addr < f.addr {
		return false
	}
	end := addr + uint64(length)
	return end >= addr && end <= f.addr+f.size
}

// IsValid implements Guard. The access type is irrelevant to a Filter; it
// discriminates purely on world ID.
func (f *Filter) IsValid(reqWid uint32, _ uint64, _ int, _ device.AccessType) bool {
	if reqWid == 0 || reqWid > f.widTrusted {
		return false
	}
	return reqWid == f.widTrusted || f.widMask&(1<<reqWid) != 0
}

func (f *Filter) trusted(hv hart.View) bool {
	return hv != nil && hv.MarkerWID() == f.widTrusted
}

// Config is the filter's own control register: wid_mask at offset 0x0,
// readable/writable only by the trusted world.
func (f *Filter) Config() device.Device { return (*filterConfig)(f) }

type filterConfig Filter

func (c *filterConfig) Size() uint64 { return filterConfigSize }

func (c *filterConfig) Load(hv hart.View, offset uint64, size int) ([]byte, bool) {
	f := (*Filter)(c)
	if !f.trusted(hv) || offset != 0 || size != 4 {
		return nil, false
	}
	return device.PutUint(uint64(f.widMask), 4), true
}

func (c *filterConfig) Store(hv hart.View, offset uint64, size int, data []byte) bool {
	f := (*Filter)(c)
	if !f.trusted(hv) || offset != 0 || size != 4 {
		return false
	}
	f.widMask = uint32(device.GetUint(data))
	return true
}

var _ Guard = (*Filter)(nil)
var _ device.Device = (*filterConfig)(nil)
