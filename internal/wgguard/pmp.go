/*
 * riscv-isa-sim - World-guard physical memory protection
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

const (
	pageSize    = 4096
	blockStride = 0x18

	blockPermOff      = 0x00
	blockBasePageOff  = 0x04
	blockPageCountOff = 0x0C
	blockLockOff      = 0x14
)

// block is one PMP capability: a page range plus a per-world read/write
// permission bitmap. For world w, bits perm[2w+1:2w] encode {read, write}
// (bit 1 = read, bit 0 = write). The original's load/store branches all
// touch the same perm sub-field regardless of offset; this lays the four
// sub-fields out at their intended, independently addressable offsets.
type block struct {
	perm      uint32
	basePage  uint32
	pageCount uint32
	lock      uint32
}

func (b *block) covers(addr uint64, length int) bool {
	if b.pageCount == 0 {
		return false
	}
	start := uint64(b.basePage) * pageSize
	end := start + uint64(b.pageCount)*pageSize
	reqEnd := addr + uint64(length)
	return addr >= start && reqEnd >= addr && reqEnd <= end
}

// grants reports whether this block gives world wid the permission bit
// needed for at (bit 0 = write, bit 1 = read; load and execute both need
// the read bit).
func (b *block) grants(wid uint32, at device.AccessType) bool {
	bit := uint32(1) // read
	if at == device.AccessStore {
		bit = 0
	}
	return b.perm&(1<<(2*wid+bit)) != 0
}

// PMP is an array of capability blocks gating accesses by world ID over a
// shifted, page-granular address range. Only the trusted world may read or
// write the block registers; a block with lock != 0 refuses writes.
type PMP struct {
	blocks     []block
	widTrusted uint32
}

// NewPMP creates a PMP with numBlocks capability slots, all initially
// zeroed (no coverage, deny by default).
func NewPMP(numBlocks int, widTrusted uint32) *PMP {
	return &PMP{blocks: make([]block, numBlocks), widTrusted: widTrusted}
}

func (p *PMP) Size() uint64 { return uint64(len(p.blocks)) * blockStride }

// InRange implements Guard. PMP coverage is entirely a function of whether
// some block covers the request, which IsValid already checks; a PMP
// itself has no separate fixed address window the way a Filter does.
func (p *PMP) InRange(uint64, int) bool { return true }

// IsValid implements Guard: the trusted world bypasses block checks
// entirely; every other world needs some block that fully covers the
// request and grants the permission bit for at.
func (p *PMP) IsValid(reqWid uint32, addr uint64, length int, at device.AccessType) bool {
	if reqWid == p.widTrusted {
		return true
	}
	if reqWid == 0 || reqWid > p.widTrusted {
		return false
	}
	for i := range p.blocks {
		b := &p.blocks[i]
		if b.covers(addr, length) && b.grants(reqWid, at) {
			return true
		}
	}
	return false
}

func (p *PMP) trusted(hv hart.View) bool {
	return hv != nil && hv.MarkerWID() == p.widTrusted
}

// Load implements device.Device for the PMP's own block-register window.
func (p *PMP) Load(hv hart.View, offset uint64, size int) ([]byte, bool) {
	if !p.trusted(hv) || size != 4 {
		return nil, false
	}
	idx := int(offset / blockStride)
	if idx >= len(p.blocks) {
		return nil, false
	}
	b := &p.blocks[idx]
	switch offset % blockStride {
	case blockPermOff:
		return device.PutUint(uint64(b.perm), 4), true
	case blockBasePageOff:
		return device.PutUint(uint64(b.basePage), 4), true
	case blockPageCountOff:
		return device.PutUint(uint64(b.pageCount), 4), true
	case blockLockOff:
		return device.PutUint(uint64(b.lock), 4), true
	default:
		return nil, false
	}
}

// Store implements device.Device. A locked block refuses every write,
// including to its own lock field.
func (p *PMP) Store(hv hart.View, offset uint64, size int, data []byte) bool {
	if !p.trusted(hv) || size != 4 {
		return false
	}
	idx := int(offset / blockStride)
	if idx >= len(p.blocks) {
		return false
	}
	b := &p.blocks[idx]
	if b.lock != 0 {
		return false
	}
	v := uint32(device.GetUint(data))
	switch offset % blockStride {
	case blockPermOff:
		b.perm = v
	case blockBasePageOff:
		b.basePage = v
	case blockPageCountOff:
		b.pageCount = v
	case blockLockOff:
		b.lock = v
	default:
		return false
	}
	return true
}

var _ Guard = (*PMP)(nil)
var _ device.Device = (*PMP)(nil)
