/*
 * riscv-isa-sim - World-guard downstream proxy
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

// Guard is the policy a Filter or PMP applies to a downstream access: does
// the request fall within the range this guard is willing to consider, and
// if so is it authorized for the requesting world.
type Guard interface {
	InRange(addr uint64, length int) bool
	IsValid(reqWid uint32, addr uint64, length int, at device.AccessType) bool
}

// Proxy sits on the bus in place of a downstream device, consulting a
// Guard before forwarding. It is the shared shape behind "a load/store to
// the filtered device proceeds only when in_range ∧ is_valid" for both
// Filter and PMP. base is the Proxy's own bus address, needed to turn the
// bus-rebased offset back into the absolute address a PMP block or
// filter range is expressed in terms of.
type Proxy struct {
	base       uint64
	guard      Guard
	downstream device.Device
}

// NewProxy wraps downstream behind guard. base must equal the address this
// Proxy is registered at on the Bus.
func NewProxy(base uint64, guard Guard, downstream device.Device) *Proxy {
	return &Proxy{base: base, guard: guard, downstream: downstream}
}

func (p *Proxy) Load(hv hart.View, offset uint64, size int) ([]byte, bool) {
	wid := uint32(0)
	if hv != nil {
		wid = hv.MarkerWID()
	}
	addr := p.base + offset
	if !p.guard.InRange(addr, size) || !p.guard.IsValid(wid, addr, size, device.AccessLoad) {
		return nil, false
	}
	return p.downstream.Load(hv, offset, size)
}

func (p *Proxy) Store(hv hart.View, offset uint64, size int, data []byte) bool {
	wid := uint32(0)
	if hv != nil {
		wid = hv.MarkerWID()
	}
	addr := p.base + offset
	if !p.guard.InRange(addr, size) || !p.guard.IsValid(wid, addr, size, device.AccessStore) {
		return false
	}
	return p.downstream.Store(hv, offset, size, data)
}

func (p *Proxy) Size() uint64 {
	if sz, ok := p.downstream.(device.Sized); ok {
		return sz.Size()
	}
	return 0
}

var _ device.Device = (*Proxy)(nil)
