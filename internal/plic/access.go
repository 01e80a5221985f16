/*
 * riscv-isa-sim - PLIC register-window dispatch
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

package plic

import (
	"github.com/davetw/riscv-isa-sim/internal/device"
	"github.com/davetw/riscv-isa-sim/internal/hart"
)

// Load implements device.Device. All PLIC accesses must be 4-byte words
// at a 4-byte-aligned offset; anything else refuses.
func (p *Plic) Load(_ hart.View, offset uint64, size int) ([]byte, bool) {
	if offset&0x3 != 0 || size != 4 {
		return nil, false
	}

	switch {
	case offset >= p.priorityBase && offset < p.priorityBase+4*uint64(p.numSources+1):
		irq := (offset - p.priorityBase) / 4
		return device.PutUint(uint64(p.sourcePriority[irq]), 4), true

	case offset >= p.pendingBase && offset < p.pendingBase+4*uint64(p.bitfieldWords):
		w := (offset - p.pendingBase) / 4
		return device.PutUint(uint64(p.pending[w]), 4), true

	case offset >= p.enableBase && offset < p.enableBase+uint64(len(p.addrConfig))*p.enableStride:
		addrid := (offset - p.enableBase) / p.enableStride
		wordID := ((offset - p.enableBase) % p.enableStride) / 4
		if wordID >= uint64(p.bitfieldWords) {
			return nil, false
		}
		return device.PutUint(uint64(p.enable[addrid*uint64(p.bitfieldWords)+wordID]), 4), true

	case offset >= p.contextBase && offset < p.contextBase+uint64(len(p.addrConfig))*p.contextStride:
		addrid := (offset - p.contextBase) / p.contextStride
		reg := (offset - p.contextBase) % p.contextStride
		switch reg {
		case 0:
			return device.PutUint(uint64(p.targetPriority[addrid]), 4), true
		case 4:
			return device.PutUint(uint64(p.Claim(uint32(addrid))), 4), true
		default:
			return nil, false
		}

	default:
		return nil, false
	}
}

// Store implements device.Device.
func (p *Plic) Store(_ hart.View, offset uint64, size int, data []byte) bool {
	if offset&0x3 != 0 || size != 4 {
		return false
	}
	value := uint32(device.GetUint(data))

	switch {
	case offset >= p.priorityBase && offset < p.priorityBase+4*uint64(p.numSources+1):
		irq := (offset - p.priorityBase) / 4
		if irq == 0 {
			// The reserved source-0 slot exists in the window but is inert.
			return true
		}
		p.sourcePriority[irq] = value & 0x7 // clamp to 3 bits
		p.update()
		return true

	case offset >= p.pendingBase && offset < p.pendingBase+4*uint64(p.bitfieldWords):
		// Pending is read-only from the bus; only SetPending (called by
		// device models) may change it.
		return false

	case offset >= p.enableBase && offset < p.enableBase+uint64(len(p.addrConfig))*p.enableStride:
		addrid := (offset - p.enableBase) / p.enableStride
		wordID := ((offset - p.enableBase) % p.enableStride) / 4
		if wordID >= uint64(p.bitfieldWords) {
			return false
		}
		p.enable[addrid*uint64(p.bitfieldWords)+wordID] = value
		p.update()
		return true

	case offset >= p.contextBase && offset < p.contextBase+uint64(len(p.addrConfig))*p.contextStride:
		addrid := (offset - p.contextBase) / p.contextStride
		reg := (offset - p.contextBase) % p.contextStride
		switch reg {
		case 0:
			if value <= p.numPriorities {
				p.targetPriority[addrid] = value
				p.update()
			}
			// An out-of-range threshold is accepted and left unchanged,
			// not a store-access-fault.
			return true
		case 4:
			if value >= p.numSources+1 {
				return false
			}
			p.Complete(value)
			return true
		default:
			return false
		}

	default:
		return false
	}
}

var _ device.Device = (*Plic)(nil)
