/*
 * riscv-isa-sim - Platform-Level Interrupt Controller
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

// Package plic implements the platform-level interrupt controller: per
// source priorities, per-context enable masks, a pending bitfield, a
// claimed bitfield, per-context priority thresholds, and claim/complete
// arbitration.
package plic

import (
	"fmt"

	"github.com/davetw/riscv-isa-sim/internal/hart"
)

// Default register-map offsets, following the SiFive PLIC convention
// used by the original two-argument constructor this was distilled from.
const (
	DefaultPriorityBase   = 0x000000
	DefaultPendingBase    = 0x001000
	DefaultEnableBase     = 0x002000
	DefaultEnableStride   = 0x80
	DefaultContextBase    = 0x200000
	DefaultContextStride  = 0x1000
	DefaultNumPriorities  = 7
)

// Plic is the platform-level interrupt controller.
type Plic struct {
	harts hart.Harts

	numSources    uint32
	numPriorities uint32
	bitfieldWords uint32

	addrConfig []Addr

	sourcePriority []uint32 // index 0 reserved, [1..numSources]
	targetPriority []uint32 // one per context
	pending        []uint32 // bitfieldWords words
	claimed        []uint32 // bitfieldWords words
	enable         []uint32 // numAddrs*bitfieldWords words

	priorityBase  uint64
	pendingBase   uint64
	enableBase    uint64
	enableStride  uint64
	contextBase   uint64
	contextStride uint64
}

// Config gathers the parametric constructor's arguments.
type Config struct {
	HartConfig    string
	NumSources    uint32
	NumPriorities uint32
	PriorityBase  uint64
	PendingBase   uint64
	EnableBase    uint64
	EnableStride  uint64
	ContextBase   uint64
	ContextStride uint64
}

// New is the fully parametric constructor: every register-map offset is
// caller-supplied, and hart-config string is parsed into addrConfig. This
// fills in what the original's second, parametric plic_t constructor left
// as an empty stub.
func New(harts hart.Harts, cfg Config) (*Plic, error) {
	addrs, numHarts, err := ParseHartConfig(cfg.HartConfig)
	if err != nil {
		return nil, err
	}
	if numHarts > len(harts) {
		return nil, fmt.Errorf("plic: hart-config names hart %d but only %d harts exist", numHarts-1, len(harts))
	}
	if cfg.NumSources == 0 {
		return nil, fmt.Errorf("plic: num_sources must be > 0")
	}

	p := &Plic{
		harts:         harts,
		numSources:    cfg.NumSources,
		numPriorities: cfg.NumPriorities,
		bitfieldWords: (cfg.NumSources + 31) / 32,
		addrConfig:    addrs,
		priorityBase:  cfg.PriorityBase,
		pendingBase:   cfg.PendingBase,
		enableBase:    cfg.EnableBase,
		enableStride:  cfg.EnableStride,
		contextBase:   cfg.ContextBase,
		contextStride: cfg.ContextStride,
	}
	p.sourcePriority = make([]uint32, cfg.NumSources+1)
	p.targetPriority = make([]uint32, len(addrs))
	p.pending = make([]uint32, p.bitfieldWords)
	p.claimed = make([]uint32, p.bitfieldWords)
	p.enable = make([]uint32, uint32(len(addrs))*p.bitfieldWords)
	return p, nil
}

// NewWithDefaults is the "simple" constructor shape: it derives the
// SiFive-convention register offsets instead of taking them explicitly.
func NewWithDefaults(harts hart.Harts, hartConfig string, numSources uint32) (*Plic, error) {
	return New(harts, Config{
		HartConfig:    hartConfig,
		NumSources:    numSources,
		NumPriorities: DefaultNumPriorities,
		PriorityBase:  DefaultPriorityBase,
		PendingBase:   DefaultPendingBase,
		EnableBase:    DefaultEnableBase,
		EnableStride:  DefaultEnableStride,
		ContextBase:   DefaultContextBase,
		ContextStride: DefaultContextStride,
	})
}

// NumAddrs returns the number of delivery contexts.
func (p *Plic) NumAddrs() int { return len(p.addrConfig) }

// Size is the byte extent of the whole register window: it ends at the
// end of the last context's full contextStride-wide block.
func (p *Plic) Size() uint64 {
	return p.contextBase + uint64(len(p.addrConfig))*p.contextStride
}

// SetPending implements the edge-triggered external input from device
// models: a 0->1 transition on a source that is not already claimed will
// deliver on the next Update (folded into this call).
func (p *Plic) SetPending(irq uint32, level bool) {
	if irq == 0 || irq >= p.numSources+1 {
		return
	}
	setBit(p.pending, irq, level)
	p.update()
}

func setBit(words []uint32, bit uint32, level bool) {
	w, b := bit/32, bit%32
	if level {
		words[w] |= 1 << b
	} else {
		words[w] &^= 1 << b
	}
}

// irqsPending reports whether addrid has any pending, enabled, unclaimed
// IRQ whose priority strictly exceeds its threshold.
func (p *Plic) irqsPending(addrid uint32) bool {
	threshold := p.targetPriority[addrid]
	for w := uint32(0); w < p.bitfieldWords; w++ {
		bits := (p.pending[w] &^ p.claimed[w]) & p.enable[addrid*p.bitfieldWords+w]
		if bits == 0 {
			continue
		}
		for b := uint32(0); b < 32; b++ {
			if bits&(1<<b) == 0 {
				continue
			}
			irq := w*32 + b
			if irq == 0 || irq > p.numSources {
				continue
			}
			if p.sourcePriority[irq] > threshold {
				return true
			}
		}
	}
	return false
}

// update recomputes every context's delivery line. Triggered by any
// state-change operation: set-priority, set-enable, set-threshold,
// complete, and (to avoid a stuck-asserted line) claim.
func (p *Plic) update() {
	for addrid, a := range p.addrConfig {
		h := p.harts.ByID(int(a.HartID))
		if h == nil {
			continue
		}
		level := p.irqsPending(uint32(addrid))
		switch a.Mode {
		case ModeM:
			h.AssignMIP(hart.MIPMEIP, level)
		case ModeS:
			h.AssignMIP(hart.MIPSEIP, level)
		default:
			// U and H contexts are allocated and sized correctly but
			// never drive a line.
		}
	}
}

// Claim finds the highest-priority pending, enabled, unclaimed IRQ above
// addrid's threshold, ties broken by lowest IRQ number, atomically clears
// its pending bit and sets its claimed bit, and returns it. Returns 0 if
// no eligible IRQ exists.
func (p *Plic) Claim(addrid uint32) uint32 {
	maxPrio := p.targetPriority[addrid]
	var maxIRQ uint32
	for w := uint32(0); w < p.bitfieldWords; w++ {
		bits := (p.pending[w] &^ p.claimed[w]) & p.enable[addrid*p.bitfieldWords+w]
		if bits == 0 {
			continue
		}
		for b := uint32(0); b < 32; b++ {
			if bits&(1<<b) == 0 {
				continue
			}
			irq := w*32 + b
			if irq == 0 || irq > p.numSources {
				continue
			}
			// Ascending (w, b) order means the first IRQ to reach a given
			// priority is the lowest-numbered one; requiring a strictly
			// greater priority to replace the incumbent keeps it that way.
			if prio := p.sourcePriority[irq]; prio > maxPrio {
				maxPrio, maxIRQ = prio, irq
			}
		}
	}
	if maxIRQ != 0 {
		setBit(p.pending, maxIRQ, false)
		setBit(p.claimed, maxIRQ, true)
		p.update()
	}
	return maxIRQ
}

// Complete clears irq's claimed bit, allowing future re-delivery.
func (p *Plic) Complete(irq uint32) {
	if irq >= p.numSources+1 {
		return
	}
	setBit(p.claimed, irq, false)
	p.update()
}
