/*
 * riscv-isa-sim - Machine assembly
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

// Package machine binds the Bus, Harts, CLINT, PLIC, and world-guard
// devices named in a parsed configuration into one runnable machine, the
// way emu/core.Core assembles a channel, CPU, and device set in the
// teacher this was adapted from.
package machine

import (
	"fmt"
	"log/slog"

	"github.com/davetw/riscv-isa-sim/internal/bus"
	"github.com/davetw/riscv-isa-sim/internal/clint"
	"github.com/davetw/riscv-isa-sim/internal/clock"
	"github.com/davetw/riscv-isa-sim/internal/device"
	"github.com/davetw/riscv-isa-sim/internal/hart"
	"github.com/davetw/riscv-isa-sim/internal/plic"
	"github.com/davetw/riscv-isa-sim/internal/wgguard"
)

// Machine is a fully wired simulator core: a set of harts sharing one
// Bus, with CLINT/PLIC/world-guard devices registered on it.
type Machine struct {
	Bus   *bus.Bus
	Harts hart.Harts
	Clint *clint.Clint
	Plic  *plic.Plic
}

// Builder accumulates configuration-file directives before Build
// assembles the Machine. Each Set*/Add* method corresponds to one model
// line the config parser can drive.
type Builder struct {
	numHarts   int
	clkSource  clock.Source
	widTrusted uint32

	clintCfg *clintConfig
	plicCfg  *plicConfig
	markers  []*markerConfig
	filters  []*filterConfig
	pmps     []*pmpConfig
}

type clintConfig struct {
	base     uint64
	freqHz   uint64
	realTime bool
}

type plicConfig struct {
	base       uint64
	hartConfig string
	numSources uint32
}

type markerConfig struct {
	base       uint64
	hartID     int
	initialWid uint32
}

type filterConfig struct {
	base, size uint64
	target     uint64
	targetSize uint64
	initialWid uint32
	extraMask  uint32
}

type pmpConfig struct {
	base      uint64
	numBlocks int
	target    uint64 // 0 means "register-only, gates nothing directly"
}

// NewBuilder starts a Machine description with numHarts harts and the
// given trusted world ID (shared by every marker/filter/PMP registered
// with it).
func NewBuilder(numHarts int, widTrusted uint32, clk clock.Source) *Builder {
	if clk == nil {
		clk = clock.System{}
	}
	return &Builder{numHarts: numHarts, clkSource: clk, widTrusted: widTrusted}
}

func (b *Builder) SetClint(base, freqHz uint64, realTime bool) {
	b.clintCfg = &clintConfig{base: base, freqHz: freqHz, realTime: realTime}
}

func (b *Builder) SetPlic(base uint64, hartConfig string, numSources uint32) {
	b.plicCfg = &plicConfig{base: base, hartConfig: hartConfig, numSources: numSources}
}

func (b *Builder) AddMarker(base uint64, hartID int, initialWid uint32) {
	b.markers = append(b.markers, &markerConfig{base: base, hartID: hartID, initialWid: initialWid})
}

func (b *Builder) AddFilter(base, size, target, targetSize uint64, initialWid, extraMask uint32) {
	b.filters = append(b.filters, &filterConfig{
		base: base, size: size, target: target, targetSize: targetSize,
		initialWid: initialWid, extraMask: extraMask,
	})
}

// AddPMP registers a PMP with numBlocks capability slots at base. If
// target is nonzero, the device already registered at that bus address is
// wrapped so every access to it is policed by this PMP's blocks.
func (b *Builder) AddPMP(base uint64, numBlocks int, target uint64) {
	b.pmps = append(b.pmps, &pmpConfig{base: base, numBlocks: numBlocks, target: target})
}

// Build constructs every device described so far and registers it on a
// fresh Bus. Construction errors (bad hart-config, overlapping ranges,
// wid > widTrusted) are returned rather than panicking: configuration
// errors are fatal, but reported, never a crash.
func (b *Builder) Build() (*Machine, error) {
	if b.numHarts <= 0 {
		return nil, fmt.Errorf("machine: num_harts must be > 0")
	}
	harts := make(hart.Harts, b.numHarts)
	for i := range harts {
		harts[i] = hart.New(i)
	}

	bs := bus.New()
	m := &Machine{Bus: bs, Harts: harts}

	if b.clintCfg != nil {
		c := clint.New(harts, b.clintCfg.freqHz, b.clintCfg.realTime, b.clkSource)
		if err := bs.AddDevice(b.clintCfg.base, c.Size(), c, "clint"); err != nil {
			return nil, err
		}
		m.Clint = c
		slog.Debug("machine: clint wired", "base", fmt.Sprintf("%#x", b.clintCfg.base))
	}

	if b.plicCfg != nil {
		p, err := plic.NewWithDefaults(harts, b.plicCfg.hartConfig, b.plicCfg.numSources)
		if err != nil {
			return nil, fmt.Errorf("machine: plic: %w", err)
		}
		if err := bs.AddDevice(b.plicCfg.base, p.Size(), p, "plic"); err != nil {
			return nil, err
		}
		m.Plic = p
		slog.Debug("machine: plic wired", "base", fmt.Sprintf("%#x", b.plicCfg.base))
	}

	for _, mc := range b.markers {
		if mc.initialWid > b.widTrusted {
			return nil, fmt.Errorf("machine: marker initial wid %d exceeds wid_trusted %d", mc.initialWid, b.widTrusted)
		}
		marker := wgguard.NewMarker(mc.initialWid, b.widTrusted)
		if err := bs.AddDevice(mc.base, marker.Size(), marker, "wg_marker"); err != nil {
			return nil, err
		}
		if h := harts.ByID(mc.hartID); h != nil {
			h.BindMarker(marker)
		}
	}

	for _, fc := range b.filters {
		downstream := bs.Find(fc.target)
		if downstream == nil {
			return nil, fmt.Errorf("machine: filter at %#x names unknown downstream device %#x", fc.base, fc.target)
		}
		f := wgguard.NewFilter(fc.target, fc.targetSize, b.widTrusted, fc.initialWid, fc.extraMask)
		proxy := wgguard.NewProxy(fc.target, f, downstream)
		if err := bs.Replace(fc.target, proxy); err != nil {
			return nil, err
		}
		cfg := f.Config()
		if err := bs.AddDevice(fc.base, cfg.(device.Sized).Size(), cfg, "wg_filter_config"); err != nil {
			return nil, err
		}
	}

	for _, pc := range b.pmps {
		p := wgguard.NewPMP(pc.numBlocks, b.widTrusted)
		if err := bs.AddDevice(pc.base, p.Size(), p, "wg_pmp"); err != nil {
			return nil, err
		}
		if pc.target != 0 {
			guarded := bs.Find(pc.target)
			if guarded == nil {
				return nil, fmt.Errorf("machine: pmp at %#x names unknown downstream device %#x", pc.base, pc.target)
			}
			proxy := wgguard.NewProxy(pc.target, p, guarded)
			if err := bs.Replace(pc.target, proxy); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}
