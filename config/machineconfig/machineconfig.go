/*
 * riscv-isa-sim - Machine description model registration
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

// Package machineconfig registers the line handlers that turn a parsed
// machine-description file into calls on a machine.Builder, the way the
// teacher's device packages self-register into config/configparser from
// an init function rather than main.go knowing every model by name.
package machineconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davetw/riscv-isa-sim/config/configparser"
	"github.com/davetw/riscv-isa-sim/internal/clock"
	"github.com/davetw/riscv-isa-sim/machine"
)

func init() {
	configparser.RegisterOption("NUM_HARTS", optNumHarts)
	configparser.RegisterOption("WID_TRUSTED", optWidTrusted)
	configparser.RegisterModel("CLINT", modelClint)
	configparser.RegisterModel("PLIC", modelPlic)
	configparser.RegisterModel("MARKER", modelMarker)
	configparser.RegisterModel("FILTER", modelFilter)
	configparser.RegisterModel("PMP", modelPmp)
}

// pending collects the directives that must be known before a Builder can
// be constructed (num_harts, wid_trusted) and the ones that configure
// devices on it, so they can appear in any order in the file.
type pending struct {
	numHarts   int
	widTrusted uint32
	haveHarts  bool
	haveWid    bool

	clint  *clintDirective
	plic   *plicDirective
	marker []markerDirective
	filter []filterDirective
	pmp    []pmpDirective
}

type clintDirective struct {
	base, freqHz uint64
	realTime     bool
}

type plicDirective struct {
	base       uint64
	hartConfig string
	numSources uint32
}

type markerDirective struct {
	base       uint64
	hartID     int
	initialWid uint32
}

type filterDirective struct {
	base, size, target, targetSize uint64
	initialWid, extraMask          uint32
}

type pmpDirective struct {
	base      uint64
	numBlocks int
	target    uint64
}

var state pending

// Reset clears accumulated directives; call before loading a new file.
func Reset() {
	state = pending{}
}

func optNumHarts(_ uint64, value string, _ []configparser.Option) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("num_harts: %w", err)
	}
	state.numHarts = n
	state.haveHarts = true
	return nil
}

func optWidTrusted(_ uint64, value string, _ []configparser.Option) error {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return fmt.Errorf("wid_trusted: %w", err)
	}
	state.widTrusted = uint32(n)
	state.haveWid = true
	return nil
}

func findOpt(opts []configparser.Option, name string) (configparser.Option, bool) {
	for _, o := range opts {
		if strings.EqualFold(o.Name, name) {
			return o, true
		}
	}
	return configparser.Option{}, false
}

func modelClint(addr uint64, _ string, opts []configparser.Option) error {
	freq := uint64(10_000_000)
	if o, ok := findOpt(opts, "freq_hz"); ok {
		v, err := strconv.ParseUint(o.EqualOpt, 10, 64)
		if err != nil {
			return fmt.Errorf("clint freq_hz: %w", err)
		}
		freq = v
	}
	realTime := false
	if _, ok := findOpt(opts, "real_time"); ok {
		realTime = true
	}
	state.clint = &clintDirective{base: addr, freqHz: freq, realTime: realTime}
	return nil
}

func modelPlic(addr uint64, _ string, opts []configparser.Option) error {
	hc, ok := findOpt(opts, "hart_config")
	if !ok {
		return fmt.Errorf("plic at %#x: missing hart_config option", addr)
	}
	so, ok := findOpt(opts, "sources")
	if !ok {
		return fmt.Errorf("plic at %#x: missing sources option", addr)
	}
	n, err := strconv.ParseUint(so.EqualOpt, 10, 32)
	if err != nil {
		return fmt.Errorf("plic sources: %w", err)
	}
	state.plic = &plicDirective{base: addr, hartConfig: hc.EqualOpt, numSources: uint32(n)}
	return nil
}

func modelMarker(addr uint64, _ string, opts []configparser.Option) error {
	ho, ok := findOpt(opts, "hart")
	if !ok {
		return fmt.Errorf("marker at %#x: missing hart option", addr)
	}
	hartID, err := strconv.Atoi(ho.EqualOpt)
	if err != nil {
		return fmt.Errorf("marker hart: %w", err)
	}
	initial := uint64(0)
	if wo, ok := findOpt(opts, "wid"); ok {
		initial, err = strconv.ParseUint(wo.EqualOpt, 10, 32)
		if err != nil {
			return fmt.Errorf("marker wid: %w", err)
		}
	}
	state.marker = append(state.marker, markerDirective{base: addr, hartID: hartID, initialWid: uint32(initial)})
	return nil
}

func parseHexOpt(opts []configparser.Option, name string) (uint64, error) {
	o, ok := findOpt(opts, name)
	if !ok {
		return 0, fmt.Errorf("missing %s option", name)
	}
	v := strings.TrimPrefix(strings.TrimPrefix(o.EqualOpt, "0x"), "0X")
	return strconv.ParseUint(v, 16, 64)
}

func modelFilter(addr uint64, _ string, opts []configparser.Option) error {
	size, err := parseHexOpt(opts, "size")
	if err != nil {
		return fmt.Errorf("filter at %#x: %w", addr, err)
	}
	target, err := parseHexOpt(opts, "target")
	if err != nil {
		return fmt.Errorf("filter at %#x: %w", addr, err)
	}
	targetSize, err := parseHexOpt(opts, "target_size")
	if err != nil {
		return fmt.Errorf("filter at %#x: %w", addr, err)
	}
	var initial, extra uint64
	if wo, ok := findOpt(opts, "wid"); ok {
		initial, err = strconv.ParseUint(wo.EqualOpt, 10, 32)
		if err != nil {
			return fmt.Errorf("filter wid: %w", err)
		}
	}
	if mo, ok := findOpt(opts, "mask"); ok {
		extra, err = strconv.ParseUint(mo.EqualOpt, 10, 32)
		if err != nil {
			return fmt.Errorf("filter mask: %w", err)
		}
	}
	state.filter = append(state.filter, filterDirective{
		base: addr, size: size, target: target, targetSize: targetSize,
		initialWid: uint32(initial), extraMask: uint32(extra),
	})
	return nil
}

func modelPmp(addr uint64, _ string, opts []configparser.Option) error {
	nb := 8
	if o, ok := findOpt(opts, "blocks"); ok {
		n, err := strconv.Atoi(o.EqualOpt)
		if err != nil {
			return fmt.Errorf("pmp blocks: %w", err)
		}
		nb = n
	}
	var target uint64
	if o, ok := findOpt(opts, "target"); ok {
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(o.EqualOpt, "0x"), "0X"), 16, 64)
		if err != nil {
			return fmt.Errorf("pmp target: %w", err)
		}
		target = v
	}
	state.pmp = append(state.pmp, pmpDirective{base: addr, numBlocks: nb, target: target})
	return nil
}

// Build turns every directive collected since the last Reset into a
// machine.Builder and builds the Machine. clk is passed through to
// machine.NewBuilder (nil selects the real wall clock).
func Build(clk clock.Source) (*machine.Machine, error) {
	if !state.haveHarts {
		return nil, fmt.Errorf("machineconfig: num_harts was never set")
	}
	if !state.haveWid {
		return nil, fmt.Errorf("machineconfig: wid_trusted was never set")
	}

	b := machine.NewBuilder(state.numHarts, state.widTrusted, clk)
	if state.clint != nil {
		b.SetClint(state.clint.base, state.clint.freqHz, state.clint.realTime)
	}
	if state.plic != nil {
		b.SetPlic(state.plic.base, state.plic.hartConfig, state.plic.numSources)
	}
	for _, m := range state.marker {
		b.AddMarker(m.base, m.hartID, m.initialWid)
	}
	for _, f := range state.filter {
		b.AddFilter(f.base, f.size, f.target, f.targetSize, f.initialWid, f.extraMask)
	}
	for _, p := range state.pmp {
		b.AddPMP(p.base, p.numBlocks, p.target)
	}
	return b.Build()
}
