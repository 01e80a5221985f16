/*
 * riscv-isa-sim - PLIC hart-config string parsing
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

import "fmt"

// Mode is a PLIC delivery-context privilege mode. Only M and S drive an
// interrupt line (MEIP, SEIP respectively); U and H contexts exist (and
// get their own addrid, enable bits, and threshold) but never assert one.
type Mode int

const (
	ModeU Mode = iota
	ModeS
	ModeH
	ModeM
)

func modeFromChar(c byte) (Mode, error) {
	switch c {
	case 'U':
		return ModeU, nil
	case 'S':
		return ModeS, nil
	case 'H':
		return ModeH, nil
	case 'M':
		return ModeM, nil
	default:
		return 0, fmt.Errorf("plic: invalid hart-config mode %q", c)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeU:
		return "U"
	case ModeS:
		return "S"
	case ModeH:
		return "H"
	case ModeM:
		return "M"
	default:
		return "?"
	}
}

// Addr is a PLIC delivery context: one (hartid, mode) pair addressed by
// addrid. Contexts are assigned addrids in the order they appear in the
// hart-config string.
type Addr struct {
	AddrID uint32
	HartID uint32
	Mode   Mode
}

// ParseHartConfig parses a comma-separated per-hart list of mode letters,
// e.g. "MS,MS" for two harts each with an M and an S context. The number
// of harts is the comma count + 1; the number of contexts is the count of
// mode letters (excluding commas). Duplicate modes within the same hart
// are a configuration error.
func ParseHartConfig(cfg string) ([]Addr, int, error) {
	var addrs []Addr
	hartID := 0
	seen := 0 // bitmask of modes seen for the current hart

	for i := 0; i < len(cfg); i++ {
		c := cfg[i]
		if c == ',' {
			hartID++
			seen = 0
			continue
		}
		m, err := modeFromChar(c)
		if err != nil {
			return nil, 0, err
		}
		bit := 1 << uint(m)
		if seen&bit != 0 {
			return nil, 0, fmt.Errorf("plic: duplicate mode %q for hart %d in config %q", c, hartID, cfg)
		}
		seen |= bit
		addrs = append(addrs, Addr{AddrID: uint32(len(addrs)), HartID: uint32(hartID), Mode: m})
	}

	return addrs, hartID + 1, nil
}
