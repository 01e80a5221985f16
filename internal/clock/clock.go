/*
 * riscv-isa-sim - Wall-clock collaborator
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

package clock

import "time"

// Source is "current microseconds" abstracted behind an interface, so
// that tests can substitute a deterministic clock instead of the real
// one. Its only required property is monotonicity within a single run.
type Source interface {
	NowMicros() int64
}

// System is the real wall-clock, backed by time.Now.
type System struct{}

func (System) NowMicros() int64 {
	return time.Now().UnixMicro()
}

// Fake is a deterministic Source for tests: it never advances on its
// own, only when the test calls Advance.
type Fake struct {
	micros int64
}

// NewFake creates a Fake clock starting at the given time.
func NewFake(startMicros int64) *Fake {
	return &Fake{micros: startMicros}
}

func (f *Fake) NowMicros() int64 { return f.micros }

// Advance moves the fake clock forward by d, which may be negative only
// if the caller really wants to violate monotonicity (for testing
// CLINT-real-time-monotone's absence of a guarantee against that, say).
func (f *Fake) Advance(d int64) { f.micros += d }
