package plic

import (
	"testing"

	"github.com/davetw/riscv-isa-sim/internal/device"
	"github.com/davetw/riscv-isa-sim/internal/hart"
)

func newHarts(n int) hart.Harts {
	hs := make(hart.Harts, n)
	for i := range hs {
		hs[i] = hart.New(i)
	}
	return hs
}

// Claim arbitration picks the highest-priority pending source, ties
// broken by lowest IRQ number.
func TestClaimArbitration(t *testing.T) {
	hs := newHarts(1)
	p, err := NewWithDefaults(hs, "M", 4)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}

	if !p.Store(nil, DefaultPriorityBase+4*1, 4, device.PutUint(3, 4)) {
		t.Fatalf("set priority[1] failed")
	}
	if !p.Store(nil, DefaultPriorityBase+4*2, 4, device.PutUint(5, 4)) {
		t.Fatalf("set priority[2] failed")
	}
	if !p.Store(nil, DefaultEnableBase, 4, device.PutUint(0b110, 4)) {
		t.Fatalf("set enable failed")
	}

	p.SetPending(1, true)
	p.SetPending(2, true)

	got, ok := p.Load(nil, DefaultContextBase+4, 4)
	if !ok {
		t.Fatalf("claim load refused")
	}
	if irq := device.GetUint(got); irq != 2 {
		t.Errorf("claim returned irq %d, want 2 (higher priority)", irq)
	}

	// irq 2 now claimed; irq 1 should be next.
	got, ok = p.Load(nil, DefaultContextBase+4, 4)
	if !ok {
		t.Fatalf("second claim load refused")
	}
	if irq := device.GetUint(got); irq != 1 {
		t.Errorf("second claim returned irq %d, want 1", irq)
	}

	got, ok = p.Load(nil, DefaultContextBase+4, 4)
	if !ok {
		t.Fatalf("third claim load refused")
	}
	if irq := device.GetUint(got); irq != 0 {
		t.Errorf("third claim returned irq %d, want 0 (nothing left)", irq)
	}
}

func TestClaimTieBreakLowestIRQ(t *testing.T) {
	hs := newHarts(1)
	p, err := NewWithDefaults(hs, "M", 4)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	p.Store(nil, DefaultPriorityBase+4*1, 4, device.PutUint(2, 4))
	p.Store(nil, DefaultPriorityBase+4*3, 4, device.PutUint(2, 4))
	p.Store(nil, DefaultEnableBase, 4, device.PutUint(0b1010, 4))
	p.SetPending(1, true)
	p.SetPending(3, true)

	got, ok := p.Load(nil, DefaultContextBase+4, 4)
	if !ok {
		t.Fatalf("claim refused")
	}
	if irq := device.GetUint(got); irq != 1 {
		t.Errorf("tied claim returned irq %d, want 1 (lowest)", irq)
	}
}

// A source at or below the context's threshold never claims.
func TestThresholdBlocksClaim(t *testing.T) {
	hs := newHarts(1)
	p, err := NewWithDefaults(hs, "M", 4)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	p.Store(nil, DefaultPriorityBase+4*1, 4, device.PutUint(3, 4))
	p.Store(nil, DefaultEnableBase, 4, device.PutUint(0b10, 4))
	p.Store(nil, DefaultContextBase, 4, device.PutUint(3, 4)) // threshold == priority
	p.SetPending(1, true)

	got, ok := p.Load(nil, DefaultContextBase+4, 4)
	if !ok {
		t.Fatalf("claim load refused")
	}
	if irq := device.GetUint(got); irq != 0 {
		t.Errorf("claim returned irq %d, want 0 (priority must exceed threshold)", irq)
	}

	// Lower the threshold below priority: now it should claim.
	p.Store(nil, DefaultContextBase, 4, device.PutUint(2, 4))
	got, ok = p.Load(nil, DefaultContextBase+4, 4)
	if !ok {
		t.Fatalf("claim load refused")
	}
	if irq := device.GetUint(got); irq != 1 {
		t.Errorf("claim returned irq %d, want 1 once threshold dropped below priority", irq)
	}
}

func TestPLICDisabledSourceNeverClaims(t *testing.T) {
	hs := newHarts(1)
	p, err := NewWithDefaults(hs, "M", 4)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	p.Store(nil, DefaultPriorityBase+4*1, 4, device.PutUint(5, 4))
	p.SetPending(1, true) // enable never set

	got, ok := p.Load(nil, DefaultContextBase+4, 4)
	if !ok {
		t.Fatalf("claim load refused")
	}
	if irq := device.GetUint(got); irq != 0 {
		t.Errorf("disabled source claimed: irq %d", irq)
	}
}

func TestCompleteAllowsRedelivery(t *testing.T) {
	hs := newHarts(1)
	p, err := NewWithDefaults(hs, "M", 4)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	p.Store(nil, DefaultPriorityBase+4*1, 4, device.PutUint(1, 4))
	p.Store(nil, DefaultEnableBase, 4, device.PutUint(0b10, 4))
	p.SetPending(1, true)

	got, _ := p.Load(nil, DefaultContextBase+4, 4)
	if device.GetUint(got) != 1 {
		t.Fatalf("expected claim of irq 1")
	}

	p.SetPending(1, true) // re-raise while still claimed: must not re-deliver
	got, _ = p.Load(nil, DefaultContextBase+4, 4)
	if irq := device.GetUint(got); irq != 0 {
		t.Errorf("claimed-but-not-completed irq re-delivered: %d", irq)
	}

	if !p.Store(nil, DefaultContextBase+4, 4, device.PutUint(1, 4)) {
		t.Fatalf("complete store refused")
	}
	p.SetPending(1, true)
	got, ok := p.Load(nil, DefaultContextBase+4, 4)
	if !ok {
		t.Fatalf("claim load refused")
	}
	if irq := device.GetUint(got); irq != 1 {
		t.Errorf("irq not re-claimable after complete: got %d", irq)
	}
}

func TestMEIPTracksPendingUnclaimedAboveThreshold(t *testing.T) {
	hs := newHarts(1)
	p, err := NewWithDefaults(hs, "M", 4)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	p.Store(nil, DefaultPriorityBase+4*1, 4, device.PutUint(1, 4))
	p.Store(nil, DefaultEnableBase, 4, device.PutUint(0b10, 4))

	if hs[0].MIP()&hart.MIPMEIP != 0 {
		t.Fatalf("MEIP set before any pending source")
	}
	p.SetPending(1, true)
	if hs[0].MIP()&hart.MIPMEIP == 0 {
		t.Errorf("MEIP not set with a pending, enabled, above-threshold source")
	}
	p.Load(nil, DefaultContextBase+4, 4) // claim
	if hs[0].MIP()&hart.MIPMEIP != 0 {
		t.Errorf("MEIP still set after claim drained the only pending source")
	}
}

func TestRegisterWindowRejectsUnalignedOrWrongSize(t *testing.T) {
	hs := newHarts(1)
	p, err := NewWithDefaults(hs, "M", 4)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	if _, ok := p.Load(nil, DefaultPriorityBase+1, 4); ok {
		t.Errorf("unaligned load should refuse")
	}
	if _, ok := p.Load(nil, DefaultPriorityBase, 8); ok {
		t.Errorf("8-byte load should refuse")
	}
	if p.Store(nil, DefaultPendingBase, 4, device.PutUint(1, 4)) {
		t.Errorf("direct store to pending should refuse; only SetPending may change it")
	}
}

func TestHartConfigRejectsDuplicateMode(t *testing.T) {
	if _, _, err := ParseHartConfig("MM"); err == nil {
		t.Errorf("duplicate mode in hart-config should error")
	}
}

func TestSizeMatchesContextWindow(t *testing.T) {
	hs := newHarts(2)
	p, err := NewWithDefaults(hs, "MS,MS", 4)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	want := uint64(DefaultContextBase) + uint64(p.NumAddrs())*DefaultContextStride
	if p.Size() != want {
		t.Errorf("Size() = %#x, want %#x", p.Size(), want)
	}
}
