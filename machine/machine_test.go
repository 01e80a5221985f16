package machine

import (
	"testing"

	"github.com/davetw/riscv-isa-sim/internal/device"
	"github.com/davetw/riscv-isa-sim/internal/hart"
)

func TestBuildWiresClintAndPlic(t *testing.T) {
	b := NewBuilder(1, 3, nil)
	b.SetClint(0x02000000, 1_000_000, false)
	b.SetPlic(0x0c000000, "M", 4)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Clint == nil || m.Plic == nil {
		t.Fatalf("clint/plic not attached to Machine")
	}

	if !m.Bus.Store(nil, 0x02000000+0x4000, 8, device.PutUint(0x10, 8)) {
		t.Fatalf("store mtimecmp through bus failed")
	}
	m.Clint.Tick(0x10)
	if m.Harts[0].MIP()&hart.MIPMTIP == 0 {
		t.Errorf("MTIP not observed through the wired bus")
	}
}

func TestBuildRejectsZeroHarts(t *testing.T) {
	b := NewBuilder(0, 3, nil)
	if _, err := b.Build(); err == nil {
		t.Errorf("expected an error for zero harts")
	}
}

func TestBuildWiresFilterOverClint(t *testing.T) {
	b := NewBuilder(1, 3, nil)
	b.SetClint(0x02000000, 1_000_000, false)
	b.AddMarker(0x03000000, 0, 1) // hart 0 boots as an untrusted world
	b.AddFilter(0x03001000, 4, 0x02000000, 0xC000, 2, 0)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// hart 0's marker is world 1, filter only allows world 2 (or trusted
	// world 3): the clint access must now be denied through the bus.
	if _, ok := m.Bus.Load(m.Harts[0], 0x02000000+0xBFF8, 8); ok {
		t.Errorf("clint access succeeded despite filter denial")
	}
}

func TestBuildRejectsOverlappingDevices(t *testing.T) {
	b := NewBuilder(1, 3, nil)
	b.SetClint(0x02000000, 1_000_000, false)
	b.SetPlic(0x02000000, "M", 4) // deliberately overlapping base
	if _, err := b.Build(); err == nil {
		t.Errorf("expected overlap error")
	}
}
