package wgguard

import (
	"testing"

	"github.com/davetw/riscv-isa-sim/internal/device"
)

// PMP write protection: wid=2 has read but not write over pages 1..2
// (0x1000..0x2FFF).
func TestPMPWriteProtection(t *testing.T) {
	mem := newMemDevice(0x3000)
	pmp := NewPMP(4, 3)
	trusted := testView{wid: 3}

	// perm bits for wid=2 are at [5:4]; bit 5 (read) set, bit 4 (write) clear.
	if !pmp.Store(trusted, blockPermOff, 4, device.PutUint(1<<5, 4)) {
		t.Fatalf("perm store failed")
	}
	if !pmp.Store(trusted, blockBasePageOff, 4, device.PutUint(1, 4)) {
		t.Fatalf("base_page store failed")
	}
	if !pmp.Store(trusted, blockPageCountOff, 4, device.PutUint(2, 4)) {
		t.Fatalf("page_count store failed")
	}

	proxy := NewProxy(0x1000, pmp, mem)
	w2 := testView{wid: 2}

	if proxy.Store(w2, 0x500, 4, device.PutUint(0xdeadbeef, 4)) {
		t.Errorf("store succeeded for a read-only world")
	}
	if _, ok := proxy.Load(w2, 0x500, 4); !ok {
		t.Errorf("load denied for a world with read permission")
	}
}

// WG-PMP-deny-default.
func TestPMPDenyByDefault(t *testing.T) {
	pmp := NewPMP(4, 3)
	if pmp.IsValid(1, 0x1000, 4, device.AccessLoad) {
		t.Errorf("untrusted world granted access with no blocks installed")
	}
	if !pmp.IsValid(3, 0x1000, 4, device.AccessLoad) {
		t.Errorf("trusted world denied despite always-allow bypass")
	}
	if pmp.IsValid(0, 0x1000, 4, device.AccessLoad) {
		t.Errorf("world 0 granted access")
	}
}

func TestPMPLockedBlockRefusesWrites(t *testing.T) {
	pmp := NewPMP(1, 3)
	trusted := testView{wid: 3}

	if !pmp.Store(trusted, blockPageCountOff, 4, device.PutUint(1, 4)) {
		t.Fatalf("page_count store failed before lock")
	}
	if !pmp.Store(trusted, blockLockOff, 4, device.PutUint(1, 4)) {
		t.Fatalf("lock store failed")
	}
	if pmp.Store(trusted, blockPermOff, 4, device.PutUint(0xff, 4)) {
		t.Errorf("perm store succeeded on a locked block")
	}
	if pmp.Store(trusted, blockLockOff, 4, device.PutUint(0, 4)) {
		t.Errorf("lock itself was overwritten after being set")
	}
}

func TestPMPBlockCoverageIsExact(t *testing.T) {
	pmp := NewPMP(1, 3)
	trusted := testView{wid: 3}
	pmp.Store(trusted, blockPermOff, 4, device.PutUint(0b11<<2, 4)) // wid=1 rw
	pmp.Store(trusted, blockBasePageOff, 4, device.PutUint(1, 4))
	pmp.Store(trusted, blockPageCountOff, 4, device.PutUint(1, 4)) // [0x1000,0x2000)

	if !pmp.IsValid(1, 0x1000, 0x1000, device.AccessLoad) {
		t.Errorf("exact full-block request denied")
	}
	if pmp.IsValid(1, 0x1000, 0x1001, device.AccessLoad) {
		t.Errorf("request spilling one byte past the block was granted")
	}
	if pmp.IsValid(1, 0xFFF, 4, device.AccessLoad) {
		t.Errorf("request starting before the block was granted")
	}
}
