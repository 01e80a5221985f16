package wgguard

import (
	"testing"

	"github.com/davetw/riscv-isa-sim/internal/device"
	"github.com/davetw/riscv-isa-sim/internal/hart"
)

// memDevice is a trivial byte-addressable RAM stand-in used as the
// downstream device behind a Proxy in these tests.
type memDevice struct {
	data []byte
}

func newMemDevice(size uint64) *memDevice { return &memDevice{data: make([]byte, size)} }

func (d *memDevice) Size() uint64 { return uint64(len(d.data)) }

func (d *memDevice) Load(_ hart.View, offset uint64, size int) ([]byte, bool) {
	if offset+uint64(size) > uint64(len(d.data)) {
		return nil, false
	}
	out := make([]byte, size)
	copy(out, d.data[offset:offset+uint64(size)])
	return out, true
}

func (d *memDevice) Store(_ hart.View, offset uint64, size int, data []byte) bool {
	if offset+uint64(size) > uint64(len(d.data)) {
		return false
	}
	copy(d.data[offset:offset+uint64(size)], data[:size])
	return true
}

// A filter blocks a world that isn't on its allowlist.
func TestFilterBlocksUntrustedWorld(t *testing.T) {
	const base, size = 0x1000, 0x1000
	mem := newMemDevice(size)
	f := NewFilter(base, size, 3, 2, 0) // trusted=3, initial world 2 allowed
	proxy := NewProxy(base, f, mem)

	w1 := testView{wid: 1}
	if _, ok := proxy.Load(w1, 0, 4); ok {
		t.Errorf("untrusted world (1) was allowed through the filter")
	}

	w2 := testView{wid: 2}
	if _, ok := proxy.Load(w2, 0, 4); !ok {
		t.Errorf("allowed world (2) was denied")
	}

	w3 := testView{wid: 3}
	if _, ok := proxy.Load(w3, 0, 4); !ok {
		t.Errorf("trusted world was denied regardless of mask")
	}
}

func TestFilterInRangeRejectsSpill(t *testing.T) {
	const base, size = 0x1000, 0x10
	mem := newMemDevice(size)
	f := NewFilter(base, size, 3, 3, 0)
	proxy := NewProxy(base, f, mem)

	trusted := testView{wid: 3}
	if _, ok := proxy.Load(trusted, size-2, 4); ok {
		t.Errorf("read spilling past the filtered range should refuse")
	}
}

func TestFilterConfigTrustedOnly(t *testing.T) {
	f := NewFilter(0x1000, 0x1000, 3, 0, 0)
	cfg := f.Config()

	untrusted := testView{wid: 1}
	if cfg.Store(untrusted, 0, 4, device.PutUint(0xff, 4)) {
		t.Errorf("untrusted world modified the filter's own mask register")
	}

	trusted := testView{wid: 3}
	if !cfg.Store(trusted, 0, 4, device.PutUint(1<<2, 4)) {
		t.Fatalf("trusted config store failed")
	}
	got, ok := cfg.Load(trusted, 0, 4)
	if !ok || device.GetUint(got) != 1<<2 {
		t.Errorf("config readback = %v, want mask 0x%x", got, 1<<2)
	}
}
