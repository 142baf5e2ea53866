package bmg

import "testing"

func TestInsertFindOrder(t *testing.T) {
	b := New()
	b.InsertText(30, []uint16{'c'})
	b.InsertText(10, []uint16{'a'})
	b.InsertText(20, []uint16{'b'})

	if got := len(b.Items()); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	var mids []Mid
	for _, it := range b.Items() {
		mids = append(mids, it.Mid)
	}
	want := []Mid{10, 20, 30}
	for i, m := range want {
		if mids[i] != m {
			t.Fatalf("Items()[%d].Mid = %d, want %d", i, mids[i], m)
		}
	}

	if it := b.Find(20); it == nil || it.Units[0] != 'b' {
		t.Fatalf("Find(20) = %v, want text 'b'", it)
	}
	if it := b.Find(99); it != nil {
		t.Fatalf("Find(99) = %v, want nil", it)
	}
}

func TestInsertReplaces(t *testing.T) {
	b := New()
	b.InsertText(5, []uint16{'x'})
	b.InsertText(5, []uint16{'y'})
	if got := len(b.Items()); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	if it := b.Find(5); it.Units[0] != 'y' {
		t.Fatalf("Find(5).Units = %v, want 'y'", it.Units)
	}
}

func TestInsertClonesSlice(t *testing.T) {
	b := New()
	units := []uint16{'a', 'b'}
	b.InsertText(1, units)
	units[0] = 'z'
	if it := b.Find(1); it.Units[0] != 'a' {
		t.Fatalf("stored item mutated by caller's slice: got %v", it.Units)
	}
}

func TestDeleteKeepsSlot(t *testing.T) {
	b := New()
	item := b.InsertText(7, []uint16{'a', 'b', 'c'})
	item.HasSlot = true
	item.Slot = 3
	b.Insert(item)

	if ok := b.Delete(7); !ok {
		t.Fatal("Delete(7) = false, want true")
	}
	it := b.Find(7)
	if it == nil {
		t.Fatal("Find(7) = nil after Delete, want tombstone")
	}
	if !it.Deleted || !it.IsEmpty() {
		t.Fatalf("deleted item = %+v, want Deleted and IsEmpty", it)
	}
	if !it.HasSlot || it.Slot != 3 {
		t.Fatalf("deleted item lost its slot: %+v", it)
	}
	if ok := b.Delete(404); ok {
		t.Fatal("Delete(404) = true, want false for missing MID")
	}
}

func TestRemoveDropsSlot(t *testing.T) {
	b := New()
	b.InsertText(1, []uint16{'a'})
	if ok := b.Remove(1); !ok {
		t.Fatal("Remove(1) = false, want true")
	}
	if it := b.Find(1); it != nil {
		t.Fatalf("Find(1) after Remove = %v, want nil", it)
	}
}

func TestCopyAttribMinUsed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultAttribUsed = 4
	b := NewWithConfig(cfg, DefaultHooks())

	src := &Item{AttribUsed: 2, HasSlot: true, Slot: 9}
	src.Attrib[0] = 0xAA
	src.Attrib[1] = 0xBB
	dst := &Item{AttribUsed: 4}
	dst.Attrib[0] = 0x11
	dst.Attrib[2] = 0x22

	b.CopyAttrib(dst, src)

	if dst.AttribUsed != 2 {
		t.Fatalf("AttribUsed = %d, want 2 (min of config default and src)", dst.AttribUsed)
	}
	if dst.Attrib[0] != 0xAA || dst.Attrib[1] != 0xBB {
		t.Fatalf("leading attrib bytes not copied: %v", dst.Attrib[:2])
	}
	if dst.Attrib[2] != 0 {
		t.Fatalf("attrib byte beyond AttribUsed should be cleared, got %#x", dst.Attrib[2])
	}
	if !dst.HasSlot || dst.Slot != 9 {
		t.Fatalf("slot not copied from src: HasSlot=%v Slot=%d", dst.HasSlot, dst.Slot)
	}
}

func TestCopyAttribForced(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ForceAttrib = true
	b := NewWithConfig(cfg, DefaultHooks())

	src := &Item{AttribUsed: 1}
	src.Attrib[0] = 0x55
	dst := &Item{AttribUsed: 4}
	dst.Attrib[3] = 0x99

	b.CopyAttrib(dst, src)

	if dst.AttribUsed != 1 {
		t.Fatalf("AttribUsed = %d, want 1 under ForceAttrib", dst.AttribUsed)
	}
	if dst.Attrib[0] != 0x55 {
		t.Fatalf("Attrib[0] = %#x, want 0x55", dst.Attrib[0])
	}
}

func TestAddRawPreservesOrder(t *testing.T) {
	b := New()
	b.AddRaw([4]byte{'S', 'T', 'R', '1'}, []byte{1, 2, 3})
	b.AddRaw([4]byte{'F', 'L', 'W', '1'}, []byte{4, 5})

	secs := b.RawSections()
	if len(secs) != 2 {
		t.Fatalf("RawSections() len = %d, want 2", len(secs))
	}
	if secs[0].Magic != [4]byte{'S', 'T', 'R', '1'} {
		t.Fatalf("first section magic = %s, want STR1", secs[0].Magic)
	}
}
