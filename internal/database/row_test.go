package database

import "testing"

func TestRowAccessors(t *testing.T) {
	row := newRow([]string{"id", "name"}, []any{int64(1), "alice"})

	if v, ok := row.ByName("name"); !ok || v.(string) != "alice" {
		t.Fatalf("ByName(name) = %v, %v", v, ok)
	}
	if v, ok := row.ByOrdinal(0); !ok || v.(int64) != 1 {
		t.Fatalf("ByOrdinal(0) = %v, %v", v, ok)
	}
	if _, ok := row.ByOrdinal(5); ok {
		t.Fatalf("ByOrdinal(5) should be out of range")
	}
	if _, ok := row.ByName("missing"); ok {
		t.Fatalf("ByName(missing) should be absent")
	}

	obj := row.ToObject()
	if obj["id"] != int64(1) || obj["name"] != "alice" {
		t.Fatalf("ToObject() = %v", obj)
	}

	arr := row.ToArray()
	if len(arr) != 2 || arr[0] != int64(1) || arr[1] != "alice" {
		t.Fatalf("ToArray() = %v", arr)
	}
}

func TestRowCloneIsIndependent(t *testing.T) {
	row := newRow([]string{"id"}, []any{int64(1)})
	clone := row.Clone()

	obj := clone.ToObject()
	obj["id"] = int64(999) // mutating the clone's derived map must not affect the row
	if v, _ := row.ByName("id"); v.(int64) != 1 {
		t.Fatalf("original row mutated via clone: %v", v)
	}
}
