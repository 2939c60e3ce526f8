package database

import (
	"testing"

	"github.com/flowsql/streamdb/internal/wire"
)

func TestDecodeColumnVarcharLengthInCharacters(t *testing.T) {
	ci := DecodeColumn(wire.Field{Name: "email", DBTypeName: "VARCHAR", LengthOK: true, Length: 1020, NullableOK: true, Nullable: false})
	if ci.TypeName != "VARCHAR" {
		t.Fatalf("TypeName = %q, want VARCHAR", ci.TypeName)
	}
	if ci.Length == nil || *ci.Length != 255 {
		t.Fatalf("Length = %v, want 255 (1020/4)", ci.Length)
	}
	if ci.Nullable {
		t.Fatalf("Nullable = true, want false")
	}
}

func TestDecodeColumnDecimalKeepsDriverPrecisionScale(t *testing.T) {
	ci := DecodeColumn(wire.Field{Name: "amount", DBTypeName: "DECIMAL", DecimalOK: true, Precision: 10, Scale: 2})
	if ci.TypeName != "DECIMAL" {
		t.Fatalf("TypeName = %q, want DECIMAL", ci.TypeName)
	}
	if ci.DecimalSize == nil || ci.DecimalSize.Precision != 10 || ci.DecimalSize.Scale != 2 {
		t.Fatalf("DecimalSize = %+v, want {10 2}", ci.DecimalSize)
	}
}

func TestDecodeColumnFixedSizeTypesHaveNilLength(t *testing.T) {
	for _, driverName := range []string{"TINYINT", "BIGINT", "DATETIME", "BOOL", "YEAR"} {
		ci := DecodeColumn(wire.Field{Name: "x", DBTypeName: driverName})
		if ci.Length != nil {
			t.Fatalf("%s: Length = %v, want nil", driverName, *ci.Length)
		}
	}
}

func TestDecodeColumnFoldsTextAndBlobVariants(t *testing.T) {
	cases := map[string]string{
		"TINYTEXT":   "TEXT",
		"MEDIUMTEXT": "TEXT",
		"LONGTEXT":   "TEXT",
		"TINYBLOB":   "BLOB",
		"MEDIUMBLOB": "BLOB",
		"LONGBLOB":   "BLOB",
		"VARBINARY":  "BLOB",
	}
	for driverName, want := range cases {
		ci := DecodeColumn(wire.Field{Name: "x", DBTypeName: driverName})
		if ci.TypeName != want {
			t.Fatalf("%s: TypeName = %q, want %q", driverName, ci.TypeName, want)
		}
	}
}
