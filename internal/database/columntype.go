package database

import "github.com/flowsql/streamdb/internal/wire"

// canonicalTypeNames maps every driver-reported DatabaseTypeName variant to
// one of the fixed type names this layer exposes. go-sql-driver/mysql
// already decodes the wire protocol's type byte and flags into a name close
// to these; this table folds its size-suffixed text/blob variants
// (TINYTEXT, MEDIUMBLOB, …) and BINARY/VARBINARY down to the canonical
// TEXT/BLOB, MEDIUMINT/INTEGER down to INT, and NUMERIC down to DECIMAL.
var canonicalTypeNames = map[string]string{
	"TINYINT":   "TINYINT",
	"BOOL":      "BOOL",
	"SMALLINT":  "SMALLINT",
	"MEDIUMINT": "INT",
	"INT":       "INT",
	"INTEGER":   "INT",
	"BIGINT":    "BIGINT",
	"DECIMAL":   "DECIMAL",
	"NUMERIC":   "DECIMAL",
	"FLOAT":     "FLOAT",
	"DOUBLE":    "DOUBLE",
	"VARCHAR":   "VARCHAR",
	"CHAR":      "CHAR",
	"TEXT":      "TEXT",
	"TINYTEXT":  "TEXT",
	"MEDIUMTEXT": "TEXT",
	"LONGTEXT":  "TEXT",
	"BLOB":      "BLOB",
	"TINYBLOB":  "BLOB",
	"MEDIUMBLOB": "BLOB",
	"LONGBLOB":  "BLOB",
	"BINARY":    "BLOB",
	"VARBINARY": "BLOB",
	"ENUM":      "ENUM",
	"SET":       "SET",
	"DATE":      "DATE",
	"TIME":      "TIME",
	"DATETIME":  "DATETIME",
	"TIMESTAMP": "TIMESTAMP",
	"YEAR":      "YEAR",
	"JSON":      "JSON",
	"GEOMETRY":  "GEOMETRY",
	"BIT":       "BIT",
	"NULL":      "NULL",
}

func canonicalTypeName(driverName string) string {
	if name, ok := canonicalTypeNames[driverName]; ok {
		return name
	}
	return driverName
}

// DecodeColumn canonicalizes one wire.Field into a ColumnInfo. Length is
// reported in characters for VARCHAR/CHAR/TEXT (the driver reports maximum
// byte length in a four-byte-per-character charset; dividing by 4 recovers
// the character count for the common utf8mb4 case), and left nil for
// fixed-size numeric, temporal, and other non-length-bearing types.
//
// DecimalSize is taken verbatim from the driver's own precision/scale
// report rather than re-derived from a raw column length and decimals
// count, since go-sql-driver/mysql already performs that derivation and
// re-deriving it independently risks silently disagreeing with the driver
// on edge cases (zero-scale DECIMAL, UNSIGNED adjustment) this layer has no
// independent way to verify without a live server.
func DecodeColumn(f wire.Field) *ColumnInfo {
	ci := &ColumnInfo{
		Name:     f.Name,
		TypeName: canonicalTypeName(f.DBTypeName),
	}
	if f.NullableOK {
		ci.Nullable = f.Nullable
	}

	switch ci.TypeName {
	case "VARCHAR", "CHAR", "TEXT":
		if f.LengthOK {
			chars := int(f.Length / 4)
			ci.Length = &chars
		}
	case "BLOB", "ENUM", "SET", "BIT":
		if f.LengthOK {
			raw := int(f.Length)
			ci.Length = &raw
		}
	}

	if ci.TypeName == "DECIMAL" && f.DecimalOK {
		ci.DecimalSize = &DecimalSize{Precision: int(f.Precision), Scale: int(f.Scale)}
	}

	return ci
}
