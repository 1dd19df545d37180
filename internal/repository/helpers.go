package repository

import (
	"database/sql"
	"time"

	"github.com/mfalkner/trackline/internal/domain"
)

const dateLayout = "2006-01-02"

// parseNullableTime parses a sql.NullString into a *time.Time using the given layout.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString, layout string) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTimeToString converts a *time.Time to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil, otherwise the formatted string.
func nullableTimeToString(t *time.Time, layout string) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(layout)
}

// nullableFloatToValue converts a *float64 to a value suitable for SQLite storage.
func nullableFloatToValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

// scanSignature assembles a *domain.Signature from three nullable columns.
// A signature exists only when all three are present.
func scanSignature(id, name, signedAt sql.NullString) *domain.Signature {
	if !id.Valid || !signedAt.Valid {
		return nil
	}
	at, err := time.Parse(time.RFC3339, signedAt.String)
	if err != nil {
		return nil
	}
	return &domain.Signature{SignerID: id.String, SignerName: name.String, SignedAt: at}
}

// signatureColumns explodes a *domain.Signature into three storage values.
func signatureColumns(sig *domain.Signature) (interface{}, interface{}, interface{}) {
	if sig == nil {
		return nil, nil, nil
	}
	return sig.SignerID, sig.SignerName, sig.SignedAt.UTC().Format(time.RFC3339)
}
