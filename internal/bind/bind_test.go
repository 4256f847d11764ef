package bind

import (
	"database/sql"
	"math/big"
	"testing"
	"time"

	"github.com/jpl-au/sqlitepdo/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapt(t *testing.T) {
	when := time.Date(2023, 1, 1, 17, 1, 32, 123_000_000, time.FixedZone("CET", 3600))

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"time becomes utc iso text", when, "2023-01-01T16:01:32.123Z"},
		{"time pointer", &when, "2023-01-01T16:01:32.123Z"},
		{"true", true, int64(1)},
		{"false", false, int64(0)},
		{"typed wrapper", As(TypeBoolean, true), int64(1)},
		{"nested typed wrapper", As(TypeText, As(TypeDateTime, when)), "2023-01-01T16:01:32.123Z"},
		{"typed pointer", &Typed{Type: TypeInteger, Value: int64(3)}, int64(3)},
		{"big int in range", big.NewInt(9007199254740993), int64(9007199254740993)},
		{"value int", value.NewInt(5), int64(5)},
		{"value bigint", value.NewBigInt(big.NewInt(-9007199254740993)), int64(-9007199254740993)},
		{"value decimal", value.NewDecimal("1.25"), "1.25"},
		{"value null", value.NewNull(), nil},
		{"nil", nil, nil},
		{"string", "text", "text"},
		{"float", 1.5, 1.5},
		{"blob", []byte{1}, []byte{1}},
		{"int passes through", 7, 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Adapt(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAdaptBigIntOutOfRange(t *testing.T) {
	huge, _ := new(big.Int).SetString("9223372036854775808", 10)
	_, err := Adapt(huge)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Adapt(As(TypeBigInt, huge))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPrimitive(t *testing.T) {
	got, err := Primitive(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	got, err = Primitive(float32(0.5))
	require.NoError(t, err)
	assert.Equal(t, float64(0.5), got)

	got, err = Primitive(true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	_, err = Primitive(struct{}{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestArgsPositional(t *testing.T) {
	out, err := Args(1, true, "x", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{1, int64(1), "x", nil}, out)
}

func TestArgsNamed(t *testing.T) {
	out, err := Args(sql.Named(":id", true), sql.Named("@name", "bob"), sql.Named("plain", 1.5))
	require.NoError(t, err)
	assert.Equal(t, []any{
		sql.Named("id", int64(1)),
		sql.Named("name", "bob"),
		sql.Named("plain", 1.5),
	}, out)
}

func TestArgsMap(t *testing.T) {
	out, err := Args(map[string]any{"b": false, ":a": "x"})
	require.NoError(t, err)
	assert.Equal(t, []any{sql.Named("a", "x"), sql.Named("b", int64(0))}, out)
}

func TestArgsMixed(t *testing.T) {
	_, err := Args(1, sql.Named("id", 2))
	assert.ErrorIs(t, err, ErrMixedParams)
	assert.EqualError(t, err, "mixed params numeric and keyed are forbidden")
}

func TestArgsReportsPosition(t *testing.T) {
	huge, _ := new(big.Int).SetString("-9223372036854775809", 10)
	_, err := Args("ok", huge)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "bind parameter 2")
}

func TestArgsEmpty(t *testing.T) {
	out, err := Args()
	require.NoError(t, err)
	assert.Empty(t, out)
}
