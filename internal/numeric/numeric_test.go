package numeric

import (
	"math"
	"math/big"
	"strconv"
	"testing"

	"github.com/jpl-au/sqlitepdo/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	integers := []string{
		"DATE", "DATETIME", "BOOLEAN", "INT", "INTEGER", "TINYINT", "SMALLINT",
		"MEDIUMINT", "BIGINT", "UNSIGNED BIG INT", "INT2", "INT8",
		"integer", "BigInt", " int ",
	}
	for _, name := range integers {
		assert.True(t, Classify(name), "Classify(%q)", name)
	}

	others := []string{"REAL", "DOUBLE", "FLOAT", "NUMERIC", "DECIMAL", "TEXT", "BLOB", "VARCHAR(10)", "TIMESTAMP"}
	for _, name := range others {
		assert.False(t, Classify(name), "Classify(%q)", name)
	}
}

func TestClassifyAbsentType(t *testing.T) {
	assert.True(t, Classify(""))
}

func TestToSafeSafeIntegers(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, MaxSafeInteger, MinSafeInteger, 1672504892} {
		v, err := ToSafe(n, true)
		require.NoError(t, err)
		assert.Equal(t, value.Int, v.Kind(), "n=%d", n)
		got, ok := v.Int64()
		require.True(t, ok)
		assert.Equal(t, n, got)
	}
}

func TestToSafeUnsafeIntegers(t *testing.T) {
	for _, n := range []int64{MaxSafeInteger + 1, MinSafeInteger - 1, math.MaxInt64, math.MinInt64, 1234567890123456789} {
		v, err := ToSafe(n, true)
		require.NoError(t, err)
		assert.Equal(t, value.BigInt, v.Kind(), "n=%d", n)
		assert.Equal(t, strconv.FormatInt(n, 10), v.String())
	}
}

func TestToSafeFractionalFloats(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{900719925474099.1267, "900719925474099.1"},
		{1234.566867670657, "1234.566867670657"},
		{1234.12, "1234.12"},
		{1234567.12, "1234567.12"},
		{12345.6789, "12345.6789"},
		{-0.5, "-0.5"},
		{1e-7, "0.0000001"},
	}
	for _, tc := range tests {
		for _, family := range []bool{true, false} {
			v, err := ToSafe(tc.in, family)
			require.NoError(t, err)
			assert.Equal(t, value.Decimal, v.Kind())
			assert.Equal(t, tc.want, v.String())

			back, err := strconv.ParseFloat(v.String(), 64)
			require.NoError(t, err)
			assert.Equal(t, tc.in, back)
		}
	}
}

func TestToSafeOutsideIntegerFamily(t *testing.T) {
	v, err := ToSafe(int64(9007199254740993), false)
	require.NoError(t, err)
	assert.Equal(t, value.Decimal, v.Kind())
	assert.Equal(t, "9007199254740993", v.String())

	v, err = ToSafe(float64(5), false)
	require.NoError(t, err)
	assert.Equal(t, value.Decimal, v.Kind())
	assert.Equal(t, "5", v.String())
}

func TestToSafeIntegralFloat(t *testing.T) {
	v, err := ToSafe(float64(42), true)
	require.NoError(t, err)
	assert.Equal(t, value.Int, v.Kind())
	assert.Equal(t, "42", v.String())

	// 2^63 is exactly representable as a float64 but not as an int64.
	v, err = ToSafe(math.Ldexp(1, 63), true)
	require.NoError(t, err)
	assert.Equal(t, value.BigInt, v.Kind())
	want, _ := new(big.Int).SetString("9223372036854775808", 10)
	assert.Equal(t, want.String(), v.String())
}

func TestToSafeNonFinite(t *testing.T) {
	v, err := ToSafe(math.Inf(1), true)
	require.NoError(t, err)
	assert.Equal(t, value.Decimal, v.Kind())
	assert.Equal(t, "Infinity", v.String())

	v, err = ToSafe(math.Inf(-1), false)
	require.NoError(t, err)
	assert.Equal(t, "-Infinity", v.String())

	v, err = ToSafe(math.NaN(), false)
	require.NoError(t, err)
	assert.Equal(t, value.Decimal, v.Kind())
	assert.Equal(t, "NaN", v.String())
}

func TestToSafeRejectsOtherTypes(t *testing.T) {
	for _, raw := range []any{"1", []byte("1"), nil, 1, int32(1)} {
		_, err := ToSafe(raw, true)
		assert.ErrorIs(t, err, ErrNotNumeric, "raw=%#v", raw)
	}
}

func TestBoundaryCast(t *testing.T) {
	v, err := ToSafe(int64(9007199254740992), true)
	require.NoError(t, err)
	assert.Equal(t, value.BigInt, v.Kind())
	assert.Equal(t, "9007199254740992", v.String())

	v, err = ToSafe(int64(9007199254740991), true)
	require.NoError(t, err)
	assert.Equal(t, value.Int, v.Kind())
}
