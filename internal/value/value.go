// Package value defines the cell values handed back to callers after a
// statement runs. A Value is a small tagged union: it always knows whether it
// holds a host-safe integer, an integer that needs arbitrary precision, an
// exact decimal rendered as text, plain text, a blob, or NULL.
package value

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
)

// Kind identifies which representation a Value carries.
type Kind uint8

const (
	// Null is SQL NULL. The zero Value is Null.
	Null Kind = iota
	// Int is an integer inside the safe range, held as int64.
	Int
	// BigInt is an integer outside the safe range, held as *big.Int.
	BigInt
	// Decimal is a number rendered as exact decimal text.
	Decimal
	// Text is a string cell.
	Text
	// Blob is a binary cell.
	Blob
)

var kindNames = [...]string{
	Null:    "null",
	Int:     "int",
	BigInt:  "bigint",
	Decimal: "decimal",
	Text:    "text",
	Blob:    "blob",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a converted cell. Use the constructors; the zero Value is NULL.
type Value struct {
	kind Kind
	i    int64
	big  *big.Int
	s    string
	b    []byte
}

// NewNull returns a NULL value.
func NewNull() Value { return Value{} }

// NewInt returns a safe-range integer value. Callers that cannot guarantee
// the range should go through numeric.FromInt64 instead.
func NewInt(n int64) Value { return Value{kind: Int, i: n} }

// NewBigInt returns an arbitrary-precision integer value. The argument is
// copied so later mutation by the caller does not leak in.
func NewBigInt(n *big.Int) Value {
	if n == nil {
		return Value{}
	}
	return Value{kind: BigInt, big: new(big.Int).Set(n)}
}

// NewDecimal returns a number held as exact decimal text.
func NewDecimal(s string) Value { return Value{kind: Decimal, s: s} }

// NewText returns a text value.
func NewText(s string) Value { return Value{kind: Text, s: s} }

// NewBlob returns a blob value. A nil slice is stored as an empty blob, not NULL.
func NewBlob(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{kind: Blob, b: b}
}

// Kind reports the representation held.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool { return v.kind == Null }

// IsInteger reports whether v holds an integer of either width.
func (v Value) IsInteger() bool { return v.kind == Int || v.kind == BigInt }

// Int64 returns the integer held by v. ok is false for non-integers and for
// big integers that do not fit in 64 bits.
func (v Value) Int64() (n int64, ok bool) {
	switch v.kind {
	case Int:
		return v.i, true
	case BigInt:
		if v.big.IsInt64() {
			return v.big.Int64(), true
		}
	}
	return 0, false
}

// BigInt returns the integer held by v as a fresh *big.Int, or nil when v is
// not an integer.
func (v Value) BigInt() *big.Int {
	switch v.kind {
	case Int:
		return big.NewInt(v.i)
	case BigInt:
		return new(big.Int).Set(v.big)
	}
	return nil
}

// Bytes returns the blob contents, or nil for other kinds.
func (v Value) Bytes() []byte {
	if v.kind == Blob {
		return v.b
	}
	return nil
}

// String renders v as text. Integers and decimals render their exact digits,
// NULL renders as "NULL" and blobs as a hex literal.
func (v Value) String() string {
	switch v.kind {
	case Null:
		return "NULL"
	case Int:
		return strconv.FormatInt(v.i, 10)
	case BigInt:
		return v.big.String()
	case Decimal, Text:
		return v.s
	case Blob:
		return fmt.Sprintf("x'%X'", v.b)
	}
	return ""
}

// Any returns the natural Go form of v: nil, int64, *big.Int, string for both
// decimals and text, or []byte.
func (v Value) Any() any {
	switch v.kind {
	case Int:
		return v.i
	case BigInt:
		return new(big.Int).Set(v.big)
	case Decimal, Text:
		return v.s
	case Blob:
		return v.b
	}
	return nil
}

// Equal reports whether a and b hold the same representation and contents.
// An Int and a BigInt of the same magnitude are equal.
func (v Value) Equal(o Value) bool {
	if v.IsInteger() && o.IsInteger() {
		return v.BigInt().Cmp(o.BigInt()) == 0
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Decimal, Text:
		return v.s == o.s
	case Blob:
		return bytes.Equal(v.b, o.b)
	}
	return false
}
