package value

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
)

// MarshalJSON encodes integers of either width as bare JSON numbers so no
// digit is lost, decimals and text as strings, blobs as base64 strings and
// NULL as null. Consumers that parse into float64 will round big integers;
// consumers using json.Number or an arbitrary-precision decoder will not.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Int:
		return strconv.AppendInt(nil, v.i, 10), nil
	case BigInt:
		return []byte(v.big.String()), nil
	case Decimal, Text:
		return json.Marshal(v.s)
	case Blob:
		return json.Marshal(base64.StdEncoding.EncodeToString(v.b))
	}
	return []byte("null"), nil
}
