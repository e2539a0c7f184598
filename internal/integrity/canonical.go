package integrity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"coinsync/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical JSON form used for content hashing.
//
// Differences from json.Marshal:
//  1. Object keys are sorted, whatever order the value was built in
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Numbers are written in their shortest exact decimal form
//
// Structs are reduced to a generic JSON tree first, so two values with the
// same fields serialize identically regardless of declaration order.
func MarshalCanonical(v any) ([]byte, error) {
	tree, err := toTree(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, tree, "$"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toTree converts v into nil, bool, string, json.Number, []any or map[string]any.
// Containers always take the json.Marshal route so nested values get the
// same treatment as top-level ones.
func toTree(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, json.Number:
		return val, nil
	case decimal.Decimal:
		return json.Number(val.String()), nil
	case int:
		return json.Number(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(val, 10)), nil
	case float64:
		return floatNumber(val)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &domain.SerializationError{Path: "$", Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, &domain.SerializationError{Path: "$", Err: err}
	}
	return tree, nil
}

func floatNumber(f float64) (json.Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", &domain.SerializationError{Path: "$", Err: fmt.Errorf("non-finite number %v", f)}
	}
	return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

func writeCanonical(buf *bytes.Buffer, v any, path string) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		return writeString(buf, val)
	case json.Number:
		return writeNumber(buf, val, path)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k], path+"."+k); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return &domain.SerializationError{Path: path, Err: fmt.Errorf("unsupported type %T", v)}
	}
	return nil
}

// writeNumber normalizes a number through decimal so 16, 16.0 and 1.6e1
// all serialize as 16.
func writeNumber(buf *bytes.Buffer, n json.Number, path string) error {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}
	buf.WriteString(d.String())
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// Encoder appends a newline.
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}
