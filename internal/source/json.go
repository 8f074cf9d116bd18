package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// Request is a JSON validation request body.
type Request struct {
	Variant string
	Records []core.RawRecord
}

// DecodeRecords decodes a JSON array of objects, or an object holding such
// an array under "records". Integers stay integers: 7 decodes as int64 and
// 7.0 as float64.
func DecodeRecords(r io.Reader) ([]core.RawRecord, error) {
	req, err := DecodeRequest(r)
	if err != nil {
		return nil, err
	}
	return req.Records, nil
}

// DecodeRequest decodes either a bare records array or an object of the
// form {"variant": "github", "records": [...]}.
func DecodeRequest(r io.Reader) (Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Request{}, err
	}
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(data) == 0 {
		return Request{}, ErrEmptyFile
	}

	var req Request
	var raw []map[string]any
	if data[0] == '{' {
		var body struct {
			Variant string           `json:"variant"`
			Records []map[string]any `json:"records"`
		}
		if err := decodeNumbers(data, &body); err != nil {
			return Request{}, err
		}
		req.Variant = body.Variant
		raw = body.Records
	} else if err := decodeNumbers(data, &raw); err != nil {
		return Request{}, err
	}

	req.Records = make([]core.RawRecord, len(raw))
	for i, m := range raw {
		rec := make(core.RawRecord, len(m))
		for k, v := range m {
			rec[k] = NormalizeJSONValue(v)
		}
		req.Records[i] = rec
	}
	return req, nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// NormalizeJSONValue converts json.Number to int64 or float64. Other values
// are returned unchanged.
func NormalizeJSONValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(string(n), 64); err == nil && !math.IsInf(f, 0) {
		return f
	}
	return string(n)
}

func jsonHeader(recs []core.RawRecord) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range recs {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
