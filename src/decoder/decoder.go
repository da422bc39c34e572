package decoder

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"sort"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/utils"
)

// -----------------------------------------------------------------------------
// Decoder turns a raw telemetry payload into at most MaxSeries labeled values.
//
//   - JSON array: numeric elements in order, labeled v1..vn
//   - JSON object: numeric entries ordered by key, labeled by key
//   - anything else, or nothing numeric: rejected
// -----------------------------------------------------------------------------

type Decoder struct {
	maxSeries int
}

// -----------------------------------------------------------------------------

func NewDecoder(maxSeries int) *Decoder {
	if maxSeries <= 0 {
		maxSeries = utils.DefaultMaxSeries
	}
	return &Decoder{maxSeries: maxSeries}
}

// -----------------------------------------------------------------------------

// Decode parses payload. A nil error always comes with 1..maxSeries values.
func (d *Decoder) Decode(payload []byte) (models.MSample, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return models.MSample{}, helpers.NewDecodeError("payload is not valid JSON", err)
	}
	// Only whitespace may follow the value, stray closers included
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return models.MSample{}, helpers.NewDecodeError("trailing data after JSON value", err)
	}

	var sample models.MSample
	switch v := doc.(type) {
	case []interface{}:
		sample = d.fromArray(v)
	case map[string]interface{}:
		sample = d.fromObject(v)
	default:
		return models.MSample{}, helpers.NewDecodeError("payload is neither an array nor an object", nil)
	}

	if sample.Len() == 0 {
		return models.MSample{}, helpers.NewDecodeError("payload carries no numeric values", nil)
	}
	return sample, nil
}

// -----------------------------------------------------------------------------

func (d *Decoder) fromArray(items []interface{}) models.MSample {
	var sample models.MSample
	for _, item := range items {
		if len(sample.Values) == d.maxSeries {
			break
		}
		f, ok := number(item)
		if !ok {
			continue
		}
		sample.Labels = append(sample.Labels, utils.DefaultLabel(len(sample.Values)))
		sample.Values = append(sample.Values, f)
	}
	return sample
}

// -----------------------------------------------------------------------------

func (d *Decoder) fromObject(obj map[string]interface{}) models.MSample {
	keys := make([]string, 0, len(obj))
	for k, v := range obj {
		if _, ok := number(v); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) > d.maxSeries {
		keys = keys[:d.maxSeries]
	}

	sample := models.MSample{
		Labels: make([]string, 0, len(keys)),
		Values: make([]float64, 0, len(keys)),
	}
	for _, k := range keys {
		f, _ := number(obj[k])
		sample.Labels = append(sample.Labels, k)
		sample.Values = append(sample.Values, f)
	}
	return sample
}

// -----------------------------------------------------------------------------

// number reports whether v is a JSON number that fits a finite float64.
// Booleans, strings, null and nested values are not numbers.
func number(v interface{}) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
