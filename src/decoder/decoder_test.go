package decoder

import (
	"testing"

	"telemetry-viewer/src/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeArray(t *testing.T) {
	d := NewDecoder(4)

	sample, err := d.Decode([]byte(`[1, "x", 2.5, true, null, -3, 4, 5]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2", "v3", "v4"}, sample.Labels)
	assert.Equal(t, []float64{1, 2.5, -3, 4}, sample.Values)
}

func TestDecodeObjectSortsKeys(t *testing.T) {
	d := NewDecoder(4)

	sample, err := d.Decode([]byte(`{"temp": 21.5, "hum": 40, "name": "dev", "acc": 0.1}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"acc", "hum", "temp"}, sample.Labels)
	assert.Equal(t, []float64{0.1, 40, 21.5}, sample.Values)
}

func TestDecodeObjectKeepsFirstKeys(t *testing.T) {
	d := NewDecoder(4)

	sample, err := d.Decode([]byte(`{"e": 5, "d": 4, "c": 3, "b": 2, "a": 1}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, sample.Labels)
	assert.Equal(t, []float64{1, 2, 3, 4}, sample.Values)
}

func TestDecodeSkipsNested(t *testing.T) {
	d := NewDecoder(4)

	sample, err := d.Decode([]byte(`{"nested": {"a": 1}, "list": [1, 2], "v": 7}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, sample.Labels)
	assert.Equal(t, []float64{7}, sample.Values)
}

func TestDecodeHonoursMaxSeries(t *testing.T) {
	d := NewDecoder(2)

	sample, err := d.Decode([]byte(`[9, 8, 7]`))
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 8}, sample.Values)

	assert.Equal(t, 4, NewDecoder(0).maxSeries)
}

func TestDecodeRejects(t *testing.T) {
	d := NewDecoder(4)

	cases := map[string]string{
		"not json":       `temp=21`,
		"empty":          ``,
		"scalar number":  `42`,
		"scalar string":  `"42"`,
		"null":           `null`,
		"empty array":    `[]`,
		"no numbers":     `["a", true, null]`,
		"empty object":   `{}`,
		"string values":  `{"a": "1", "b": "2"}`,
		"out of range":   `[1e400]`,
		"trailing value": `[1] [2]`,
		"stray bracket":  `[1,2]]`,
		"stray brace":    `{"a":1}}`,
		"trailing text":  `[1] x`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			sample, err := d.Decode([]byte(payload))
			require.Error(t, err)
			assert.Equal(t, 0, sample.Len())

			var decodeErr *helpers.DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestDecodeLabelsMatchValues(t *testing.T) {
	d := NewDecoder(4)
	payloads := []string{`[1]`, `[1,2,3,4,5,6]`, `{"a":1}`, `{"a":1,"b":"x","c":3}`}
	for _, p := range payloads {
		sample, err := d.Decode([]byte(p))
		require.NoError(t, err)
		assert.Len(t, sample.Labels, len(sample.Values))
		assert.GreaterOrEqual(t, sample.Len(), 1)
		assert.LessOrEqual(t, sample.Len(), 4)
	}
}

func TestDecodeAllowsTrailingWhitespace(t *testing.T) {
	sample, err := NewDecoder(4).Decode([]byte("  [1, 2]\r\n\t "))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, sample.Values)
}
