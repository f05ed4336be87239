package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoad(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  *float64
	}{
		{name: "plain integer string", input: "20", want: floatPtr(20)},
		{name: "trailing unit", input: "20kg", want: floatPtr(20)},
		{name: "decimal comma", input: "20,5", want: floatPtr(20.5)},
		{name: "decimal point", input: "20.5", want: floatPtr(20.5)},
		{name: "numeric input", input: 7, want: floatPtr(7)},
		{name: "float input", input: 12.5, want: floatPtr(12.5)},
		{name: "negative", input: "-5kg", want: floatPtr(-5)},
		{name: "surrounding whitespace", input: "  80 kg ", want: floatPtr(80)},
		{name: "empty string", input: "", want: nil},
		{name: "whitespace only", input: "   ", want: nil},
		{name: "nil", input: nil, want: nil},
		{name: "no digits", input: "bodyweight", want: nil},
		{name: "unsupported type", input: []string{"20"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLoad(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseReps(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  *float64
	}{
		{name: "multi-value scheme takes first", input: "12-10-8", want: floatPtr(12)},
		{name: "single value", input: "15", want: floatPtr(15)},
		{name: "amrap marker", input: "AMRAP", want: nil},
		{name: "reps with suffix", input: "8+", want: floatPtr(8)},
		{name: "numeric", input: 10, want: floatPtr(10)},
		{name: "nil", input: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReps(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestMaxLoadAndReps_SetDetails(t *testing.T) {
	performed := map[string]interface{}{
		"setDetails": []interface{}{
			map[string]interface{}{"reps": "12", "load": "20kg"},
			map[string]interface{}{"reps": "10", "load": "22,5"},
			map[string]interface{}{"reps": "8", "load": "25"},
		},
	}

	s := MaxLoadAndReps(performed)

	require.NotNil(t, s.LoadValue)
	assert.InDelta(t, 25.0, *s.LoadValue, 1e-9)
	require.NotNil(t, s.LoadRaw)
	assert.Equal(t, "25", *s.LoadRaw)

	require.NotNil(t, s.RepsValue)
	assert.InDelta(t, 12.0, *s.RepsValue, 1e-9)
	require.NotNil(t, s.RepsRaw)
	assert.Equal(t, "12", *s.RepsRaw)
}

func TestMaxLoadAndReps_TopLevelFields(t *testing.T) {
	performed := map[string]interface{}{
		"load": "30kg",
		"reps": "12-10-8",
	}

	s := MaxLoadAndReps(performed)

	require.NotNil(t, s.LoadValue)
	assert.InDelta(t, 30.0, *s.LoadValue, 1e-9)
	require.NotNil(t, s.RepsValue)
	assert.InDelta(t, 12.0, *s.RepsValue, 1e-9)
}

func TestMaxLoadAndReps_IgnoresMalformedEntries(t *testing.T) {
	performed := map[string]interface{}{
		"setDetails": []interface{}{
			"not a map",
			map[string]interface{}{"reps": "bad", "load": nil},
			map[string]interface{}{"reps": "6", "load": "40"},
		},
	}

	s := MaxLoadAndReps(performed)

	require.NotNil(t, s.LoadValue)
	assert.InDelta(t, 40.0, *s.LoadValue, 1e-9)
	require.NotNil(t, s.RepsValue)
	assert.InDelta(t, 6.0, *s.RepsValue, 1e-9)
}

func TestMaxLoadAndReps_Empty(t *testing.T) {
	assert.False(t, MaxLoadAndReps(nil).HasData())
	assert.False(t, MaxLoadAndReps(map[string]interface{}{}).HasData())
	assert.False(t, MaxLoadAndReps(map[string]interface{}{"comment": "felt great"}).HasData())
}

func TestSummaryMerge(t *testing.T) {
	a := MaxLoadAndReps(map[string]interface{}{"load": "20", "reps": "12"})
	b := MaxLoadAndReps(map[string]interface{}{"load": "25", "reps": "8"})

	a.Merge(b)

	require.NotNil(t, a.LoadValue)
	assert.InDelta(t, 25.0, *a.LoadValue, 1e-9)
	require.NotNil(t, a.RepsValue)
	assert.InDelta(t, 12.0, *a.RepsValue, 1e-9)
}

func floatPtr(f float64) *float64 { return &f }
