package fingerprint

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf_Deterministic(t *testing.T) {
	wins := 10
	f := Fields{"name": "Jon Jones", "wins": &wins, "stance": (*string)(nil)}

	first := Of(f)
	second := Of(f)

	assert.Len(t, first, 64)
	assert.Equal(t, first, second)
}

func TestOf_FieldOrderIndependent(t *testing.T) {
	// 同一语义记录，上游以不同字段顺序给出
	a := `{"name":"Jon Jones","record":"27-1-0","wins":27,"reachInches":84}`
	b := `{"reachInches":84,"wins":27,"name":"Jon Jones","record":"27-1-0"}`

	var fa, fb map[string]any
	require.NoError(t, json.Unmarshal([]byte(a), &fa))
	require.NoError(t, json.Unmarshal([]byte(b), &fb))

	assert.Equal(t, Of(fa), Of(fb))
}

func TestOf_DetectsValueChanges(t *testing.T) {
	base := Fields{"name": "A", "wins": 1}

	tests := []struct {
		name   string
		fields Fields
	}{
		{"value changed", Fields{"name": "A", "wins": 2}},
		{"field added", Fields{"name": "A", "wins": 1, "losses": 0}},
		{"null vs zero", Fields{"name": "A", "wins": nil}},
		{"key renamed", Fields{"name": "A", "win": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, Of(base), Of(tt.fields))
		})
	}
}

func TestOf_TimeValues(t *testing.T) {
	ts := time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, Of(Fields{"date": ts}), Of(Fields{"date": ts}))
	assert.NotEqual(t, Of(Fields{"date": ts}), Of(Fields{"date": ts.Add(time.Hour)}))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("abc", "abc"))
	assert.False(t, Equal("abc", "abd"))
	assert.False(t, Equal("", ""))
}
