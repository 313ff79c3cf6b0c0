package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Min        int     `json:"min"`
	Max        int     `json:"max"`
	Confidence float64 `json:"confidence"`
}

func TestDecodeJSONObject(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"plain", `{"min": 100, "max": 500, "confidence": 0.7}`},
		{"fenced", "```json\n{\"min\": 100, \"max\": 500, \"confidence\": 0.7}\n```"},
		{"bare fence", "```\n{\"min\": 100, \"max\": 500, \"confidence\": 0.7}\n```"},
		{"surrounded by prose", "Sure, here is the estimate:\n{\"min\": 100, \"max\": 500, \"confidence\": 0.7}\nLet me know if you need more."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p payload
			require.NoError(t, DecodeJSONObject(tc.input, &p))
			require.Equal(t, 100, p.Min)
			require.Equal(t, 500, p.Max)
			require.InDelta(t, 0.7, p.Confidence, 1e-9)
		})
	}
}

func TestDecodeJSONObjectErrors(t *testing.T) {
	var p payload
	require.Error(t, DecodeJSONObject("no structured data here", &p))
	require.Error(t, DecodeJSONObject(`{"min": "not a number"}`, &p))
	require.Error(t, DecodeJSONObject("", &p))
}
