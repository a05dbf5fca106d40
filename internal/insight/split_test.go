package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		reflection string
		strategy   string
	}{
		{
			name:       "marker line starts strategy",
			raw:        "foo\n**Suggested Day Strategy**\nbar",
			reflection: "foo",
			strategy:   "**Suggested Day Strategy**\nbar",
		},
		{
			name:       "no marker",
			raw:        "no marker here",
			reflection: "no marker here",
			strategy:   "",
		},
		{
			name:       "only first marker matters",
			raw:        "a\nDay Strategy one\nb\nDay Strategy two\nc",
			reflection: "a",
			strategy:   "Day Strategy one\nb\nDay Strategy two\nc",
		},
		{
			name:       "marker on first line",
			raw:        "Day Strategy\n9am: write",
			reflection: "",
			strategy:   "Day Strategy\n9am: write",
		},
		{
			name:       "surrounding blank lines trimmed",
			raw:        "\n\n**Inner Reflection Summary**\ncalm\n\n**Suggested Day Strategy (time-aligned tasks)**\n- 9am deep work\n\n",
			reflection: "**Inner Reflection Summary**\ncalm",
			strategy:   "**Suggested Day Strategy (time-aligned tasks)**\n- 9am deep work",
		},
		{
			name:       "case sensitive",
			raw:        "day strategy\nx",
			reflection: "day strategy\nx",
			strategy:   "",
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reflection, strategy := Split(tt.raw)
			assert.Equal(t, tt.reflection, reflection)
			assert.Equal(t, tt.strategy, strategy)
		})
	}
}
