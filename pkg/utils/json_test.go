package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"prose around", "Here you go: {\"a\":{\"b\":2}} thanks", `{"a":{"b":2}}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"array", `result: [{"name":"x"}] done`, `[{"name":"x"}]`},
		{"brace in string", `{"a":"}{"}`, `{"a":"}{"}`},
		{"escaped quote", `{"a":"say \"hi\" }"}`, `{"a":"say \"hi\" }"}`},
		{"none", "no json here", ""},
		{"unterminated", `{"a":1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestSanitizeJSON(t *testing.T) {
	assert.Equal(t, `{"a":[1,2]}`, SanitizeJSON("\ufeff{\"a\":[1,2,]}"))
	assert.Equal(t, `{"CoreRequirements": [], "NiceToHave": []}`, SanitizeJSON(`{"CoreRequirements": [], "NiceToHave": [],}`))
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(""))
}

func TestConvertToJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(ConvertToJSON(map[string]int{"a": 1})))
	assert.Equal(t, `{}`, string(ConvertToJSON(nil)))
}
