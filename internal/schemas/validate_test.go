package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_KeywordsResponse(t *testing.T) {
	tests := []struct {
		name     string
		document string
		valid    bool
	}{
		{"valid list", `{"keywords": ["Company X", "product Y"]}`, true},
		{"empty list", `{"keywords": []}`, true},
		{"missing keywords field", `{"words": ["a"]}`, false},
		{"wrong element type", `{"keywords": [1, 2]}`, false},
		{"not JSON", `keywords: a, b`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(KeywordsResponse, tt.document)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.NotEmpty(t, ve.Errors)
			}
		})
	}
}

func TestValidate_RelevanceResponse(t *testing.T) {
	assert.NoError(t, Validate(RelevanceResponse, `{"score": 0.8, "reason": "mentions the launch"}`))
	assert.NoError(t, Validate(RelevanceResponse, `{"score": 0}`))

	assert.Error(t, Validate(RelevanceResponse, `{"reason": "no score"}`))
	assert.Error(t, Validate(RelevanceResponse, `{"score": "high"}`))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.schema.json", `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema")
}
