package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpperCamelCase(t *testing.T) {
	tests := map[string]string{
		"executable":  "Executable",
		"current_dir": "CurrentDir",
		"user_id":     "UserID",
		"userID":      "UserID",
		"url":         "URL",
		"Args":        "Args",
		"_private":    "Private",
		"x":           "X",
		"名字":          "名字",
		"__":          "__",
	}
	for input, expected := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, expected, UpperCamelCase(input))
		})
	}
}

func TestLowerFirst(t *testing.T) {
	assert.Equal(t, "", LowerFirst(""))
	assert.Equal(t, "executable", LowerFirst("Executable"))
	assert.Equal(t, "uRL", LowerFirst("URL"))
}

func TestSafeParamName(t *testing.T) {
	assert.Equal(t, "executable", SafeParamName("executable"))
	assert.Equal(t, "typeVal", SafeParamName("type"))
	assert.Equal(t, "rangeVal", SafeParamName("Range"))
	assert.Equal(t, "bVal", SafeParamName("b", "b"))
	assert.Equal(t, "moValVal", SafeParamName("mo", "mo", "moVal"))
	assert.Equal(t, "v", SafeParamName("_"))
}
