package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_JSON(t *testing.T) {
	var v struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"3s","b":1500000000}`), &v))
	assert.Equal(t, 3*time.Second, v.A.Duration)
	assert.Equal(t, 1500*time.Millisecond, v.B.Duration)

	out, err := json.Marshal(v.A)
	require.NoError(t, err)
	assert.JSONEq(t, `"3s"`, string(out))
}

func TestDuration_YAML(t *testing.T) {
	var v struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 250ms\nb: 2000000000\n"), &v))
	assert.Equal(t, 250*time.Millisecond, v.A.Duration)
	assert.Equal(t, 2*time.Second, v.B.Duration)
}

func TestDuration_Invalid(t *testing.T) {
	var d Duration
	require.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	require.Error(t, json.Unmarshal([]byte(`true`), &d))
}
