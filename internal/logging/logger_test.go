package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{" WARN ", logrus.WarnLevel},
		{"", logrus.InfoLevel},
		{"loud", logrus.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.in, "json").GetLevel(), tt.in)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")
	WithService(logger, "rivalscope").WithField("post_id", "p1").Info("post analysed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "rivalscope", line["service"])
	assert.Equal(t, "p1", line["post_id"])
	assert.Equal(t, "post analysed", line["msg"])
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info", "TEXT").Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
