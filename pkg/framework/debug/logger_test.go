package debug

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	old := Default().Out
	SetOutput(&buf)
	defer SetOutput(old)

	WithComponent("unit").WithFields(logrus.Fields{
		"function": "AllocateRenderResources",
	}).Info("allocated")

	out := buf.String()
	assert.Contains(t, out, "component=unit")
	assert.Contains(t, out, "function=AllocateRenderResources")
	assert.Contains(t, out, "allocated")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	old, oldLevel := Default().Out, Default().GetLevel()
	SetOutput(&buf)
	defer func() {
		SetOutput(old)
		SetLevel(oldLevel)
	}()

	SetLevel(logrus.WarnLevel)
	Default().Info("hidden")
	Default().Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	SetVerbose(true)
	assert.Equal(t, logrus.DebugLevel, Default().GetLevel())
	SetVerbose(false)
	assert.Equal(t, logrus.InfoLevel, Default().GetLevel())
}
