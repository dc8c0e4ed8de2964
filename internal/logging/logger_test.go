package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	l := NewLogger("debug")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestNewLogger_BadLevel(t *testing.T) {
	l := NewLogger("loud")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}
