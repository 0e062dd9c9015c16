// Package debug provides logging, render metering and buffer analysis for
// units and their hosts.
package debug

import (
	"io"

	"github.com/sirupsen/logrus"
)

var logger = logrus.StandardLogger()

// Default returns the logger used by every package in the module. It is
// the logrus standard logger, so package-level logrus calls share its
// level and output.
func Default() *logrus.Logger {
	return logger
}

// SetOutput sets the output destination for the package logger.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetLevel sets the minimum level of the package logger.
func SetLevel(level logrus.Level) {
	logger.SetLevel(level)
}

// SetVerbose switches the package logger between Info and Debug.
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		return
	}
	logger.SetLevel(logrus.InfoLevel)
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(name string) *logrus.Entry {
	return logger.WithField("component", name)
}
