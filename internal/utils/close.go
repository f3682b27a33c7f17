package utils

import (
	"io"

	"github.com/MrSnakeDoc/portal/internal/logger"
)

// MustClose closes c and logs any error.
// Use for defer statements where we want to track close errors.
func MustClose(log logger.Logger, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.Error(err))
	}
}
