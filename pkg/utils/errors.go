package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrRender           = errors.New("markup rendering error")   // Wraps goldmark failures
	ErrLayout           = errors.New("layout rendering error")   // Wraps template parse/execute failures
	ErrParsing          = errors.New("parsing error")            // Wraps HTML, YAML and JSON parsing errors
	ErrFilesystem       = errors.New("filesystem error")         // Wraps os errors
	ErrDatabase         = errors.New("database error")           // Wraps badger errors
	ErrConfigValidation = errors.New("configuration validation error")
	ErrTemplateOnly     = errors.New("template-only source is never generated")
	ErrNotFound         = errors.New("guide not found")
)

// WrapErrorf wraps a sentinel error with a formatted context message.
func WrapErrorf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// CategorizeError maps an error to a predefined category string for logging/metrics.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrTemplateOnly):
		return "Source_TemplateOnly"
	case errors.Is(err, ErrNotFound):
		return "Source_NotFound"
	case errors.Is(err, ErrRender):
		return "Content_Render"
	case errors.Is(err, ErrLayout):
		return "Content_Layout"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		if strings.Contains(errMsg, "YAML") {
			return "Content_ParsingYAML"
		}
		if strings.Contains(errMsg, "JSON") {
			return "Content_ParsingJSON"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		if errors.Is(err, os.ErrExist) {
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}
	if errors.Is(err, os.ErrNotExist) {
		return "Filesystem_NotExist"
	}

	return "Unknown"
}
