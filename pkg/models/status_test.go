package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildStatus_String(t *testing.T) {
	tests := []struct {
		status BuildStatus
		want   string
	}{
		{BuildStatusUnset, "unset"},
		{BuildStatusSuccess, "success"},
		{BuildStatusWarning, "warning"},
		{BuildStatusFailure, "failure"},
		{BuildStatusSkipped, "skipped"},
		{BuildStatusNotFound, "not_found"},
		{BuildStatusDBError, "db_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestBuildStatus_IsValid(t *testing.T) {
	tests := []struct {
		status BuildStatus
		want   bool
	}{
		{BuildStatusSuccess, true},
		{BuildStatusWarning, true},
		{BuildStatusFailure, true},
		{BuildStatusSkipped, true},
		{BuildStatusUnset, false},
		{BuildStatusNotFound, false},
		{BuildStatusDBError, false},
		{BuildStatus("arbitrary"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.IsValid(), "BuildStatus(%q).IsValid()", string(tt.status))
	}
}

func TestDiagnosticKind_String(t *testing.T) {
	assert.Equal(t, "broken_link", DiagnosticBrokenLink.String())
	assert.Equal(t, "missing_header", DiagnosticMissingHeader.String())
}
