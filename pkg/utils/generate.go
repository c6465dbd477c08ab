package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ==================== ORDER CODE ====================

// GenerateOrderCode builds the human-facing order code shown on tickets.
// Format: TKT-YYYYMMDD-HHMMSS-XXXXXXXX, suffix taken from the order UUID so
// codes issued in the same second stay distinct.
func GenerateOrderCode(id uuid.UUID, now time.Time) string {
	datePart := now.Format("20060102")
	timePart := now.Format("150405")
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])

	return fmt.Sprintf("TKT-%s-%s-%s", datePart, timePart, suffix)
}

// ==================== PARSING ====================

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}
