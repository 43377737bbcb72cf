package utils

import (
	"strconv"
)

// ParseInt reads a positive integer, falling back to defaultValue.
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil || result < 1 {
		return defaultValue
	}
	return result
}

// CalculateOffset turns a 1-based page into a row offset.
func CalculateOffset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	return (page - 1) * perPage
}

func CalculateTotalPages(total int64, perPage int) int {
	if perPage < 1 || total < 1 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
