package handlers

import (
	"fmt"
	"strconv"
)

func parsePaginationParams(pageStr, sizeStr string) (int64, int64, error) {
	page := int64(1)
	size := int64(20)

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, fmt.Errorf("invalid page %q", pageStr)
		}
		page = p
	}

	if sizeStr != "" {
		s, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil || s < 1 || s > 100 {
			return 0, 0, fmt.Errorf("invalid size %q", sizeStr)
		}
		size = s
	}

	return page, size, nil
}

// parseSortParam maps a requested sort field onto the stored field name.
// Only whitelisted fields are accepted; everything sorts descending.
func parseSortParam(sortStr, defaultField string, allowed map[string]string) (string, error) {
	if sortStr == "" {
		return defaultField, nil
	}
	if field, ok := allowed[sortStr]; ok {
		return field, nil
	}
	return "", fmt.Errorf("unsupported sort %q", sortStr)
}
