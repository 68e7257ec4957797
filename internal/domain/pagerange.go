package domain

import (
	"strconv"
	"strings"
)

// ParsePageRanges parses a comma-separated list of 1-indexed pages and
// inclusive a-b ranges against a document of total pages.
//
// Out-of-bounds pages are dropped. Order and duplicates are kept as written.
func ParsePageRanges(expr string, total int) ([]int, error) {
	pages := make([]int, 0)

	for _, token := range strings.Split(expr, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if startText, endText, isRange := strings.Cut(token, "-"); isRange {
			start, err := parsePage(startText)
			if err != nil {
				return nil, err
			}
			end, err := parsePage(endText)
			if err != nil {
				return nil, err
			}
			if start < 1 || end < start {
				return nil, NewUserError(ErrInvalidRange, "Invalid range.")
			}
			for p := max(start, 1); p <= min(end, total); p++ {
				pages = append(pages, p)
			}
			continue
		}

		page, err := parsePage(token)
		if err != nil {
			return nil, err
		}
		if page >= 1 && page <= total {
			pages = append(pages, page)
		}
	}

	if len(pages) == 0 {
		return nil, NewUserError(ErrNoValidPages, "No valid pages.")
	}
	return pages, nil
}

func parsePage(text string) (int, error) {
	page, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, NewUserError(ErrInvalidPage, "Invalid page number: "+strings.TrimSpace(text))
	}
	return page, nil
}
