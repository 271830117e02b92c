package core

import (
	"fmt"
	"strings"
)

// emailKeywords are matched as substrings of the lower-cased header text.
var emailKeywords = []string{"email", "e-mail", "mail", "courriel"}

// FindEmailColumn returns the index of the first header cell whose text
// contains an email keyword, case-insensitively. It returns -1 when no
// header matches. A nil header is an input error.
func FindEmailColumn(header Row) (int, error) {
	if header == nil {
		return -1, fmt.Errorf("%w: missing header row", ErrInvalidInput)
	}

	for i, cell := range header {
		name := strings.ToLower(cell.String())
		if name == "" {
			continue
		}
		for _, kw := range emailKeywords {
			if strings.Contains(name, kw) {
				return i, nil
			}
		}
	}
	return -1, nil
}
