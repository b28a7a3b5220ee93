package settlement

import (
	"fmt"
	"strings"

	"nftmarket/native/common"
)

// NormalizeCurrency canonicalises currency symbols for consistent lookups.
func NormalizeCurrency(currency string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(currency))
	if trimmed == "" {
		return "", fmt.Errorf("settlement: currency symbol required: %w", common.ErrInvalidInput)
	}
	return trimmed, nil
}
