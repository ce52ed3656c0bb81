package checkin

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ShortCodeWidth is the zero-padded width of generated short codes
const ShortCodeWidth = 5

// NextShortCode returns max(numeric codes)+1, zero padded. Gaps are never
// refilled. Codes that are not plain non-negative integers are ignored, as is
// a code at math.MaxInt, which has no successor.
func NextShortCode(existing []string) string {
	max := 0
	for _, code := range existing {
		n, err := strconv.Atoi(strings.TrimSpace(code))
		if err != nil || n < 0 || n == math.MaxInt {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%0*d", ShortCodeWidth, max+1)
}
