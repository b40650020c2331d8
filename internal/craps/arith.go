package craps

import (
	"fmt"
	"math"
)

func addUint64Checked(a, b uint64, field string) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, fmt.Errorf("%s overflows uint64", field)
	}
	return a + b, nil
}

func addInt64AndU64Checked(a int64, b uint64, field string) (int64, error) {
	if b > math.MaxInt64 {
		return 0, fmt.Errorf("%s: delta overflows int64", field)
	}
	if a > math.MaxInt64-int64(b) {
		return 0, fmt.Errorf("%s overflows int64", field)
	}
	return a + int64(b), nil
}
