package plot

import (
	"fmt"
	"math"
	"path/filepath"
)

// Dims chooses the panel grid for n plots: as close to square as possible,
// wider than tall.
func Dims(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = int(math.Ceil(float64(n) / float64(cols)))
	return rows, cols
}

// FileName renders the deterministic plot file name for one figure. The
// scheme is stable across reruns so output directories can be diffed.
func FileName(dirout, caseName, variable, depthLabel, period, format string) string {
	name := fmt.Sprintf("state-map-%s_%s_%s_%s.%s",
		caseName, variable, depthLabel, period, format)
	return filepath.Join(dirout, name)
}
