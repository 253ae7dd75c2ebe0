package plot

import "fmt"

// knownGrids maps a model grid identifier to the name of its depth
// coordinate. Plotting refuses grids it does not know rather than guessing
// coordinate conventions.
var knownGrids = map[string]string{
	"POP_gx1v7": "z_t",
	"1x1d":      "depth",
}

// DepthCoord resolves the depth coordinate name for a configured grid.
func DepthCoord(grid string) (string, error) {
	coord, ok := knownGrids[grid]
	if !ok {
		return "", fmt.Errorf("unknown grid %q", grid)
	}
	return coord, nil
}
