package inputfile

import (
	"fmt"
	"strconv"
)

// DiscretizationKeyword holds the grid zone counts.
const DiscretizationKeyword = "DISCRETIZATION"

var zoneKeys = [3]string{"xzones", "yzones", "zzones"}

// GridShape returns the number of grid blocks along X, Y and Z. Zone lines
// hold count/spacing pairs; the counts are summed. An axis DISCRETIZATION
// does not declare extends to the largest region bound on that axis, or 1.
func (t *Template) GridShape() [3]int {
	var shape [3]int
	if disc, ok := t.Blocks[DiscretizationKeyword]; ok {
		for axis, key := range zoneKeys {
			values, ok := disc.Get(key)
			if !ok {
				continue
			}
			total := 0
			for i := 0; i < len(values); i += 2 {
				n, err := strconv.ParseFloat(values[i], 64)
				if err != nil {
					break
				}
				total += int(n)
			}
			shape[axis] = total
		}
	}

	for axis := range shape {
		if shape[axis] > 0 {
			continue
		}
		shape[axis] = 1
		for _, cond := range t.Conditions {
			for _, region := range cond.Regions {
				if region != Unapplied && region[axis][1] > shape[axis] {
					shape[axis] = region[axis][1]
				}
			}
		}
	}
	return shape
}

// RowsForCondition returns the 0-based rows, in simulator output order (X
// fastest, then Y, then Z), covered by the condition's regions. Unapplied and
// out-of-grid regions are skipped with a warning.
func (t *Template) RowsForCondition(name string) ([]int, []Warning, error) {
	cond, ok := t.Conditions[name]
	if !ok {
		return nil, nil, fmt.Errorf("condition %q not found in template", name)
	}

	shape := t.GridShape()
	nx, ny := shape[0], shape[1]

	var rows []int
	var warnings []Warning
	for _, region := range cond.Regions {
		if region == Unapplied {
			warnings = append(warnings, Warning{Line: -1, Block: name, Reason: "condition is declared but not applied to any region"})
			continue
		}
		if !region.within(shape) {
			warnings = append(warnings, Warning{Line: -1, Block: name, Reason: fmt.Sprintf("region %v lies outside the %dx%dx%d grid", region, shape[0], shape[1], shape[2])})
			continue
		}
		for z := region[2][0] - 1; z < region[2][1]; z++ {
			for y := region[1][0] - 1; y < region[1][1]; y++ {
				for x := region[0][0] - 1; x < region[0][1]; x++ {
					rows = append(rows, x+y*nx+z*nx*ny)
				}
			}
		}
	}
	return rows, warnings, nil
}

func (r Region) within(shape [3]int) bool {
	for axis, span := range r {
		if span[0] < 1 || span[1] < span[0] || span[1] > shape[axis] {
			return false
		}
	}
	return true
}
