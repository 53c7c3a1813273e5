// Package category defines the sweep categories recognised in a sweep file
// and where each one writes in an input file.
package category

import (
	"slices"

	"github.com/saltyorg/rtsweep/internal/inputfile"
)

// Category names as written in the sweep file.
const (
	// Condition scoped
	Concentrations = "concentrations"
	MineralVolumes = "mineral_volumes"
	MineralSSA     = "mineral_ssa"
	Parameters     = "parameters"
	Gases          = "gases"

	// Keyword block scoped
	MineralRates       = "mineral_rates"
	AqueousKinetics    = "aqueous_kinetics"
	Flow               = "flow"
	Transport          = "transport"
	ErosionBurial      = "erosion/burial"
	BoundaryConditions = "boundary_conditions"
	Runtime            = "runtime"
	Output             = "output"

	// Auxiliary files
	Namelists = "namelists"
)

// Scope says what a category's entries are nested under.
type Scope int

const (
	// ScopeCondition entries nest under a condition name.
	ScopeCondition Scope = iota
	// ScopeBlock entries address one keyword block directly.
	ScopeBlock
	// ScopeNamelist entries nest under namelist type and reaction name.
	ScopeNamelist
)

func (s Scope) String() string {
	switch s {
	case ScopeCondition:
		return "condition"
	case ScopeBlock:
		return "block"
	case ScopeNamelist:
		return "namelist"
	default:
		return "unknown"
	}
}

// Target locates where a category writes.
type Target struct {
	Name  string
	Scope Scope
	// Block is the keyword block for ScopeBlock, or the classified condition
	// sub-map for ScopeCondition.
	Block string
	// Position is the value index written; negative counts from the end.
	Position int
}

// registry is in evaluation order.
var registry = []Target{
	{Concentrations, ScopeCondition, inputfile.Concentrations, -1},
	{MineralVolumes, ScopeCondition, inputfile.MineralVolumes, 0},
	{MineralSSA, ScopeCondition, inputfile.MineralVolumes, -1},
	{Parameters, ScopeCondition, inputfile.Parameters, -1},
	{Gases, ScopeCondition, inputfile.Gases, -1},
	{MineralRates, ScopeBlock, "MINERALS", -1},
	{AqueousKinetics, ScopeBlock, "AQUEOUS_KINETICS", -1},
	{Flow, ScopeBlock, "FLOW", 0},
	{Transport, ScopeBlock, "TRANSPORT", -1},
	{ErosionBurial, ScopeBlock, "EROSION/BURIAL", -1},
	{BoundaryConditions, ScopeBlock, "BOUNDARY_CONDITIONS", 0},
	{Runtime, ScopeBlock, "RUNTIME", -1},
	{Output, ScopeBlock, "OUTPUT", -1},
	{Namelists, ScopeNamelist, "", 0},
}

// Lookup returns the target for a category name.
func Lookup(name string) (Target, bool) {
	for _, t := range registry {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// All returns every category in evaluation order.
func All() []Target {
	return slices.Clone(registry)
}

// Names returns every category name in evaluation order.
func Names() []string {
	names := make([]string, len(registry))
	for i, t := range registry {
		names[i] = t.Name
	}
	return names
}

// NamelistType binds a namelist category key to its file and group.
type NamelistType struct {
	Name string
	// File is the config key naming the namelist file.
	File string
	// Group is the "&Group" record holding the reactions.
	Group string
}

// Config keys of the auxiliary namelist files.
const (
	AqueousDatabase   = "aqueous_database"
	CatabolicPathways = "catabolic_pathways"
)

var namelistTypes = []NamelistType{
	{"aqueous", AqueousDatabase, "Aqueous"},
	{"aqueous_kinetics", AqueousDatabase, "AqueousKinetics"},
	{"catabolic_pathways", CatabolicPathways, "CatabolicPathway"},
}

// LookupNamelist returns the namelist binding for a type name.
func LookupNamelist(name string) (NamelistType, bool) {
	for _, n := range namelistTypes {
		if n.Name == name {
			return n, true
		}
	}
	return NamelistType{}, false
}

// NamelistNames returns every namelist type name.
func NamelistNames() []string {
	names := make([]string, len(namelistTypes))
	for i, n := range namelistTypes {
		names[i] = n.Name
	}
	return names
}
