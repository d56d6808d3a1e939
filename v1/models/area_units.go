package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
)

// AreaUnit tags the unit a property's area is recorded in
type AreaUnit string

const (
	AreaUnitSquareFeet  AreaUnit = "sqft"
	AreaUnitSquareMeter AreaUnit = "sqm"
	AreaUnitRopani      AreaUnit = "ropani"
	AreaUnitAana        AreaUnit = "aana"
	AreaUnitPaisa       AreaUnit = "paisa"
	AreaUnitDaam        AreaUnit = "daam"
	AreaUnitBigha       AreaUnit = "bigha"
	AreaUnitKattha      AreaUnit = "kattha"
	AreaUnitDhur        AreaUnit = "dhur"
)

// Square feet per unit. 1 ropani = 16 aana = 64 paisa = 256 daam;
// 1 bigha = 20 kattha = 400 dhur.
var defaultSquareFeetPerUnit = map[AreaUnit]float64{
	AreaUnitSquareFeet:  1,
	AreaUnitSquareMeter: 10.7639,
	AreaUnitRopani:      5476,
	AreaUnitAana:        342.25,
	AreaUnitPaisa:       85.5625,
	AreaUnitDaam:        21.390625,
	AreaUnitBigha:       72900,
	AreaUnitKattha:      3645,
	AreaUnitDhur:        182.25,
}

var (
	unitsMu           sync.RWMutex
	squareFeetPerUnit = copyUnits(defaultSquareFeetPerUnit)
)

func copyUnits(src map[AreaUnit]float64) map[AreaUnit]float64 {
	dst := make(map[AreaUnit]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// RegisterAreaUnit adds or overrides a unit in the conversion table
func RegisterAreaUnit(unit AreaUnit, squareFeet float64) error {
	unit = AreaUnit(strings.ToLower(strings.TrimSpace(string(unit))))
	if unit == "" {
		return fmt.Errorf("area unit name is required")
	}
	if squareFeet <= 0 || math.IsNaN(squareFeet) || math.IsInf(squareFeet, 0) {
		return fmt.Errorf("area unit %s: square feet factor must be positive", unit)
	}
	unitsMu.Lock()
	defer unitsMu.Unlock()
	squareFeetPerUnit[unit] = squareFeet
	return nil
}

// ResetAreaUnits restores the built-in conversion table
func ResetAreaUnits() {
	unitsMu.Lock()
	defer unitsMu.Unlock()
	squareFeetPerUnit = copyUnits(defaultSquareFeetPerUnit)
}

// SquareFeetPerUnit returns the conversion factor for a unit
func SquareFeetPerUnit(unit AreaUnit) (float64, bool) {
	unitsMu.RLock()
	defer unitsMu.RUnlock()
	factor, ok := squareFeetPerUnit[unit]
	return factor, ok
}

// IsValid reports whether the unit is present in the conversion table
func (u AreaUnit) IsValid() bool {
	_, ok := SquareFeetPerUnit(u)
	return ok
}

// KnownAreaUnits lists the registered unit tags in alphabetical order
func KnownAreaUnits() []AreaUnit {
	unitsMu.RLock()
	defer unitsMu.RUnlock()
	units := make([]AreaUnit, 0, len(squareFeetPerUnit))
	for u := range squareFeetPerUnit {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })
	return units
}

// ToSquareFeet converts a value in the given unit to square feet
func ToSquareFeet(value float64, unit AreaUnit) (float64, error) {
	factor, ok := SquareFeetPerUnit(unit)
	if !ok {
		return 0, unknownUnitError(unit)
	}
	return value * factor, nil
}

// ConvertArea converts a value between two units of the conversion table
func ConvertArea(value float64, from, to AreaUnit) (float64, error) {
	fromFactor, ok := SquareFeetPerUnit(from)
	if !ok {
		return 0, unknownUnitError(from)
	}
	toFactor, ok := SquareFeetPerUnit(to)
	if !ok {
		return 0, unknownUnitError(to)
	}
	return value * fromFactor / toFactor, nil
}

func unknownUnitError(unit AreaUnit) error {
	return apierrors.InvalidConstraintError("area_unit", fmt.Sprintf("unknown area unit %q", unit))
}

// LandArea is the traditional ropani-aana-paisa-daam breakdown of a plot
type LandArea struct {
	Ropani float64 `json:"ropani"`
	Aana   float64 `json:"aana"`
	Paisa  float64 `json:"paisa"`
	Daam   float64 `json:"daam"`
}

// IsZero reports whether no component is set
func (l LandArea) IsZero() bool {
	return l.Ropani == 0 && l.Aana == 0 && l.Paisa == 0 && l.Daam == 0
}

// SquareFeet sums the components using the built-in factors
func (l LandArea) SquareFeet() float64 {
	return l.Ropani*defaultSquareFeetPerUnit[AreaUnitRopani] +
		l.Aana*defaultSquareFeetPerUnit[AreaUnitAana] +
		l.Paisa*defaultSquareFeetPerUnit[AreaUnitPaisa] +
		l.Daam*defaultSquareFeetPerUnit[AreaUnitDaam]
}

// LandAreaFromSquareFeet decomposes an area into whole ropani, aana and paisa,
// leaving the remainder in daam.
func LandAreaFromSquareFeet(sqft float64) LandArea {
	if sqft <= 0 {
		return LandArea{}
	}
	daamTotal := sqft / defaultSquareFeetPerUnit[AreaUnitDaam]

	var l LandArea
	l.Ropani = math.Floor(daamTotal / 256)
	daamTotal -= l.Ropani * 256
	l.Aana = math.Floor(daamTotal / 16)
	daamTotal -= l.Aana * 16
	l.Paisa = math.Floor(daamTotal / 4)
	daamTotal -= l.Paisa * 4
	l.Daam = math.Round(daamTotal*1000) / 1000
	return l
}
