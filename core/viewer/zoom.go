package viewer

import (
	"math"
	"strconv"

	"github.com/trezcool/classbook/core"
)

const (
	MinZoom     = 0.5
	MaxZoom     = 2.0
	ZoomStep    = 0.2
	DefaultZoom = 1.2
)

// ClampZoom keeps z within [MinZoom, MaxZoom], rounded to hundredths.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return DefaultZoom
	}
	z = math.Max(MinZoom, math.Min(MaxZoom, z))
	return math.Round(z*100) / 100
}

func ZoomIn(z float64) float64  { return ClampZoom(z + ZoomStep) }
func ZoomOut(z float64) float64 { return ClampZoom(z - ZoomStep) }

func ZoomPercent(z float64) int {
	return int(math.Round(z * 100))
}

// ParseZoom reads a zoom query value; empty means DefaultZoom.
func ParseZoom(s string) (float64, error) {
	s = core.CleanString(s)
	if s == "" {
		return DefaultZoom, nil
	}
	z, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, core.NewFieldValidationError("zoom", "enter a number")
	}
	return ClampZoom(z), nil
}

// ParsePage reads a page query value; empty means the first page.
func ParsePage(s string) (int, error) {
	s = core.CleanString(s)
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, core.NewFieldValidationError("page", "enter a whole number")
	}
	return n, nil
}

// ClampPage keeps page within [1, total].
func ClampPage(page, total int) int {
	if total < 1 {
		return 1
	}
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

func HasPrev(page int) bool        { return page > 1 }
func HasNext(page, total int) bool { return page < total }
