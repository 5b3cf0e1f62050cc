// Package mapper converts between geometries and discrete global grid cells.
package mapper

import "github.com/twpayne/go-geom"

type Interface interface {
	// CellsForGeometry returns the sorted, de-duplicated cells covering g,
	// which must be in longitude/latitude degrees.
	CellsForGeometry(g geom.T, res int) ([]string, error)
	// CellPolygons returns one polygon per cell, in the order given.
	CellPolygons(cells []string) (*geom.MultiPolygon, error)
}
