// Package geo contains the coordinate value type and great-circle math used
// by the reminder engine.
//
// Distance is a pure function and does not validate its inputs; callers are
// expected to validate coordinates at the boundary with Coordinate.Validate.
package geo
