// Package internaldefs holds the metric name and bucket definitions shared by
// the exporter implementations.
//
// Both exporters must publish identical metric names and bucket boundaries, so
// the definitions live in one place. Changing a definition here changes every
// exporter at once.
package internaldefs
