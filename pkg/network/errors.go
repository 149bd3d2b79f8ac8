package network

import "errors"

var (
	// ErrInvalidParameter is returned when generation parameters or an explicit
	// edge list cannot describe a valid graph.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNodeNotFound is returned for node IDs outside the graph.
	ErrNodeNotFound = errors.New("node not found")
)
