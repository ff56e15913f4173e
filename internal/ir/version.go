package ir

// Version constants stamped into generated files and canonical output.
const (
	// IRVersion is the catalog schema version.
	IRVersion = "1"

	// GeneratorVersion is the apigen release that produced the output.
	GeneratorVersion = "0.1.0"
)
