package ports

// OutputPort writes the generated dependency clauses.
type OutputPort interface {
	WriteRequirements(path string, lines []string) error
}
