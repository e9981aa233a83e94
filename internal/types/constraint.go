package types

// Constraint is a single PEP 440 version clause such as ">= 1.0".
type Constraint struct {
	Op      ConstraintOp
	Version string
}

func (c Constraint) String() string {
	return string(c.Op) + c.Version
}
