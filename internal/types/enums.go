package types

type ConstraintOp string

const (
	ConstraintOpNone      ConstraintOp = ""
	ConstraintOpEq        ConstraintOp = "=="
	ConstraintOpArbitrary ConstraintOp = "==="
	ConstraintOpNe        ConstraintOp = "!="
	ConstraintOpCompat    ConstraintOp = "~="
	ConstraintOpGte       ConstraintOp = ">="
	ConstraintOpLte       ConstraintOp = "<="
	ConstraintOpGt        ConstraintOp = ">"
	ConstraintOpLt        ConstraintOp = "<"
)

// RuntimeSource selects where run-time requirements are read from.
type RuntimeSource string

const (
	RuntimeSourceHook      RuntimeSource = "hook"
	RuntimeSourceWheel     RuntimeSource = "wheel"
	RuntimeSourcePyproject RuntimeSource = "pyproject"
)
