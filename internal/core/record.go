package core

// StatusRecord is the durable per-commit record of job progress and outcome,
// keyed by (projectID, commit key). At most one of IsQueued/IsRunning is true
// at a time; once a terminal verdict is written both stay false until a new
// event for the same commit overwrites the record.
type StatusRecord struct {
	IsQueued         bool `json:"isQueued"`
	IsRunning        bool `json:"isRunning"`
	MetaInconsistent bool `json:"metaInconsistent"`
	HasViolation     bool `json:"hasViolation"`

	// Result holds either a pruned ConstraintReport, a CleanResult, or a
	// []MetaInconsistency, depending on the flags above. Nil while the job
	// is queued or running.
	Result any `json:"result"`
}

// MetaInconsistency describes one violation of the meta-model rules. A commit
// whose meta is inconsistent is never constraint-checked.
type MetaInconsistency struct {
	Node        string `json:"node"`
	Description string `json:"description"`
	Hint        string `json:"hint,omitempty"`
}

// ConstraintViolation is a single constraint failure on a node.
type ConstraintViolation struct {
	Constraint string `json:"constraint"`
	Node       string `json:"node"`
	Message    string `json:"message"`
}

// NodeResult is the constraint outcome for one model node.
type NodeResult struct {
	Name         string                `json:"name"`
	HasViolation bool                  `json:"hasViolation"`
	Violations   []ConstraintViolation `json:"violations,omitempty"`
}

// ConstraintReport is the full outcome of a constraint evaluation over a
// model. Nodes maps node paths to their individual results.
type ConstraintReport struct {
	Commit       string                 `json:"commit"`
	Info         string                 `json:"info"`
	HasViolation bool                   `json:"hasViolation"`
	Nodes        map[string]*NodeResult `json:"nodes,omitempty"`
}

// CleanResult is the stored detail for a run without any violation. The full
// per-node breakdown is deliberately dropped for clean commits.
type CleanResult struct {
	Commit       string `json:"commit"`
	Info         string `json:"info"`
	HasViolation bool   `json:"hasViolation"`
}

// CheckResult is what a Checker returns: either a non-empty list of meta
// inconsistencies, or a constraint report. The two are mutually exclusive;
// meta consistency is evaluated first and short-circuits constraint checking.
type CheckResult struct {
	Inconsistencies []MetaInconsistency `json:"inconsistencies,omitempty"`
	Report          *ConstraintReport   `json:"report,omitempty"`
}
