package types

// ToxProvision is the content tox writes to its --no-provision file when
// it cannot run without a newer tox or extra plugins.
type ToxProvision struct {
	MinVersion any      `json:"minversion"`
	Requires   []string `json:"requires"`
}

// ToxResult is what a tox invocation reports for the selected environments.
type ToxResult struct {
	Deps      []string
	Extras    []string
	Provision *ToxProvision
	ExitCode  int
	Output    string
}

// Metadata holds the fields read from a core metadata file
// (METADATA or PKG-INFO).
type Metadata struct {
	Name         string
	Version      string
	Requires     []string
	RequiresDist []string
}
