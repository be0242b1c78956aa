package main

// Exit codes form the contract with hook runners and CI scripts; changing
// them is a breaking change.

const (
	// ExitCodeSuccess indicates a clean scan or an allowed tool call.
	ExitCodeSuccess = 0

	// ExitCodeFindings indicates a scan completed and reported findings.
	ExitCodeFindings = 1

	// ExitCodeBlock indicates the gate blocked a tool call. Internal gate
	// errors also map here: the gate fails closed.
	ExitCodeBlock = 2

	// ExitCodeUsage indicates invalid invocation of a scan command.
	ExitCodeUsage = 2

	// ExitCodeGeneralError indicates an unexpected failure outside the
	// gate decision path.
	ExitCodeGeneralError = 1
)

// exitError carries an exit code through cobra's error return without
// printing anything further.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

func exitWithCode(code int) error {
	if code == ExitCodeSuccess {
		return nil
	}
	return &exitError{code: code}
}
