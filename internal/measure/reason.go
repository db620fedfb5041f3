package measure

import "fmt"

// Reason is the failure taxonomy surfaced in the reason column.
type Reason string

const (
	// ReasonNone is the reason of a successful row.
	ReasonNone Reason = ""

	// ReasonStage1Timeout: the instrumentation stage exceeded its time budget.
	ReasonStage1Timeout Reason = "TOOL_STAGE1_TIMEOUT"

	// ReasonStage2Timeout: the analysis stage exceeded its time budget.
	ReasonStage2Timeout Reason = "TOOL_STAGE2_TIMEOUT"

	// ReasonStage1ParseError: the instrumentation stage produced unparseable output.
	ReasonStage1ParseError Reason = "TOOL_STAGE1_PARSE_ERROR"

	// ReasonStage2ParseError: the analysis stage produced unparseable output.
	ReasonStage2ParseError Reason = "TOOL_STAGE2_PARSE_ERROR"

	// ReasonMalformedOutput: exit code 0 but stdout is not exactly one
	// record of ToolFieldCount valid fields.
	ReasonMalformedOutput Reason = "MALFORMED_OUTPUT"

	// ReasonGenericToolError: any other non-zero exit, or the tool could
	// not be started at all.
	ReasonGenericToolError Reason = "GENERIC_TOOL_ERROR"
)

// Tool exit codes.
const (
	ExitOK               = 0
	ExitStage1Timeout    = 1
	ExitStage2Timeout    = 2
	ExitStage1ParseError = 3
	ExitStage2ParseError = 4
)

// Reasons lists the full taxonomy.
var Reasons = []Reason{
	ReasonStage1Timeout,
	ReasonStage2Timeout,
	ReasonStage1ParseError,
	ReasonStage2ParseError,
	ReasonMalformedOutput,
	ReasonGenericToolError,
}

// Valid reports whether r is one of the taxonomy values.
func (r Reason) Valid() bool {
	for _, known := range Reasons {
		if r == known {
			return true
		}
	}
	return false
}

// Describe returns a human-readable explanation of the reason.
func (r Reason) Describe() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonStage1Timeout:
		return "instrumentation stage timed out"
	case ReasonStage2Timeout:
		return "analysis stage timed out"
	case ReasonStage1ParseError:
		return "instrumentation stage produced unexpected output"
	case ReasonStage2ParseError:
		return "analysis stage produced unexpected output"
	case ReasonMalformedOutput:
		return "tool exited cleanly but its output is not a single well-formed record"
	case ReasonGenericToolError:
		return "tool failed"
	default:
		return string(r)
	}
}

// ReasonForExit maps a non-zero tool exit code to its taxonomy value.
// Exit code 0 maps to ReasonNone; whether the output is well formed is
// decided separately.
func ReasonForExit(code int) Reason {
	switch code {
	case ExitOK:
		return ReasonNone
	case ExitStage1Timeout:
		return ReasonStage1Timeout
	case ExitStage2Timeout:
		return ReasonStage2Timeout
	case ExitStage1ParseError:
		return ReasonStage1ParseError
	case ExitStage2ParseError:
		return ReasonStage2ParseError
	default:
		return ReasonGenericToolError
	}
}

// ParseReason parses a reason cell. The empty cell is ReasonNone.
func ParseReason(s string) (Reason, error) {
	r := Reason(s)
	if r == ReasonNone || r.Valid() {
		return r, nil
	}
	return ReasonNone, fmt.Errorf("unknown reason %q", s)
}
