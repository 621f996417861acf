// Package schedule derives dashboard statistics, chart series and the task
// table view from a flat task collection. Everything here is a pure function
// of its inputs.
package schedule

// Status codes used by the schedule sheets.
const (
	StatusScheduled = "S"
	StatusActual    = "A"
	StatusDone      = "D"
	StatusPotential = "P"
	StatusLate      = "L"
	StatusEarly     = "E"
	StatusClearance = "C"

	// StatusUnknown buckets tasks that carry no status code.
	StatusUnknown = "Unknown"
)

// Unassigned is the crew sentinel meaning "no crew".
const Unassigned = "Unassigned"

// DefaultSheet is the sheet preselected for new tasks.
const DefaultSheet = "Earthwork"

// Sheets lists the advisory phase categories offered when adding a task.
// Stored tasks may carry any sheet value.
var Sheets = []string{"Earthwork", "Pipe", "Roads", "Concrete", "Paving", "Clearance", "Punch Out"}

// StatusCodes lists the advisory status codes in form order.
var StatusCodes = []string{
	StatusScheduled,
	StatusActual,
	StatusDone,
	StatusPotential,
	StatusLate,
	StatusEarly,
	StatusClearance,
}

var statusLabels = map[string]string{
	StatusActual:    "Actual",
	StatusScheduled: "Scheduled",
	StatusDone:      "Done",
	StatusPotential: "Potential",
	StatusLate:      "Late",
	StatusEarly:     "Early",
	StatusClearance: "Clearance",
}

// StatusLabel returns the human label for a status code. Unrecognised codes
// are returned unchanged.
func StatusLabel(code string) string {
	if label, ok := statusLabels[code]; ok {
		return label
	}
	return code
}

// KnownSheet reports whether sheet is one of the advisory categories.
func KnownSheet(sheet string) bool {
	for _, s := range Sheets {
		if s == sheet {
			return true
		}
	}
	return false
}
