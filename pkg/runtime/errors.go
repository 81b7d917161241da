package runtime

// Status is the non-error outcome of executing an instruction.
type Status int

const (
	// StatusNone means the instruction completed; continue with the next one.
	StatusNone Status = iota
	// StatusRun asks the host loop to keep running the program.
	StatusRun
	// StatusStop halts execution and waits for the user.
	StatusStop
	// StatusNo reports a failed conditional; the next instruction is skipped.
	StatusNo
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusRun:
		return "run"
	case StatusStop:
		return "stop"
	case StatusNo:
		return "no"
	default:
		return "unknown"
	}
}

// Errors shared by the engine, the solver and the integrator.
const (
	ErrLabelNotFound = Errno(iota + 1)
	ErrInsufficientMemory
	ErrInternalError
	ErrNonexistent
	ErrInvalidType
	ErrAlphaDataIsInvalid
	ErrTooFewArguments
	ErrSolveSolve
	ErrIntegInteg
	ErrOutOfRange
	ErrDivideBy0
	ErrInvalidData
	ErrStatMathError
	ErrDimensionError
	ErrRTNStackFull
	ErrRestricted
)

var strError = []string{
	"",
	"Label Not Found",
	"Insufficient Memory",
	"Internal Error",
	"Nonexistent",
	"Invalid Type",
	"Alpha Data Is Invalid",
	"Too Few Arguments",
	"Solve(Solve)",
	"Integ(Integ)",
	"Out of Range",
	"Divide by 0",
	"Invalid Data",
	"Stat Math Error",
	"Dimension Error",
	"RTN Stack Full",
	"Restricted Operation",
}

// Errno describes why an operation failed.
type Errno int

func (e Errno) Error() string {
	if e <= 0 || int(e) >= len(strError) {
		return "Unknown Error"
	}
	return strError[e]
}

// Trappable reports whether a solve in progress absorbs the error as a failed
// function evaluation instead of stopping the program.
func (e Errno) Trappable() bool {
	switch e {
	case ErrOutOfRange, ErrDivideBy0, ErrInvalidData, ErrStatMathError,
		ErrInvalidType, ErrLabelNotFound:
		return true
	}
	return false
}
