package destination

type Failure string

const (
	FailureNone    Failure = ""
	FailureExport  Failure = "export"
	FailureLoop    Failure = "dispatch-loop"
	FailureCapture Failure = "invalid-capture"
)

// Result is the outcome record of one dispatch.
type Result struct {
	Designation         string  `json:"designation"`
	Label               string  `json:"label"`
	Succeeded           bool    `json:"exportSucceeded"`
	ArtifactPath        string  `json:"producedArtifactPath,omitempty"`
	PartialArtifactPath string  `json:"partialArtifactPath,omitempty"`
	Cancelled           bool    `json:"cancelled"`
	Failure             Failure `json:"failure,omitempty"`
	Message             string  `json:"message,omitempty"`
	Err                 error   `json:"-"`
}

// Normalize enforces that a cancelled result is never successful and keeps
// any artifact it left behind out of ArtifactPath.
func (r Result) Normalize() Result {
	if r.Cancelled {
		r.Succeeded = false
		if r.ArtifactPath != "" && r.PartialArtifactPath == "" {
			r.PartialArtifactPath = r.ArtifactPath
		}
		r.ArtifactPath = ""
	}
	if r.Succeeded {
		r.Failure = FailureNone
	}
	if r.Err != nil && r.Message == "" {
		r.Message = r.Err.Error()
	}
	return r
}

type OutcomeKind int

const (
	KindCompleted OutcomeKind = iota
	KindRedelegate
	KindRescope
)

// Outcome is what an Export hands back to the engine: either a finished
// Result or a request to pick again.
type Outcome struct {
	Kind       OutcomeKind
	Result     Result
	Candidates []Candidate
	Scope      Trigger
}

func Completed(r Result) Outcome {
	return Outcome{Kind: KindCompleted, Result: r}
}

// Redelegate asks the engine to choose among the given candidates.
func Redelegate(candidates ...Candidate) Outcome {
	return Outcome{Kind: KindRedelegate, Candidates: candidates}
}

// Rescope asks the engine to resolve the catalog again for trigger,
// without interactive-only entries.
func Rescope(trigger Trigger) Outcome {
	return Outcome{Kind: KindRescope, Scope: trigger}
}
