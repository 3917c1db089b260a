package runtime

// StepResult is a handler's explicit verdict on what happens after it.
//
// A step either hands a continuation value to the next chained task or
// declares the chain finished. Truncation is a first-class outcome: a step
// that discovers there is nothing downstream to do (empty parse, debug item)
// returns Stop and the remaining chain is dropped.
type StepResult struct {
	// Values is merged into the payload of the next chained task and stored
	// as this task's result.
	Values map[string]any
	// Stop truncates the chain: no further steps run.
	Stop bool
}

// Continue passes values to the next step in the chain.
func Continue(values map[string]any) *StepResult {
	return &StepResult{Values: values}
}

// Halt truncates the chain after this step.
func Halt() *StepResult {
	return &StepResult{Stop: true}
}
