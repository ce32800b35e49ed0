package agent

// State names the orchestrator's phases. A run walks select_context,
// generate, validate, execute, answer and save; failed attempts detour
// through reflect back to generate until the budget runs out.
type State string

const (
	StateSelectContext State = "select_context"
	StateGenerate      State = "generate"
	StateValidate      State = "validate"
	StateExecute       State = "execute"
	StateAnswer        State = "answer"
	StateSave          State = "save"
	StateReflect       State = "reflect"
	StateDone          State = "done"
	StateFailed        State = "failed"
)
