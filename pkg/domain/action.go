package domain

// ActionRequest is something the session asks the host to present.
type ActionRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Standard Action Types
const (
	// ActionRenderStep requests the host to display the current step.
	// Payload: Step
	ActionRenderStep = "RENDER_STEP"

	// ActionRequestInput requests the host to collect a prompt value.
	// Payload: Prompt
	ActionRequestInput = "REQUEST_INPUT"

	// ActionOfferButtons lists the navigation choices available at this step.
	// Payload: []Button
	ActionOfferButtons = "OFFER_BUTTONS"

	// ActionSystemMessage represents a meta-message from the system (status, errors).
	// Payload: string
	ActionSystemMessage = "SYSTEM_MESSAGE"
)

// Button is a navigation choice offered to the user.
type Button string

const (
	ButtonCancel   Button = "cancel"
	ButtonPrevious Button = "previous"
	ButtonNext     Button = "next"
	ButtonComplete Button = "complete"
	ButtonSave     Button = "save"
)

// Buttons returns the choices for a step: Cancel always, Previous when a step
// precedes, Complete on the last step and Next otherwise. Save is offered
// while answers are waiting to be written.
func Buttons(step Step, unsaved bool) []Button {
	out := []Button{ButtonCancel}
	if step.HasPrevious {
		out = append(out, ButtonPrevious)
	}
	if unsaved {
		out = append(out, ButtonSave)
	}
	if step.Last() {
		return append(out, ButtonComplete)
	}
	return append(out, ButtonNext)
}

// StepActions builds the action list for rendering a step.
func StepActions(step Step, unsaved bool) []ActionRequest {
	actions := []ActionRequest{{Type: ActionRenderStep, Payload: step}}
	for _, p := range step.Prompts {
		actions = append(actions, ActionRequest{Type: ActionRequestInput, Payload: p})
	}
	return append(actions, ActionRequest{Type: ActionOfferButtons, Payload: Buttons(step, unsaved)})
}

// StepResponse is what remote hosts receive after each action.
type StepResponse struct {
	Session *Session        `json:"session,omitempty"`
	Step    *Step           `json:"step,omitempty"`
	Actions []ActionRequest `json:"actions,omitempty"`
	Closed  bool            `json:"closed,omitempty"`
}

// NewStepResponse renders a step for a host that saves answers immediately.
func NewStepResponse(session *Session, step Step) StepResponse {
	return StepResponse{
		Session: session,
		Step:    &step,
		Actions: StepActions(step, false),
	}
}
