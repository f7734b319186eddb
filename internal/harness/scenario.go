package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted writing session. Steps drive the recorder on a
// fake clock; assertions then check the stored log and its replay.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Session overrides the recorded session ID.
	Session string `yaml:"session,omitempty"`

	// Steps run in order. Their At offsets must not decrease.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the replayed session.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one user action at a point in the session.
type Step struct {
	// At is milliseconds since the session started.
	At int64 `yaml:"at"`

	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Text is the selection for copy, the clipboard for paste, the
	// inserted text for type, or the message for chat.
	Text string `yaml:"text,omitempty"`

	// Lines is the document, one paragraph per line, for snapshot and submit.
	Lines []string `yaml:"lines,omitempty"`

	// Pos is the insert position for type.
	Pos int `yaml:"pos,omitempty"`

	// Reply is the assistant's answer to a chat step.
	Reply string `yaml:"reply,omitempty"`

	// Conversation is a scenario-local conversation name for chat steps.
	// Unseen names open a new conversation.
	Conversation string `yaml:"conversation,omitempty"`

	// Expect is the verdict a paste must receive: "allow" or "block".
	Expect string `yaml:"expect,omitempty"`
}

// Step actions.
const (
	ActionSnapshot = "snapshot"
	ActionType     = "type"
	ActionCopy     = "copy"
	ActionPaste    = "paste"
	ActionChat     = "chat"
	ActionSubmit   = "submit"
)

// Assertion checks one property of the replayed session.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event is the event type counted by event_count.
	Event string `yaml:"event,omitempty"`

	// Events is the expected relative order for event_order.
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number for event_count and message_count.
	Count int `yaml:"count,omitempty"`

	// At is the replay offset for document_at and banner_at.
	At int64 `yaml:"at,omitempty"`

	// Lines is the expected document for document_at.
	Lines []string `yaml:"lines,omitempty"`

	// Label is the expected banner for banner_at; empty means none.
	Label string `yaml:"label,omitempty"`

	// Dirty is the expected changed-since-submission flag for dirty.
	Dirty *bool `yaml:"dirty,omitempty"`
}

// Assertion types.
const (
	AssertEventCount   = "event_count"
	AssertEventOrder   = "event_order"
	AssertMessageCount = "message_count"
	AssertDocumentAt   = "document_at"
	AssertBannerAt     = "banner_at"
	AssertDirty        = "dirty"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	var last int64
	for i, step := range s.Steps {
		if step.At < last {
			return fmt.Errorf("steps[%d]: at %d is before the previous step (%d)", i, step.At, last)
		}
		last = step.At
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	switch s.Action {
	case ActionSnapshot, ActionSubmit:
	case ActionType, ActionCopy:
		if s.Text == "" {
			return fmt.Errorf("steps[%d]: text is required for %s", index, s.Action)
		}
	case ActionPaste:
		if s.Text == "" {
			return fmt.Errorf("steps[%d]: text is required for paste", index)
		}
		if s.Expect != "" && s.Expect != "allow" && s.Expect != "block" {
			return fmt.Errorf("steps[%d]: expect must be allow or block, got %q", index, s.Expect)
		}
	case ActionChat:
		if s.Text == "" {
			return fmt.Errorf("steps[%d]: text is required for chat", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, s.Action)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	case AssertMessageCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertDocumentAt, AssertBannerAt:
	case AssertDirty:
		if a.Dirty == nil {
			return fmt.Errorf("assertions[%d]: dirty is required", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
