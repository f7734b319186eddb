// Package harness runs scripted writing sessions end to end.
//
// A scenario drives the real recording stack (tracker, paste guard, chat
// session) on a fake clock into an in-memory store, loads the session back
// for replay, and checks the result. Golden files pin the replay's
// navigation index and timeline markers.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario exercises"
//	steps:
//	  - at: 0
//	    action: snapshot
//	    lines: ["First paragraph"]
//	  - at: 4000
//	    action: copy
//	    text: "First"
//	  - at: 5000
//	    action: paste
//	    text: "First"
//	    expect: allow
//	  - at: 6000
//	    action: chat
//	    text: "Any tips?"
//	    reply: "Start with a question."
//	assertions:
//	  - type: event_count
//	    event: paste_internal
//	    count: 1
//	  - type: banner_at
//	    at: 5500
//	    label: "Content Pasted"
//
// Offsets are milliseconds since the session started and must not decrease.
// Unknown fields are rejected so typos fail loudly.
package harness
