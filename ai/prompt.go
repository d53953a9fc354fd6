package ai

import (
	"encoding/json"
	"fmt"
)

// SessionData is the raw data collected during a therapy session, handed to
// the note generator.
type SessionData struct {
	DurationMinutes int            `json:"sessionDuration"`
	Behaviors       map[string]any `json:"behaviors"`
	Skills          map[string]any `json:"skills"`
}

// BuildNotePrompt renders the clinical prompt for a session note. The
// patient is always referred to as "the client"; the model must never be
// given room to invent a name.
func BuildNotePrompt(data SessionData) string {
	behaviors, _ := json.Marshal(data.Behaviors)
	skills, _ := json.Marshal(data.Skills)

	return fmt.Sprintf(`You are an expert Board Certified Behavior Analyst (BCBA).
Write a highly professional, objective, and insurance-compliant clinical SOAP note for an ABA therapy session.
CRITICAL RULE: Do not invent a name. Always refer to the patient strictly as "the client".

Here is the raw data collected during the session:
- Session Duration: %d minutes
- Behaviors Tracked (Frequency/Duration): %s
- Skills/Targets Tracked (Success Rate): %s

Please write a concise, 1-to-2 paragraph narrative summary detailing the client's performance, behavior interventions used, and overall progress. Keep the tone strictly medical and objective.`,
		data.DurationMinutes, behaviors, skills)
}
