package model

import "github.com/m-mizutani/goerr/v2"

// Persona is a closed set of voice profiles. Unknown values are rejected
// before entering the pipeline so the composer never branches on a raw
// string it has not seen.
type Persona string

const (
	PersonaOracle       Persona = "oracle"
	PersonaPsychologist Persona = "psychologist"
	PersonaPhilosopher  Persona = "philosopher"
	PersonaScholar      Persona = "scholar"
	PersonaGuide        Persona = "guide"
)

// Personas returns all known personas in a stable order.
func Personas() []Persona {
	return []Persona{
		PersonaOracle,
		PersonaPsychologist,
		PersonaPhilosopher,
		PersonaScholar,
		PersonaGuide,
	}
}

// Validate checks if the persona is a known value
func (p Persona) Validate() error {
	switch p {
	case PersonaOracle, PersonaPsychologist, PersonaPhilosopher, PersonaScholar, PersonaGuide:
		return nil
	default:
		return goerr.Wrap(ErrInvalidPersona, "unknown persona", goerr.V("persona", string(p)))
	}
}

// Voice returns the voice profile associated with the persona.
func (p Persona) Voice() *VoiceProfile {
	return voiceProfiles[p]
}

// VoiceProfile holds the lexical configuration of one persona: the words
// that signal its register, the words that belong to other registers, and
// the structural bounds the composer and evaluator share.
type VoiceProfile struct {
	Persona Persona

	// Markers are words whose presence supports the voice subscore.
	// ForeignMarkers are words strongly tied to other personas whose
	// presence penalizes it.
	Markers        []string
	ForeignMarkers []string

	// Opening phrases used by assembly skeletons, keyed loosely by tone.
	Openings []string
	Closings []string

	// Directive templates always address the reader in second person.
	// The %s slot receives a number theme label.
	Directives []string

	MinWords int
	MaxWords int
}

var voiceProfiles = map[Persona]*VoiceProfile{
	PersonaOracle: {
		Persona: PersonaOracle,
		Markers: []string{
			"vision", "unfold", "unfolds", "unfolding", "destiny", "reveal",
			"reveals", "revealing", "whisper", "threshold", "omen", "stillness",
			"sacred", "veiled", "currents",
		},
		ForeignMarkers: []string{"research", "data", "cognitive", "study"},
		Openings: []string{
			"A vision is turning slowly toward you on the wheel of this day.",
			"A quiet pattern is revealing itself in your days.",
			"What has been veiled begins to unfold.",
		},
		Closings: []string{
			"Trust what the stillness shows you.",
			"The threshold is already open.",
		},
		Directives: []string{
			"Listen today for the quiet pull of %s, and follow where it unfolds.",
			"Set aside a sacred moment before nightfall to honor %s in one small act.",
		},
		MinWords: 30,
		MaxWords: 110,
	},
	PersonaPsychologist: {
		Persona: PersonaPsychologist,
		Markers: []string{
			"notice", "noticing", "pattern", "patterns", "feel", "feeling",
			"feelings", "emotion", "emotional", "awareness", "response",
			"responses", "responding", "behavior", "observe", "observations",
		},
		ForeignMarkers: []string{"destiny", "cosmic", "omen", "sacred"},
		Openings: []string{
			"There is a pattern in how you respond that deserves attention.",
			"Your inner responses are asking for a closer look.",
		},
		Closings: []string{
			"Small observations compound into real change over time.",
			"You already have the awareness this moment asks for.",
		},
		Directives: []string{
			"Name one feeling connected to %s and write it down today.",
			"Notice when %s shows up in your reactions, and pause before responding.",
		},
		MinWords: 30,
		MaxWords: 110,
	},
	PersonaPhilosopher: {
		Persona: PersonaPhilosopher,
		Markers: []string{
			"meaning", "question", "questions", "examine", "examined",
			"examining", "virtue", "consider", "truth", "paradox", "honestly",
		},
		ForeignMarkers: []string{"cosmic", "omen", "nurture"},
		Openings: []string{
			"Every ordinary day conceals a question worth examining.",
			"Consider what this moment is actually asking of you.",
		},
		Closings: []string{
			"An examined choice is rarely a wasted one.",
			"Let the question matter more than the answer today.",
		},
		Directives: []string{
			"Ask yourself tonight what %s truly demands of you, and answer honestly.",
			"Choose one act today that puts %s into practice rather than theory.",
		},
		MinWords: 30,
		MaxWords: 110,
	},
	PersonaScholar: {
		Persona: PersonaScholar,
		Markers: []string{
			"tradition", "traditions", "symbol", "symbolism", "number",
			"numbers", "associated", "historically", "signifies",
			"correspondence", "lesson",
		},
		ForeignMarkers: []string{"whisper", "omen"},
		Openings: []string{
			"The numerological tradition attaches a precise meaning to this pairing.",
			"These two numbers form a well-documented correspondence.",
		},
		Closings: []string{
			"The symbolism is old, but the application is yours.",
			"Tradition offers the map; the walking is yours.",
		},
		Directives: []string{
			"Apply the lesson of %s deliberately in one decision today.",
			"Study where %s already operates in your week, and write one observation.",
		},
		MinWords: 30,
		MaxWords: 120,
	},
	PersonaGuide: {
		Persona: PersonaGuide,
		Markers: []string{
			"breathe", "breath", "breaths", "present", "gentle", "gently",
			"gentleness", "moment", "practice", "attention", "rest",
		},
		ForeignMarkers: []string{"historically", "signifies", "data"},
		Openings: []string{
			"Come back to this moment for a breath.",
			"There is nothing to fix right now, only something to notice.",
		},
		Closings: []string{
			"Let that gentle attention be enough for today.",
			"Gentleness counts as progress.",
		},
		Directives: []string{
			"Take three slow breaths and bring your attention to %s.",
			"Practice one minute of stillness today with %s in mind.",
		},
		MinWords: 25,
		MaxWords: 100,
	},
}
