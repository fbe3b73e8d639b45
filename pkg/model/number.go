package model

// NumberTheme describes the thematic material attached to one of the nine
// core numbers: a human-readable label and the keyword set used by the
// relevance subscore and the emergency templates.
type NumberTheme struct {
	Number   int
	Label    string
	Keywords []string
}

var numberThemes = map[int]*NumberTheme{
	1: {1, "leadership", []string{"leadership", "initiative", "courage", "beginning", "independence", "will", "pioneer", "action"}},
	2: {2, "harmony", []string{"harmony", "partnership", "balance", "cooperation", "patience", "diplomacy", "listening", "peace"}},
	3: {3, "creativity", []string{"creativity", "expression", "joy", "imagination", "communication", "play", "art", "inspiration"}},
	4: {4, "foundation", []string{"foundation", "stability", "discipline", "order", "work", "structure", "persistence", "craft"}},
	5: {5, "freedom", []string{"freedom", "change", "adventure", "curiosity", "movement", "adaptability", "travel", "risk"}},
	6: {6, "care", []string{"care", "responsibility", "family", "service", "nurture", "home", "devotion", "healing"}},
	7: {7, "wisdom", []string{"wisdom", "introspection", "analysis", "solitude", "insight", "mystery", "depth", "contemplation"}},
	8: {8, "abundance", []string{"abundance", "power", "achievement", "ambition", "mastery", "authority", "material", "success"}},
	9: {9, "compassion", []string{"compassion", "completion", "generosity", "release", "humanitarian", "forgiveness", "wholeness", "closure"}},
}

// ThemeOf returns the theme for a number in [1,9]. Callers validate the
// range at the boundary; a nil return means a programming error upstream.
func ThemeOf(n int) *NumberTheme {
	return numberThemes[n]
}
