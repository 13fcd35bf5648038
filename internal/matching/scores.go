package matching

// Match score constants for path matching.
// Higher scores indicate more specific matches.
const (
	// ScorePathExact is the score for an exact path match.
	ScorePathExact = 15

	// ScorePathNamedParams is the base score for a match through {param}
	// segments. Each literal segment in the template adds ScoreLiteralSegment.
	ScorePathNamedParams = 12

	// ScoreLiteralSegment rewards templates with more fixed segments.
	ScoreLiteralSegment = 1

	// ScoreMethod is the score for a method match, used by near-miss ranking.
	ScoreMethod = 10
)
