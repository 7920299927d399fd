package domain

import "context"

// Generator produces an image for the articulation text. Implementations
// are remote calls with real latency and failure modes; callers bound
// them with a timeout.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// ScoreResult is the scorer's verdict: a 0-100 total plus an optional
// per-dimension breakdown.
type ScoreResult struct {
	Total     int
	Breakdown *ScoreBreakdown
}

// Scorer judges how closely the generated image matches the reference,
// given the articulation text that produced it.
type Scorer interface {
	Score(ctx context.Context, referenceURL, generatedURL, articulationText string) (ScoreResult, error)
}

// ArtifactStore persists generated images and returns a publicly
// addressable URL for them.
type ArtifactStore interface {
	Save(ctx context.Context, path string, data []byte) (string, error)
}
