package domain

import "time"

// BattlePhase es la fase del sub-flujo de batalla.
type BattlePhase string

const (
	PhaseAwaitingChallenger BattlePhase = "awaiting_challenger"
	PhaseAwaitingContender  BattlePhase = "awaiting_contender"
	PhaseResolved           BattlePhase = "resolved"
)

// BattleSession es el estado explicito de una comparacion en curso.
// Viaja siempre referenciada por ID (nunca como singleton de proceso),
// de modo que varias comparaciones concurrentes no interfieren entre si.
type BattleSession struct {
	ID         string          `json:"id"`
	Phase      BattlePhase     `json:"phase"`
	Challenger *AnalysisResult `json:"challenger,omitempty"`
	Contender  *AnalysisResult `json:"contender,omitempty"`
	Outcome    *Destination    `json:"outcome,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
