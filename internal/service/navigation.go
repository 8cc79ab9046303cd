package service

import (
	"errors"

	"card-psycho/internal/domain"
)

// ErrMissingUpstreamResult indica que el router fue invocado sin el
// AnalysisResult requerido. Se resuelve redirigiendo al punto de subida.
var ErrMissingUpstreamResult = errors.New("missing upstream analysis result")

// NavigationEngine decide la pantalla destino para un resultado (o par de
// resultados en batalla). Logica pura, sin estado.
type NavigationEngine struct{}

// DefaultNavigationEngine permite uso directo sin instanciar.
var DefaultNavigationEngine = NavigationEngine{}

// RouteSingle siempre presenta la pantalla de resultados con el resultado
// como payload. Sin resultado previo devuelve la redireccion segura.
func (NavigationEngine) RouteSingle(result *domain.AnalysisResult) (domain.Destination, error) {
	if result == nil {
		return domain.Destination{Screen: domain.ScreenUpload}, ErrMissingUpstreamResult
	}
	return domain.Destination{
		Screen: domain.ScreenResults,
		Result: result,
	}, nil
}

// RouteBattle aplica la comparacion estricta de tres vias sobre los scores.
// El empate favorece al challenger: pantalla de victoria con Tie marcado.
func (NavigationEngine) RouteBattle(pair *domain.BattlePair, narrative domain.BattleNarrative) (domain.Destination, error) {
	if pair == nil {
		return domain.Destination{Screen: domain.ScreenUpload}, ErrMissingUpstreamResult
	}

	payload := &domain.BattlePayload{
		Self:      pair.Challenger,
		Opponent:  pair.Contender,
		Narrative: narrative,
	}

	switch {
	case pair.Challenger.PsychoScore > pair.Contender.PsychoScore:
		return domain.Destination{Screen: domain.ScreenVictory, Battle: payload}, nil
	case pair.Challenger.PsychoScore < pair.Contender.PsychoScore:
		return domain.Destination{Screen: domain.ScreenDefeat, Battle: payload}, nil
	default:
		payload.Tie = true
		return domain.Destination{Screen: domain.ScreenVictory, Battle: payload}, nil
	}
}
