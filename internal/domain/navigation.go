package domain

// Screen identifica la pantalla destino de una transicion de navegacion.
type Screen string

const (
	ScreenUpload  Screen = "upload"
	ScreenResults Screen = "results"
	ScreenVictory Screen = "victory"
	ScreenDefeat  Screen = "defeat"
)

// BattlePayload es la carga que reciben las pantallas de victoria/derrota.
// Self es siempre la tarjeta del usuario, gane o pierda.
type BattlePayload struct {
	Self      AnalysisResult  `json:"self"`
	Opponent  AnalysisResult  `json:"opponent"`
	Tie       bool            `json:"tie"`
	Narrative BattleNarrative `json:"narrative"`
}

// Destination es la salida del router de navegacion: pantalla + payload.
// Exactamente uno de Result/Battle esta presente segun el modo.
type Destination struct {
	Screen Screen          `json:"screen"`
	Result *AnalysisResult `json:"result,omitempty"`
	Battle *BattlePayload  `json:"battle,omitempty"`
}
