package domain

// CardImage representa la imagen de tarjeta seleccionada localmente por el usuario.
// Data nunca se persiste: vive solo durante el flujo de subida.
type CardImage struct {
	Name string
	MIME string
	Data []byte
}

// AnalysisResult es el registro canonico de un analisis, ya normalizado.
// Todos los campos opcionales llegan con defaults aplicados; PsychoScore
// siempre esta presente (0 si el backend lo omitio).
type AnalysisResult struct {
	CardImagePreview   string            `json:"card_image_preview,omitempty"`
	PsychoScore        float64           `json:"psycho_score"`
	CardQuality        string            `json:"card_quality"`
	CritiqueText       string            `json:"patrick_critique"`
	Typography         map[string]string `json:"typography"`
	ColorScheme        map[string]string `json:"color_scheme"`
	DesignElements     map[string]string `json:"design_elements"`
	MaterialImpression string            `json:"material_impression,omitempty"`
	LayoutQuality      string            `json:"layout_quality,omitempty"`
	AudioReference     string            `json:"audio_url,omitempty"`
}

// HasAudio indica si hay locucion sintetizada disponible para este resultado.
func (r AnalysisResult) HasAudio() bool {
	return r.AudioReference != ""
}

// BattlePair agrupa los dos resultados de una comparacion.
// Challenger es la tarjeta del usuario; Contender la oponente.
type BattlePair struct {
	Challenger AnalysisResult `json:"challenger"`
	Contender  AnalysisResult `json:"contender"`
}

// BattleNarrative es el veredicto textual del backend para una batalla.
// Se pasa tal cual al cliente; el ganador real se decide localmente
// comparando scores normalizados.
type BattleNarrative struct {
	Verdict         string `json:"verdict,omitempty"`
	Winner          string `json:"winner,omitempty"`
	Announcement    string `json:"announcement,omitempty"`
	Comparison      string `json:"patrick_comparison,omitempty"`
	WinnerReasoning string `json:"winner_reasoning,omitempty"`
	AudioReference  string `json:"audio_url,omitempty"`
}

// Narrative es la cita y tono elegidos para presentar un score.
type Narrative struct {
	Quote string `json:"quote"`
	Tone  string `json:"tone"`
}
