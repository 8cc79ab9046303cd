package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"card-psycho/internal/domain"
)

// ErrMalformedResponse indica que la respuesta del backend no pudo
// interpretarse como el registro esperado. Se trata igual que un fallo de
// request de cara al usuario, pero debe distinguirse en logs.
var ErrMalformedResponse = errors.New("malformed backend response")

// Placeholder fijo para criticas ausentes. Los sub-atributos ausentes se
// resuelven en render via AttributeOrPlaceholder.
const (
	critiquePlaceholder  = "No critique available."
	attributePlaceholder = "Not analyzed"

	defaultLayoutQuality      = "Standard"
	defaultMaterialImpression = "Professional"
)

// Normalizer convierte respuestas crudas del backend en AnalysisResult
// canonicos. Es puro: misma entrada, misma salida.
type Normalizer struct{}

// DefaultNormalizer permite uso directo sin instanciar.
var DefaultNormalizer = Normalizer{}

// rawAnalysis es la forma tolerante de la respuesta de analisis simple.
// Todos los campos son opcionales; los defaults se aplican al normalizar.
type rawAnalysis struct {
	PsychoScore        *float64       `json:"psycho_score"`
	PatrickCritique    *string        `json:"patrick_critique"`
	AudioURL           *string        `json:"audio_url"`
	MaterialImpression *string        `json:"material_impression"`
	LayoutQuality      *string        `json:"layout_quality"`
	AnalysisDetails    *rawDetails    `json:"analysis_details"`
	Typography         map[string]any `json:"typography"`
	ColorScheme        map[string]any `json:"color_scheme"`
	DesignElements     map[string]any `json:"design_elements"`
}

type rawDetails struct {
	Typography         map[string]any `json:"typography"`
	ColorScheme        map[string]any `json:"color_scheme"`
	DesignElements     map[string]any `json:"design_elements"`
	MaterialImpression *string        `json:"material_impression"`
	LayoutQuality      *string        `json:"layout_quality"`
}

// rawBattle es la forma tolerante de la respuesta alpha-vs-beta.
type rawBattle struct {
	BattleResult *struct {
		Verdict      string `json:"verdict"`
		Winner       string `json:"winner"`
		Announcement string `json:"announcement"`
		AudioURL     string `json:"audio_url"`
	} `json:"battle_result"`
	Scores *struct {
		OriginalScore  *float64 `json:"original_score"`
		ContenderScore *float64 `json:"contender_score"`
	} `json:"scores"`
	DetailedAnalysis *struct {
		OriginalCard      json.RawMessage `json:"original_card"`
		ContenderCard     json.RawMessage `json:"contender_card"`
		PatrickComparison string          `json:"patrick_comparison"`
		WinnerReasoning   string          `json:"winner_reasoning"`
	} `json:"detailed_analysis"`
}

// Normalize mapea una respuesta cruda de analisis simple al registro
// canonico, usando la imagen local como fuente del preview.
func (Normalizer) Normalize(raw []byte, card domain.CardImage) (domain.AnalysisResult, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	var parsed rawAnalysis
	if err := json.Unmarshal(obj, &parsed); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	result := buildResult(parsed)
	result.CardImagePreview = card.Name
	return result, nil
}

// NormalizeBattle mapea la respuesta alpha-vs-beta a un par normalizado mas
// la narrativa del veredicto. Los scores viajan fuera de cada tarjeta en el
// wire format, asi que se inyectan aqui.
func (Normalizer) NormalizeBattle(raw []byte, challenger, contender domain.CardImage) (domain.BattlePair, domain.BattleNarrative, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return domain.BattlePair{}, domain.BattleNarrative{}, err
	}

	var parsed rawBattle
	if err := json.Unmarshal(obj, &parsed); err != nil {
		return domain.BattlePair{}, domain.BattleNarrative{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	pair := domain.BattlePair{
		Challenger: normalizeBattleCard(cardJSON(parsed, true), challenger),
		Contender:  normalizeBattleCard(cardJSON(parsed, false), contender),
	}
	if parsed.Scores != nil {
		if parsed.Scores.OriginalScore != nil {
			pair.Challenger.PsychoScore = clampScore(*parsed.Scores.OriginalScore)
			pair.Challenger.CardQuality = CardQuality(pair.Challenger.PsychoScore)
		}
		if parsed.Scores.ContenderScore != nil {
			pair.Contender.PsychoScore = clampScore(*parsed.Scores.ContenderScore)
			pair.Contender.CardQuality = CardQuality(pair.Contender.PsychoScore)
		}
	}

	var narrative domain.BattleNarrative
	if parsed.BattleResult != nil {
		narrative.Verdict = parsed.BattleResult.Verdict
		narrative.Winner = parsed.BattleResult.Winner
		narrative.Announcement = parsed.BattleResult.Announcement
		narrative.AudioReference = parsed.BattleResult.AudioURL
	}
	if parsed.DetailedAnalysis != nil {
		narrative.Comparison = parsed.DetailedAnalysis.PatrickComparison
		narrative.WinnerReasoning = parsed.DetailedAnalysis.WinnerReasoning
	}

	return pair, narrative, nil
}

// AttributeOrPlaceholder resuelve un sub-atributo por nombre, con
// placeholder fijo para claves que el backend no analizo.
func AttributeOrPlaceholder(attrs map[string]string, key string) string {
	if v, ok := attrs[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return attributePlaceholder
}

func normalizeBattleCard(raw json.RawMessage, card domain.CardImage) domain.AnalysisResult {
	var parsed rawAnalysis
	if len(raw) > 0 {
		// Forma invalida en una tarjeta individual no tumba la batalla;
		// degrada a defaults.
		_ = json.Unmarshal(raw, &parsed)
	}
	result := buildResult(parsed)
	result.CardImagePreview = card.Name
	return result
}

func buildResult(parsed rawAnalysis) domain.AnalysisResult {
	result := domain.AnalysisResult{
		PsychoScore:        0,
		CritiqueText:       critiquePlaceholder,
		Typography:         map[string]string{},
		ColorScheme:        map[string]string{},
		DesignElements:     map[string]string{},
		MaterialImpression: defaultMaterialImpression,
		LayoutQuality:      defaultLayoutQuality,
	}

	if parsed.PsychoScore != nil {
		result.PsychoScore = clampScore(*parsed.PsychoScore)
	}
	if parsed.PatrickCritique != nil && strings.TrimSpace(*parsed.PatrickCritique) != "" {
		result.CritiqueText = *parsed.PatrickCritique
	}
	if parsed.AudioURL != nil {
		result.AudioReference = *parsed.AudioURL
	}

	// Los detalles pueden venir anidados (wire format canonico) o planos
	// (resultados ya normalizados); el anidado gana si trae datos.
	typography := parsed.Typography
	colorScheme := parsed.ColorScheme
	designElements := parsed.DesignElements
	material := parsed.MaterialImpression
	layout := parsed.LayoutQuality
	if d := parsed.AnalysisDetails; d != nil {
		if d.Typography != nil {
			typography = d.Typography
		}
		if d.ColorScheme != nil {
			colorScheme = d.ColorScheme
		}
		if d.DesignElements != nil {
			designElements = d.DesignElements
		}
		if d.MaterialImpression != nil {
			material = d.MaterialImpression
		}
		if d.LayoutQuality != nil {
			layout = d.LayoutQuality
		}
	}

	result.Typography = stringMap(typography)
	result.ColorScheme = stringMap(colorScheme)
	result.DesignElements = stringMap(designElements)
	if material != nil && strings.TrimSpace(*material) != "" {
		result.MaterialImpression = *material
	}
	if layout != nil && strings.TrimSpace(*layout) != "" {
		result.LayoutQuality = *layout
	}

	result.CardQuality = CardQuality(result.PsychoScore)
	return result
}

// decodeObject valida que el payload sea un objeto JSON. Si viene envuelto
// en ruido intenta rescatar el primer objeto completo antes de rendirse.
func decodeObject(raw []byte) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}
	if rescued, ok := rescueObject(trimmed); ok {
		return rescued, nil
	}
	return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
}

// rescueObject busca el primer objeto JSON completo dentro de un payload con
// ruido alrededor (prefijos de proxy, texto suelto del backend). Prueba a
// decodificar desde cada llave de apertura y se queda con el primer objeto
// que cierra bien.
func rescueObject(raw string) (json.RawMessage, bool) {
	for from := 0; ; {
		offset := strings.IndexByte(raw[from:], '{')
		if offset == -1 {
			return nil, false
		}
		start := from + offset

		var obj json.RawMessage
		dec := json.NewDecoder(strings.NewReader(raw[start:]))
		if err := dec.Decode(&obj); err == nil && len(obj) > 0 && obj[0] == '{' {
			return obj, true
		}
		from = start + 1
	}
}

func cardJSON(parsed rawBattle, original bool) json.RawMessage {
	if parsed.DetailedAnalysis == nil {
		return nil
	}
	if original {
		return parsed.DetailedAnalysis.OriginalCard
	}
	return parsed.DetailedAnalysis.ContenderCard
}

// stringMap aplana un mapa de sub-atributos a valores string. Valores no
// string se serializan; claves con null se descartan.
func stringMap(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		case float64:
			out[k] = fmt.Sprintf("%g", val)
		case bool:
			out[k] = fmt.Sprintf("%t", val)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
