package service

import "card-psycho/internal/domain"

// Bandas de calidad por score, evaluadas de mayor a menor; gana el primer
// umbral que el score alcanza.
var qualityBands = []struct {
	min   float64
	label string
}{
	{9, "Exquisite sophistication"},
	{8, "Superior craftsmanship"},
	{7, "Refined execution"},
	{6, "Professional standard"},
	{5, "Adequate presentation"},
	{4, "Below expectations"},
	{3, "Amateur execution"},
}

const qualityFloor = "Disappointing mediocrity"

// CardQuality deriva la etiqueta cualitativa a partir del psycho score.
// Es funcion pura del score.
func CardQuality(score float64) string {
	for _, band := range qualityBands {
		if score >= band.min {
			return band.label
		}
	}
	return qualityFloor
}

// Tonos de narrativa segun score. El 7.5 exacto pertenece a la banda media.
const (
	ToneTriumphant  = "triumphant"
	ToneBackhanded  = "backhanded"
	ToneDisparaging = "disparaging"
)

// NarrativeFor elige cita y tono para presentar un score.
func NarrativeFor(score float64) domain.Narrative {
	switch {
	case score > 7.5:
		return domain.Narrative{
			Quote: "Impressive. Very nice. Better than Paul Allen's card.",
			Tone:  ToneTriumphant,
		}
	case score >= 5:
		return domain.Narrative{
			Quote: "Acceptable. It almost looks professional.",
			Tone:  ToneBackhanded,
		}
	default:
		return domain.Narrative{
			Quote: "This couldn't get a reservation at Dorsia.",
			Tone:  ToneDisparaging,
		}
	}
}
