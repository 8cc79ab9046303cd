package backend

import (
	"context"

	"card-psycho/internal/domain"
)

// MockClient permite tests sin hablar con el backend real.
type MockClient struct {
	AnalyzeResponse []byte
	QuickResponse   []byte
	BattleResponse  []byte
	AudioResponse   []byte
	VoicesResponse  []byte
	ContentType     string
	Err             error

	AnalyzeCalls int
	QuickCalls   int
	BattleCalls  int
	LastOriginal     domain.CardImage
	LastOpponent     domain.CardImage
	LastAudioRef     string
	LastCritiqueText string
}

func (m *MockClient) AnalyzeCard(ctx context.Context, card domain.CardImage) ([]byte, error) {
	m.AnalyzeCalls++
	m.LastOriginal = card
	return m.AnalyzeResponse, m.Err
}

func (m *MockClient) QuickAnalysis(ctx context.Context, card domain.CardImage) ([]byte, error) {
	m.QuickCalls++
	m.LastOriginal = card
	return m.QuickResponse, m.Err
}

func (m *MockClient) BattleAnalysis(ctx context.Context, original, contender domain.CardImage) ([]byte, error) {
	m.BattleCalls++
	m.LastOriginal = original
	m.LastOpponent = contender
	return m.BattleResponse, m.Err
}

func (m *MockClient) GenerateAudio(ctx context.Context, text, voiceID string) ([]byte, error) {
	return m.AudioResponse, m.Err
}

func (m *MockClient) CritiqueAudio(ctx context.Context, text string) ([]byte, error) {
	m.LastCritiqueText = text
	return m.AudioResponse, m.Err
}

func (m *MockClient) Voices(ctx context.Context) ([]byte, error) {
	return m.VoicesResponse, m.Err
}

func (m *MockClient) FetchAudio(ctx context.Context, audioPath string) ([]byte, string, error) {
	m.LastAudioRef = audioPath
	return m.AudioResponse, m.ContentType, m.Err
}

func (m *MockClient) Health(ctx context.Context) error {
	return m.Err
}
