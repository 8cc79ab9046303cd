package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"card-psycho/internal/backend"
	"card-psycho/internal/domain"
)

var (
	ErrUploadEmpty    = errors.New("upload empty")
	ErrUploadTooLarge = errors.New("upload too large")
	ErrUploadNotImage = errors.New("upload is not an image")
)

// AnalyzeService orquesta el flujo subida -> analisis -> normalizacion.
// Un request al backend por llamada, sin retry; el caller decide navegacion.
type AnalyzeService struct {
	client         backend.Client
	normalizer     Normalizer
	nav            NavigationEngine
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewAnalyzeService(client backend.Client, maxUploadBytes int64, logger *zap.Logger) *AnalyzeService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyzeService{
		client:         client,
		normalizer:     Normalizer{},
		nav:            NavigationEngine{},
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ValidateCard rechaza subidas vacias, demasiado grandes o que no sean
// imagenes, antes de gastar un request contra el backend.
func (s *AnalyzeService) ValidateCard(card domain.CardImage) error {
	if len(card.Data) == 0 {
		return ErrUploadEmpty
	}
	if int64(len(card.Data)) > s.maxUploadBytes {
		return ErrUploadTooLarge
	}
	sniffed := http.DetectContentType(card.Data)
	if !strings.HasPrefix(sniffed, "image/") {
		return ErrUploadNotImage
	}
	return nil
}

// Analyze sube la tarjeta al endpoint completo y devuelve el resultado
// canonico ya normalizado.
func (s *AnalyzeService) Analyze(ctx context.Context, card domain.CardImage) (domain.AnalysisResult, error) {
	if err := s.ValidateCard(card); err != nil {
		return domain.AnalysisResult{}, err
	}

	start := time.Now()
	raw, err := s.client.AnalyzeCard(ctx, card)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("analyze card: %w", err)
	}

	result, err := s.normalizer.Normalize(raw, card)
	if err != nil {
		s.logger.Warn("analysis response rejected", zap.Error(err), zap.String("card", card.Name))
		return domain.AnalysisResult{}, err
	}

	s.logger.Info("card analyzed",
		zap.String("card", card.Name),
		zap.Float64("psycho_score", result.PsychoScore),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// Quick sube la tarjeta al endpoint reducido (score + critica, sin audio).
func (s *AnalyzeService) Quick(ctx context.Context, card domain.CardImage) (domain.AnalysisResult, error) {
	if err := s.ValidateCard(card); err != nil {
		return domain.AnalysisResult{}, err
	}

	raw, err := s.client.QuickAnalysis(ctx, card)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("quick analysis: %w", err)
	}

	result, err := s.normalizer.Normalize(raw, card)
	if err != nil {
		s.logger.Warn("quick analysis response rejected", zap.Error(err), zap.String("card", card.Name))
		return domain.AnalysisResult{}, err
	}
	return result, nil
}

// Duel ejecuta la batalla de un solo paso: ambas imagenes al backend,
// normalizacion del par y veredicto local. El ganador se recalcula siempre
// con los scores normalizados para que ambos flujos de batalla compartan la
// misma regla de comparacion.
func (s *AnalyzeService) Duel(ctx context.Context, original, contender domain.CardImage) (domain.Destination, error) {
	if err := s.ValidateCard(original); err != nil {
		return domain.Destination{}, err
	}
	if err := s.ValidateCard(contender); err != nil {
		return domain.Destination{}, err
	}

	raw, err := s.client.BattleAnalysis(ctx, original, contender)
	if err != nil {
		return domain.Destination{}, fmt.Errorf("battle analysis: %w", err)
	}

	pair, narrative, err := s.normalizer.NormalizeBattle(raw, original, contender)
	if err != nil {
		s.logger.Warn("battle response rejected", zap.Error(err))
		return domain.Destination{}, err
	}

	destination, err := s.nav.RouteBattle(&pair, narrative)
	if err != nil {
		return domain.Destination{}, err
	}

	s.logger.Info("duel resolved",
		zap.String("screen", string(destination.Screen)),
		zap.Float64("challenger_score", pair.Challenger.PsychoScore),
		zap.Float64("contender_score", pair.Contender.PsychoScore),
	)
	return destination, nil
}
