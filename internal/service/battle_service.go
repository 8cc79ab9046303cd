package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"card-psycho/internal/domain"
)

var (
	ErrBattleSessionNotFound = errors.New("battle session not found")
	ErrBattleAlreadyResolved = errors.New("battle already resolved")
	ErrBattleNoChallenger    = errors.New("battle challenger not set")
	ErrBattleNotReady        = errors.New("battle not ready to resolve")
)

// BattleService mantiene el sub-flujo de batalla:
// AwaitingChallenger -> AwaitingContender -> Resolved.
// La resolucion nunca es automatica: el usuario puede reemplazar cualquiera
// de las dos tarjetas hasta que dispare Resolve explicitamente.
type BattleService struct {
	store  BattleSessionStore
	nav    NavigationEngine
	ttl    time.Duration
	logger *zap.Logger
}

func NewBattleService(store BattleSessionStore, ttl time.Duration, logger *zap.Logger) *BattleService {
	if store == nil {
		store = NewMemoryBattleSessionStore()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BattleService{
		store:  store,
		nav:    NavigationEngine{},
		ttl:    ttl,
		logger: logger,
	}
}

// Start crea una nueva sesion vacia. Cada comparacion es una instancia
// independiente referenciada por ID; nunca hay una "batalla actual" global.
func (s *BattleService) Start(ctx context.Context) (domain.BattleSession, error) {
	now := time.Now().UTC()
	session := domain.BattleSession{
		ID:        uuid.NewString(),
		Phase:     domain.PhaseAwaitingChallenger,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(session, s.ttl); err != nil {
		return domain.BattleSession{}, fmt.Errorf("save battle session: %w", err)
	}
	s.logger.Info("battle session started", zap.String("session_id", session.ID))
	return session, nil
}

// Get devuelve la sesion por ID.
func (s *BattleService) Get(ctx context.Context, id string) (domain.BattleSession, error) {
	session, ok, err := s.store.Get(id)
	if err != nil {
		return domain.BattleSession{}, fmt.Errorf("load battle session: %w", err)
	}
	if !ok {
		return domain.BattleSession{}, ErrBattleSessionNotFound
	}
	return session, nil
}

// SetChallenger coloca (o reemplaza) la tarjeta del usuario y avanza a
// AwaitingContender si hacia falta.
func (s *BattleService) SetChallenger(ctx context.Context, id string, result domain.AnalysisResult) (domain.BattleSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return domain.BattleSession{}, err
	}
	if session.Phase == domain.PhaseResolved {
		return domain.BattleSession{}, ErrBattleAlreadyResolved
	}

	session.Challenger = &result
	session.Phase = domain.PhaseAwaitingContender
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(session, s.ttl); err != nil {
		return domain.BattleSession{}, fmt.Errorf("save battle session: %w", err)
	}
	return session, nil
}

// SetContender coloca (o reemplaza) la tarjeta oponente. Requiere que el
// challenger ya este presente.
func (s *BattleService) SetContender(ctx context.Context, id string, result domain.AnalysisResult) (domain.BattleSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return domain.BattleSession{}, err
	}
	if session.Phase == domain.PhaseResolved {
		return domain.BattleSession{}, ErrBattleAlreadyResolved
	}
	if session.Challenger == nil {
		return domain.BattleSession{}, ErrBattleNoChallenger
	}

	session.Contender = &result
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(session, s.ttl); err != nil {
		return domain.BattleSession{}, fmt.Errorf("save battle session: %w", err)
	}
	return session, nil
}

// Resolve computa el veredicto con ambos resultados presentes y deja la
// sesion en su estado terminal.
func (s *BattleService) Resolve(ctx context.Context, id string) (domain.BattleSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return domain.BattleSession{}, err
	}
	if session.Phase == domain.PhaseResolved {
		return domain.BattleSession{}, ErrBattleAlreadyResolved
	}
	if session.Challenger == nil || session.Contender == nil {
		return domain.BattleSession{}, ErrBattleNotReady
	}

	pair := domain.BattlePair{
		Challenger: *session.Challenger,
		Contender:  *session.Contender,
	}
	narrative := domain.BattleNarrative{
		Announcement: NarrativeFor(pair.Challenger.PsychoScore).Quote,
	}
	destination, err := s.nav.RouteBattle(&pair, narrative)
	if err != nil {
		return domain.BattleSession{}, err
	}

	session.Outcome = &destination
	session.Phase = domain.PhaseResolved
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(session, s.ttl); err != nil {
		return domain.BattleSession{}, fmt.Errorf("save battle session: %w", err)
	}

	s.logger.Info("battle resolved",
		zap.String("session_id", session.ID),
		zap.String("screen", string(destination.Screen)),
		zap.Float64("challenger_score", pair.Challenger.PsychoScore),
		zap.Float64("contender_score", pair.Contender.PsychoScore),
	)
	return session, nil
}
