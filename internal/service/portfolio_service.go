package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
	"github.com/kryptotracker/backend/internal/repository"
)

// PortfolioService composes the read-side views: per-portfolio summaries
// and the headline dashboard figures.
type PortfolioService struct {
	portfolios   *repository.PortfolioRepository
	positions    *repository.PositionRepository
	transactions *repository.TransactionRepository
	assets       *repository.AssetRepository
	log          zerolog.Logger
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(
	portfolios *repository.PortfolioRepository,
	positions *repository.PositionRepository,
	transactions *repository.TransactionRepository,
	assets *repository.AssetRepository,
	log zerolog.Logger,
) *PortfolioService {
	return &PortfolioService{
		portfolios:   portfolios,
		positions:    positions,
		transactions: transactions,
		assets:       assets,
		log:          log.With().Str("component", "portfolio").Logger(),
	}
}

// Summaries returns every portfolio of the user with its positions.
func (s *PortfolioService) Summaries(ctx context.Context, userID string) ([]model.PortfolioSummary, error) {
	portfolios, err := s.portfolios.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrievePortfolios, err)
	}

	summaries := make([]model.PortfolioSummary, 0, len(portfolios))
	for _, p := range portfolios {
		views, err := s.positions.ListViews(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrievePositions, err)
		}
		summaries = append(summaries, model.PortfolioSummary{
			ID:        p.ID,
			Name:      p.Name,
			Type:      p.Type,
			Balance:   p.Balance,
			Positions: views,
		})
	}

	return summaries, nil
}

// Summary returns one portfolio with its positions.
func (s *PortfolioService) Summary(ctx context.Context, id string) (model.PortfolioSummary, error) {
	p, err := s.portfolios.GetByID(ctx, id)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	views, err := s.positions.ListViews(ctx, p.ID)
	if err != nil {
		return model.PortfolioSummary{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrievePositions, err)
	}

	return model.PortfolioSummary{
		ID:        p.ID,
		Name:      p.Name,
		Type:      p.Type,
		Balance:   p.Balance,
		Positions: views,
	}, nil
}

// Dashboard aggregates the user's holdings into the headline view: total
// and per-category balances, position breakdowns and recent activity.
func (s *PortfolioService) Dashboard(ctx context.Context, userID string) (model.DashboardSummary, error) {
	portfolios, err := s.portfolios.ListByUser(ctx, userID)
	if err != nil {
		return model.DashboardSummary{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrievePortfolios, err)
	}

	summary := model.DashboardSummary{
		SpotPositions:    []model.PositionView{},
		StakingPositions: []model.PositionView{},
	}
	seen := map[string]bool{}

	for _, p := range portfolios {
		views, err := s.positions.ListViews(ctx, p.ID)
		if err != nil {
			return model.DashboardSummary{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrievePositions, err)
		}

		summary.SumBalance += p.Balance
		switch p.Type {
		case model.PortfolioTypeSpot:
			summary.SpotBalance += p.Balance
			summary.SpotPositions = append(summary.SpotPositions, views...)
		case model.PortfolioTypeStaking:
			summary.StakingBalance += p.Balance
			summary.StakingPositions = append(summary.StakingPositions, views...)
		}

		for _, v := range views {
			if !seen[v.Acronym] {
				seen[v.Acronym] = true
				summary.AssetCount++
			}
		}
	}

	count, first, last, err := s.transactions.Stats(ctx, userID)
	if err != nil {
		return model.DashboardSummary{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveTransactions, err)
	}
	summary.TransactionCount = count
	summary.FirstTransaction = first
	summary.LastTransaction = last

	recent, err := s.transactions.ListRecent(ctx, userID, 5)
	if err != nil {
		return model.DashboardSummary{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveTransactions, err)
	}
	summary.LastTransactions = recent

	return summary, nil
}

// Transactions returns the user's full transaction history.
func (s *PortfolioService) Transactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	transactions, err := s.transactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveTransactions, err)
	}
	return transactions, nil
}

// Assets returns every tracked asset.
func (s *PortfolioService) Assets(ctx context.Context) ([]model.Asset, error) {
	return s.assets.List(ctx)
}

// CreateAsset registers a new tracked asset.
func (s *PortfolioService) CreateAsset(ctx context.Context, asset *model.Asset) error {
	return s.assets.Create(ctx, asset)
}
