package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/kryptotracker/backend/internal/pricing"
	"github.com/kryptotracker/backend/internal/repository"
)

// SyncService runs the background refresh cycle: current prices for every
// tracked asset, then an incremental ledger pull and a balance snapshot
// for every stored exchange credential. One user's failure never blocks
// the others.
type SyncService struct {
	assets      *repository.AssetRepository
	credentials *repository.CredentialRepository
	prices      *pricing.Resolver
	importer    *ImportService
	scheduler   *cron.Cron
	log         zerolog.Logger
}

// NewSyncService creates a new SyncService.
func NewSyncService(
	assets *repository.AssetRepository,
	credentials *repository.CredentialRepository,
	prices *pricing.Resolver,
	importer *ImportService,
	log zerolog.Logger,
) *SyncService {
	return &SyncService{
		assets:      assets,
		credentials: credentials,
		prices:      prices,
		importer:    importer,
		scheduler:   cron.New(),
		log:         log.With().Str("component", "sync").Logger(),
	}
}

// Start schedules the refresh cycle with the given cron spec and begins
// running it. Returns an error when the cron expression does not parse.
func (s *SyncService) Start(schedule string) error {
	_, err := s.scheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.RunCycle(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.Start()
	s.log.Info().Str("schedule", schedule).Msg("background sync scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running cycle to finish.
func (s *SyncService) Stop() {
	<-s.scheduler.Stop().Done()
}

// RunCycle executes one full refresh cycle immediately.
func (s *SyncService) RunCycle(ctx context.Context) {
	s.refreshPrices(ctx)
	s.syncCredentials(ctx)
}

func (s *SyncService) refreshPrices(ctx context.Context) {
	assets, err := s.assets.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing assets for price refresh")
		return
	}
	s.prices.RefreshAll(ctx, assets)
}

func (s *SyncService) syncCredentials(ctx context.Context) {
	creds, err := s.credentials.ListAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing credentials for exchange sync")
		return
	}

	for _, cred := range creds {
		if _, err := s.importer.ImportFromExchange(ctx, cred.UserID, cred.Exchange, 0); err != nil {
			s.log.Error().
				Str("user", cred.UserID).
				Str("exchange", cred.Exchange).
				Err(err).
				Msg("scheduled ledger pull failed")
		}
		if err := s.importer.SyncSnapshots(ctx, cred.UserID, cred.Exchange); err != nil {
			s.log.Error().
				Str("user", cred.UserID).
				Str("exchange", cred.Exchange).
				Err(err).
				Msg("scheduled snapshot sync failed")
		}
	}
}
