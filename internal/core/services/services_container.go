package services

import (
	portsrepo "github.com/valr-fintech/treasury-ledger/internal/core/ports/repositories"
	portssvc "github.com/valr-fintech/treasury-ledger/internal/core/ports/services"
	"github.com/valr-fintech/treasury-ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) (*portssvc.ServiceContainer, error) {
	container := &portssvc.ServiceContainer{}

	// Fee calculator first: its configuration is validated at construction.
	feeSvc, err := NewFeeService(cfg.Fees, repos.CounterRepo)
	if err != nil {
		return nil, err
	}
	container.Fee = feeSvc

	container.FloatAccount = NewFloatAccountService(repos.FloatAccountRepo)

	// The coordinator depends only on repositories, so the settlement service
	// can take it as a dependency without a cycle.
	container.Netting = NewNettingService(repos.FloatAccountRepo, repos.SettlementRepo)

	container.Settlement = NewSettlementService(
		repos.SettlementRepo,
		repos.FloatAccountRepo,
		WithNettingService(container.Netting),
	)

	return container, nil
}
