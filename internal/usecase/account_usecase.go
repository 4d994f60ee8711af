package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/periodledger/internal/domain"
)

// AccountUseCase is the account registry. It never changes balances.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	events      eventRecorder
	idGen       IDGenerator
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAccountUseCase creates a new AccountUseCase. outboxRepo may be nil.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		events:      eventRecorder{repo: outboxRepo, idGen: idGen},
		idGen:       idGen,
		logger:      logger.With().Str("component", "accounts").Logger(),
		now:         utcNow,
	}
}

// WithClock replaces the time source.
func (uc *AccountUseCase) WithClock(now func() time.Time) *AccountUseCase {
	uc.now = now
	return uc
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name           string
	Kind           string
	Currency       string
	InitialBalance decimal.Decimal
}

// CreateAccount registers a new active account whose balance starts at InitialBalance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	kind := domain.AccountKindGeneric
	if input.Kind != "" {
		k, err := domain.ParseAccountKind(input.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}

	now := uc.now()
	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		Name:           strings.TrimSpace(input.Name),
		Kind:           kind,
		Currency:       strings.ToUpper(strings.TrimSpace(input.Currency)),
		InitialBalance: input.InitialBalance,
		Balance:        input.InitialBalance,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	err = uc.events.record(ctx, tx, domain.AggregateTypeAccount, account.ID,
		domain.EventTypeAccountCreated, domain.AccountPayload(account), now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("kind", string(account.Kind)).
		Str("currency", account.Currency).
		Msg("account created")

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetBalance returns the account's current balance without taking a writer lock.
func (uc *AccountUseCase) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	return uc.accountRepo.List(ctx, input.Limit, input.Offset)
}

// DeactivateAccount marks an account inactive. Existing entries are kept;
// new entries touching the account fail validation. Deactivating twice is a no-op.
func (uc *AccountUseCase) DeactivateAccount(ctx context.Context, id string) (*domain.Account, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if !account.IsActive {
		return account, nil
	}

	now := uc.now()
	if err := uc.accountRepo.SetActive(ctx, tx, id, false, now); err != nil {
		return nil, err
	}

	account.IsActive = false
	account.UpdatedAt = now

	err = uc.events.record(ctx, tx, domain.AggregateTypeAccount, account.ID,
		domain.EventTypeAccountDeactivated, domain.AccountPayload(account), now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().Str("account_id", id).Msg("account deactivated")

	return account, nil
}
