package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/SscSPs/vault_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account codes of the ledger accounts a vault owns.
func vaultRootCode(vaultID string) string { return "VAULT:" + vaultID }

func vaultPositionCode(vaultID, currency string) string { return "VAULT:" + vaultID + ":" + currency }

func vaultSystemCode(vaultID, suffix string) string { return "VAULT:" + vaultID + ":" + suffix }

// vaultService manages vaults, their currency positions and money movements.
type vaultService struct {
	BaseService
	txManager  portsrepo.TransactionManager
	vaultRepo  portsrepo.VaultRepositoryFacade
	ledgerRepo portsrepo.LedgerReader
	accounts   portssvc.AccountSvcFacade
	ledger     portssvc.LedgerSvcFacade
	fxRates    portssvc.FXRateSvcFacade
}

// NewVaultService creates the vault and currency position manager.
func NewVaultService(
	txManager portsrepo.TransactionManager,
	vaultRepo portsrepo.VaultRepositoryFacade,
	ledgerRepo portsrepo.LedgerReader,
	accounts portssvc.AccountSvcFacade,
	ledger portssvc.LedgerSvcFacade,
	fxRates portssvc.FXRateSvcFacade,
	opts ...ServiceOption,
) portssvc.VaultSvcFacade {
	return newVaultService(txManager, vaultRepo, ledgerRepo, accounts, ledger, fxRates, opts...)
}

func newVaultService(
	txManager portsrepo.TransactionManager,
	vaultRepo portsrepo.VaultRepositoryFacade,
	ledgerRepo portsrepo.LedgerReader,
	accounts portssvc.AccountSvcFacade,
	ledger portssvc.LedgerSvcFacade,
	fxRates portssvc.FXRateSvcFacade,
	opts ...ServiceOption,
) *vaultService {
	return &vaultService{
		BaseService: newBaseService(opts),
		txManager:   txManager,
		vaultRepo:   vaultRepo,
		ledgerRepo:  ledgerRepo,
		accounts:    accounts,
		ledger:      ledger,
		fxRates:     fxRates,
	}
}

var _ portssvc.VaultSvcFacade = (*vaultService)(nil)

// CreateVault creates the vault row, its root asset account and its system counter-accounts
// in one unit of work.
func (s *vaultService) CreateVault(ctx context.Context, req dto.CreateVaultRequest, userID string) (*domain.Vault, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("vault name is required")
	}
	base, err := accounting.NormalizeCurrency(req.BaseCurrency)
	if err != nil {
		return nil, err
	}

	ts := now()
	vault := domain.Vault{
		VaultID:         uuid.NewString(),
		Name:            name,
		OwnerType:       req.OwnerType,
		OwnerID:         req.OwnerID,
		BaseCurrency:    base,
		MultiCurrency:   req.MultiCurrency,
		AutoRevaluation: req.AutoRevaluation,
		AuditFields: domain.AuditFields{
			CreatedAt:     ts,
			CreatedBy:     userID,
			LastUpdatedAt: ts,
			LastUpdatedBy: userID,
		},
	}

	accountFor := func(code, label string, accountType domain.AccountType) dto.CreateAccountRequest {
		return dto.CreateAccountRequest{
			Code:         code,
			Name:         name + " " + label,
			AccountType:  accountType,
			CurrencyCode: base,
			EntityType:   domain.EntityVault,
			EntityID:     vault.VaultID,
			IsSystem:     true,
		}
	}

	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		root, err := s.accounts.GetOrCreateAccount(ctx, accountFor(vaultRootCode(vault.VaultID), "root", domain.Asset), userID)
		if err != nil {
			return err
		}
		extIn, err := s.accounts.GetOrCreateAccount(ctx, accountFor(vaultSystemCode(vault.VaultID, "EXTERNAL_IN"), "external inflows", domain.Equity), userID)
		if err != nil {
			return err
		}
		extOut, err := s.accounts.GetOrCreateAccount(ctx, accountFor(vaultSystemCode(vault.VaultID, "EXTERNAL_OUT"), "external outflows", domain.Equity), userID)
		if err != nil {
			return err
		}
		fxGain, err := s.accounts.GetOrCreateAccount(ctx, accountFor(vaultSystemCode(vault.VaultID, "FX_REALIZED"), "realized FX gain", domain.Income), userID)
		if err != nil {
			return err
		}

		vault.RootAccountID = root.AccountID
		vault.ExternalInAccountID = extIn.AccountID
		vault.ExternalOutAccountID = extOut.AccountID
		vault.RealizedFxAccountID = fxGain.AccountID
		return s.vaultRepo.SaveVault(ctx, vault)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create vault", slog.String("name", name))
		return nil, fmt.Errorf("failed to create vault: %w", err)
	}

	s.LogInfo(ctx, "Vault created",
		slog.String("vault_id", vault.VaultID),
		slog.String("base_currency", base),
		slog.Bool("multi_currency", vault.MultiCurrency))
	s.recordAudit(ctx, "vault.created", domain.RiskMedium, userID, "vault", vault.VaultID, map[string]string{
		"owner_type":    vault.OwnerType,
		"owner_id":      vault.OwnerID,
		"base_currency": base,
	})
	return &vault, nil
}

func (s *vaultService) GetVault(ctx context.Context, vaultID string) (*domain.Vault, error) {
	vault, err := s.vaultRepo.FindVaultByID(ctx, vaultID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", vaultID, apperrors.ErrVaultNotFound)
		}
		s.LogError(ctx, err, "Failed to load vault", slog.String("vault_id", vaultID))
		return nil, err
	}
	return vault, nil
}

// lockVault row-locks the vault for the rest of the unit of work and fails when it is locked.
func (s *vaultService) lockVault(ctx context.Context, vaultID string) (*domain.Vault, error) {
	vault, err := s.vaultRepo.FindVaultByIDForUpdate(ctx, vaultID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", vaultID, apperrors.ErrVaultNotFound)
		}
		return nil, err
	}
	if vault.IsLocked {
		return nil, lockedError(vault)
	}
	return vault, nil
}

func lockedError(v *domain.Vault) error {
	return fmt.Errorf("vault %s (%s): %w", v.VaultID, v.LockReason, apperrors.ErrVaultLocked)
}

// unlockedVault is the fail-fast check made before any rate lookup or unit of work.
func (s *vaultService) unlockedVault(ctx context.Context, vaultID string) (*domain.Vault, error) {
	vault, err := s.GetVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if vault.IsLocked {
		return nil, lockedError(vault)
	}
	return vault, nil
}

func (s *vaultService) GetOrCreateCurrencyPosition(ctx context.Context, vaultID, currency, userID string) (*domain.CurrencyPosition, error) {
	currency, err := accounting.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	if _, err := s.unlockedVault(ctx, vaultID); err != nil {
		return nil, err
	}

	var pos *domain.CurrencyPosition
	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		vault, err := s.lockVault(ctx, vaultID)
		if err != nil {
			return err
		}
		pos, err = s.ensurePosition(ctx, vault, currency, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pos, nil
}

func checkVaultCurrency(vault *domain.Vault, currency string) error {
	if currency != vault.BaseCurrency && !vault.MultiCurrency {
		return fmt.Errorf("%w: vault %s only holds %s", apperrors.ErrInvalidCurrency, vault.VaultID, vault.BaseCurrency)
	}
	return nil
}

// ensurePosition returns the locked position of vault in currency, creating its account
// and row on first use. Must run inside a unit of work.
func (s *vaultService) ensurePosition(ctx context.Context, vault *domain.Vault, currency, userID string) (*domain.CurrencyPosition, error) {
	if err := checkVaultCurrency(vault, currency); err != nil {
		return nil, err
	}
	pos, err := s.vaultRepo.FindPositionForUpdate(ctx, vault.VaultID, currency)
	if err == nil {
		return pos, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	rootID := vault.RootAccountID
	account, err := s.accounts.GetOrCreateAccount(ctx, dto.CreateAccountRequest{
		Code:            vaultPositionCode(vault.VaultID, currency),
		Name:            vault.Name + " " + currency,
		AccountType:     domain.Asset,
		CurrencyCode:    currency,
		ParentAccountID: &rootID,
		EntityType:      domain.EntityVault,
		EntityID:        vault.VaultID,
		IsSystem:        true,
		NonNegative:     true,
	}, userID)
	if err != nil {
		return nil, err
	}

	ts := now()
	created := domain.CurrencyPosition{
		PositionID:   uuid.NewString(),
		VaultID:      vault.VaultID,
		CurrencyCode: currency,
		AccountID:    account.AccountID,
		Version:      1,
		AuditFields: domain.AuditFields{
			CreatedAt:     ts,
			CreatedBy:     userID,
			LastUpdatedAt: ts,
			LastUpdatedBy: userID,
		},
	}
	if currency == vault.BaseCurrency {
		created.CostBasisRate = decimal.NewFromInt(1)
		created.LastRate = decimal.NewFromInt(1)
	}

	if err := s.vaultRepo.SavePosition(ctx, created); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.vaultRepo.FindPositionForUpdate(ctx, vault.VaultID, currency)
		}
		return nil, err
	}
	s.LogInfo(ctx, "Currency position opened",
		slog.String("vault_id", vault.VaultID),
		slog.String("currency", currency))
	return &created, nil
}

func (s *vaultService) positionBalance(ctx context.Context, pos *domain.CurrencyPosition) (decimal.Decimal, error) {
	totals, err := s.ledgerRepo.SumEntriesByAccount(ctx, []string{pos.AccountID}, domain.EntrySumFilter{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance of %s position: %w", pos.CurrencyCode, err)
	}
	balance, _ := accounting.BalanceFromTotals(totals[pos.AccountID], domain.Asset)
	return balance, nil
}

func normalizeMovement(amount decimal.Decimal, currency string) (decimal.Decimal, string, error) {
	amount = accounting.RoundAmount(amount)
	if !amount.IsPositive() {
		return decimal.Zero, "", apperrors.NewValidationError("amount must be positive")
	}
	currency, err := accounting.NormalizeCurrency(currency)
	if err != nil {
		return decimal.Zero, "", err
	}
	return amount, currency, nil
}

// movementRate is the supplied rate, or the current stored rate into the vault base currency.
func (s *vaultService) movementRate(ctx context.Context, vault *domain.Vault, currency string, supplied *decimal.Decimal) (decimal.Decimal, error) {
	if currency == vault.BaseCurrency {
		return decimal.NewFromInt(1), nil
	}
	if supplied != nil {
		if !supplied.IsPositive() {
			return decimal.Zero, apperrors.NewValidationError("fx rate must be positive")
		}
		return accounting.RoundRate(*supplied), nil
	}
	resolved, err := s.fxRates.GetRate(ctx, currency, vault.BaseCurrency, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return resolved.Rate, nil
}

// Deposit brings external funds into a position and folds them into its weighted-average cost basis.
func (s *vaultService) Deposit(ctx context.Context, vaultID string, req dto.MovementRequest, userID string) (*domain.VaultMovement, error) {
	amount, currency, err := normalizeMovement(req.Amount, req.CurrencyCode)
	if err != nil {
		return nil, err
	}
	vault, err := s.unlockedVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if err := checkVaultCurrency(vault, currency); err != nil {
		return nil, err
	}
	rate, err := s.movementRate(ctx, vault, currency, req.FxRate)
	if err != nil {
		return nil, err
	}
	baseAmount := accounting.ToBase(amount, rate)

	var movement domain.VaultMovement
	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		vault, err := s.lockVault(ctx, vaultID)
		if err != nil {
			return err
		}
		pos, err := s.ensurePosition(ctx, vault, currency, userID)
		if err != nil {
			return err
		}
		balance, err := s.positionBalance(ctx, pos)
		if err != nil {
			return err
		}

		txn, err := s.ledger.CreateTransaction(ctx, dto.CreateTransactionRequest{
			Type:         domain.TxDeposit,
			BaseCurrency: vault.BaseCurrency,
			Description:  movementDescription(req.Description, "Deposit", amount, currency),
			SourceType:   domain.EntityVault,
			SourceID:     vault.VaultID,
			Entries: []dto.CreateEntryRequest{
				{AccountID: pos.AccountID, Direction: domain.Debit, Amount: amount, CurrencyCode: currency, FxRate: &rate, Memo: req.Reference},
				{AccountID: vault.ExternalInAccountID, Direction: domain.Credit, Amount: baseAmount, CurrencyCode: vault.BaseCurrency, Memo: req.Reference},
			},
		}, userID)
		if err != nil {
			return err
		}

		newBalance := balance.Add(amount)
		pos.CostBasisRate = accounting.WeightedAverageRate(balance, pos.CostBasisRate, amount, rate)
		pos.LastRate = accounting.WeightedAverageRate(balance, pos.LastRate, amount, rate)
		pos.CostBasisAmount = accounting.ToBase(newBalance, pos.CostBasisRate)
		ts := now()
		pos.LastRateDate = &ts
		pos.LastUpdatedAt = ts
		pos.LastUpdatedBy = userID
		if err := s.vaultRepo.UpdatePosition(ctx, *pos); err != nil {
			return err
		}

		movement = domain.VaultMovement{
			TransactionID:  txn.TransactionID,
			VaultID:        vault.VaultID,
			CurrencyCode:   currency,
			Amount:         amount,
			FxRate:         rate,
			BaseAmount:     baseAmount,
			NewBalance:     newBalance,
			RealizedFxGain: decimal.Zero,
		}
		return nil
	})
	if err != nil {
		s.logMovementFailure(ctx, err, "deposit", vaultID)
		return nil, err
	}

	s.completeMovement(ctx, domain.TxDeposit, movement, "", userID)
	return &movement, nil
}

// Withdraw releases funds from a position at its cost basis and books the realized FX result.
func (s *vaultService) Withdraw(ctx context.Context, vaultID string, req dto.MovementRequest, userID string) (*domain.VaultMovement, error) {
	amount, currency, err := normalizeMovement(req.Amount, req.CurrencyCode)
	if err != nil {
		return nil, err
	}
	vault, err := s.unlockedVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if err := checkVaultCurrency(vault, currency); err != nil {
		return nil, err
	}
	rate, err := s.movementRate(ctx, vault, currency, req.FxRate)
	if err != nil {
		return nil, err
	}

	var movement domain.VaultMovement
	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		vault, err := s.lockVault(ctx, vaultID)
		if err != nil {
			return err
		}
		pos, balance, err := s.lockHolding(ctx, vault, currency, amount)
		if err != nil {
			return err
		}

		costRate := pos.CostBasisRate
		gain := decimal.Zero
		if currency == vault.BaseCurrency {
			costRate = decimal.NewFromInt(1)
		} else {
			gain = accounting.RoundAmount(amount.Mul(rate.Sub(costRate)))
		}
		carrying := accounting.ToBase(amount, costRate)

		entries := []dto.CreateEntryRequest{
			{AccountID: pos.AccountID, Direction: domain.Credit, Amount: amount, CurrencyCode: currency, FxRate: &costRate, Memo: req.Reference},
			{AccountID: vault.ExternalOutAccountID, Direction: domain.Debit, Amount: carrying, CurrencyCode: vault.BaseCurrency, Memo: req.Reference},
		}
		switch gain.Sign() {
		case 1:
			entries = append(entries,
				dto.CreateEntryRequest{AccountID: vault.ExternalOutAccountID, Direction: domain.Debit, Amount: gain, CurrencyCode: vault.BaseCurrency, Memo: "realized FX gain"},
				dto.CreateEntryRequest{AccountID: vault.RealizedFxAccountID, Direction: domain.Credit, Amount: gain, CurrencyCode: vault.BaseCurrency, Memo: "realized FX gain"},
			)
		case -1:
			loss := gain.Neg()
			entries = append(entries,
				dto.CreateEntryRequest{AccountID: vault.RealizedFxAccountID, Direction: domain.Debit, Amount: loss, CurrencyCode: vault.BaseCurrency, Memo: "realized FX loss"},
				dto.CreateEntryRequest{AccountID: vault.ExternalOutAccountID, Direction: domain.Credit, Amount: loss, CurrencyCode: vault.BaseCurrency, Memo: "realized FX loss"},
			)
		}

		txn, err := s.ledger.CreateTransaction(ctx, dto.CreateTransactionRequest{
			Type:         domain.TxWithdrawal,
			BaseCurrency: vault.BaseCurrency,
			Description:  movementDescription(req.Description, "Withdrawal", amount, currency),
			SourceType:   domain.EntityVault,
			SourceID:     vault.VaultID,
			Entries:      entries,
		}, userID)
		if err != nil {
			return err
		}

		newBalance := balance.Sub(amount)
		pos.CumulativeRealizedGain = pos.CumulativeRealizedGain.Add(gain)
		pos.CumulativeUnrealizedGain = pos.CumulativeUnrealizedGain.Sub(unrealizedShare(pos.CumulativeUnrealizedGain, amount, balance))
		pos.CostBasisAmount = accounting.ToBase(newBalance, costRate)
		pos.LastUpdatedAt = now()
		pos.LastUpdatedBy = userID
		if err := s.vaultRepo.UpdatePosition(ctx, *pos); err != nil {
			return err
		}

		movement = domain.VaultMovement{
			TransactionID:  txn.TransactionID,
			VaultID:        vault.VaultID,
			CurrencyCode:   currency,
			Amount:         amount,
			FxRate:         rate,
			BaseAmount:     accounting.ToBase(amount, rate),
			NewBalance:     newBalance,
			RealizedFxGain: gain,
		}
		return nil
	})
	if err != nil {
		s.logMovementFailure(ctx, err, "withdrawal", vaultID)
		return nil, err
	}

	s.completeMovement(ctx, domain.TxWithdrawal, movement, "", userID)
	return &movement, nil
}

// lockHolding locks an existing position and checks that it covers amount.
func (s *vaultService) lockHolding(ctx context.Context, vault *domain.Vault, currency string, amount decimal.Decimal) (*domain.CurrencyPosition, decimal.Decimal, error) {
	pos, err := s.vaultRepo.FindPositionForUpdate(ctx, vault.VaultID, currency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, decimal.Zero, fmt.Errorf("%w: vault %s holds no %s", apperrors.ErrInsufficientBalance, vault.VaultID, currency)
		}
		return nil, decimal.Zero, err
	}
	balance, err := s.positionBalance(ctx, pos)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if amount.GreaterThan(balance) {
		return nil, decimal.Zero, fmt.Errorf("%w: vault %s holds %s %s, requested %s",
			apperrors.ErrInsufficientBalance, vault.VaultID, balance.String(), currency, amount.String())
	}
	return pos, balance, nil
}

// unrealizedShare is the part of unrealized gain that leaves with amount out of balance.
func unrealizedShare(unrealized, amount, balance decimal.Decimal) decimal.Decimal {
	if unrealized.IsZero() || !balance.IsPositive() || amount.GreaterThanOrEqual(balance) {
		return unrealized
	}
	return accounting.RoundAmount(unrealized.Mul(amount).Div(balance))
}

// Transfer moves an amount between two vaults sharing a base currency in one TRANSFER transaction.
func (s *vaultService) Transfer(ctx context.Context, req dto.TransferRequest, userID string) (*domain.TransferResult, error) {
	if req.SourceVaultID == req.DestinationVaultID {
		return nil, apperrors.NewValidationError("source and destination vaults must differ")
	}
	amount, currency, err := normalizeMovement(req.Amount, req.CurrencyCode)
	if err != nil {
		return nil, err
	}
	if req.FxRate != nil && !req.FxRate.IsPositive() {
		return nil, apperrors.NewValidationError("fx rate must be positive")
	}

	src, err := s.unlockedVault(ctx, req.SourceVaultID)
	if err != nil {
		return nil, err
	}
	dst, err := s.unlockedVault(ctx, req.DestinationVaultID)
	if err != nil {
		return nil, err
	}
	if src.BaseCurrency != dst.BaseCurrency {
		return nil, fmt.Errorf("%w: vaults have base currencies %s and %s",
			apperrors.ErrInvalidCurrency, src.BaseCurrency, dst.BaseCurrency)
	}
	if err := checkVaultCurrency(src, currency); err != nil {
		return nil, err
	}
	if err := checkVaultCurrency(dst, currency); err != nil {
		return nil, err
	}

	var result domain.TransferResult
	var baseAmount decimal.Decimal
	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		// Vaults are locked in id order so that opposite transfers cannot deadlock.
		ordered := []string{src.VaultID, dst.VaultID}
		sort.Strings(ordered)
		locked := make(map[string]*domain.Vault, 2)
		for _, id := range ordered {
			v, err := s.lockVault(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = v
		}
		srcVault, dstVault := locked[src.VaultID], locked[dst.VaultID]

		var srcPos, dstPos *domain.CurrencyPosition
		var srcBalance decimal.Decimal
		for _, id := range ordered {
			var err error
			if id == srcVault.VaultID {
				srcPos, srcBalance, err = s.lockHolding(ctx, srcVault, currency, amount)
			} else {
				dstPos, err = s.ensurePosition(ctx, dstVault, currency, userID)
			}
			if err != nil {
				return err
			}
		}
		dstBalance, err := s.positionBalance(ctx, dstPos)
		if err != nil {
			return err
		}

		rate := decimal.NewFromInt(1)
		if currency != srcVault.BaseCurrency {
			rate = srcPos.CostBasisRate
			if req.FxRate != nil {
				rate = accounting.RoundRate(*req.FxRate)
			}
		}
		baseAmount = accounting.ToBase(amount, rate)

		txn, err := s.ledger.CreateTransaction(ctx, dto.CreateTransactionRequest{
			Type:         domain.TxTransfer,
			BaseCurrency: srcVault.BaseCurrency,
			Description:  movementDescription(req.Description, "Transfer", amount, currency),
			SourceType:   domain.EntityVault,
			SourceID:     srcVault.VaultID,
			Entries: []dto.CreateEntryRequest{
				{AccountID: srcPos.AccountID, Direction: domain.Credit, Amount: amount, CurrencyCode: currency, FxRate: &rate, Memo: req.Reference},
				{AccountID: dstPos.AccountID, Direction: domain.Debit, Amount: amount, CurrencyCode: currency, FxRate: &rate, Memo: req.Reference},
			},
		}, userID)
		if err != nil {
			return err
		}

		ts := now()
		newSrc := srcBalance.Sub(amount)
		srcPos.CumulativeUnrealizedGain = srcPos.CumulativeUnrealizedGain.Sub(unrealizedShare(srcPos.CumulativeUnrealizedGain, amount, srcBalance))
		srcPos.CostBasisAmount = accounting.ToBase(newSrc, srcPos.CostBasisRate)
		srcPos.LastUpdatedAt, srcPos.LastUpdatedBy = ts, userID

		newDst := dstBalance.Add(amount)
		dstPos.CostBasisRate = accounting.WeightedAverageRate(dstBalance, dstPos.CostBasisRate, amount, rate)
		dstPos.LastRate = accounting.WeightedAverageRate(dstBalance, dstPos.LastRate, amount, rate)
		dstPos.CostBasisAmount = accounting.ToBase(newDst, dstPos.CostBasisRate)
		dstPos.LastRateDate = &ts
		dstPos.LastUpdatedAt, dstPos.LastUpdatedBy = ts, userID

		for _, p := range []*domain.CurrencyPosition{srcPos, dstPos} {
			if err := s.vaultRepo.UpdatePosition(ctx, *p); err != nil {
				return err
			}
		}

		result = domain.TransferResult{
			TransactionID:      txn.TransactionID,
			CurrencyCode:       currency,
			Amount:             amount,
			MovementRate:       rate,
			SourceBalance:      newSrc,
			DestinationBalance: newDst,
		}
		return nil
	})
	if err != nil {
		s.logMovementFailure(ctx, err, "transfer", req.SourceVaultID)
		return nil, err
	}

	s.completeMovement(ctx, domain.TxTransfer, domain.VaultMovement{
		TransactionID: result.TransactionID,
		VaultID:       src.VaultID,
		CurrencyCode:  currency,
		Amount:        amount,
		FxRate:        result.MovementRate,
		BaseAmount:    baseAmount,
	}, dst.VaultID, userID)
	return &result, nil
}

func movementDescription(desc, kind string, amount decimal.Decimal, currency string) string {
	if d := strings.TrimSpace(desc); d != "" {
		return d
	}
	return fmt.Sprintf("%s of %s %s", kind, amount.String(), currency)
}

func (s *vaultService) logMovementFailure(ctx context.Context, err error, kind, vaultID string) {
	if isClientError(err) {
		s.LogDebug(ctx, "Vault movement rejected",
			slog.String("kind", kind),
			slog.String("vault_id", vaultID),
			slog.String("reason", err.Error()))
		return
	}
	s.LogError(ctx, err, "Vault movement failed", slog.String("kind", kind), slog.String("vault_id", vaultID))
}

// completeMovement logs, audits and publishes a committed movement.
func (s *vaultService) completeMovement(ctx context.Context, kind domain.TransactionType, m domain.VaultMovement, counterVaultID, userID string) {
	s.LogInfo(ctx, "Vault movement settled",
		slog.String("kind", string(kind)),
		slog.String("vault_id", m.VaultID),
		slog.String("transaction_id", m.TransactionID),
		slog.String("amount", m.Amount.String()),
		slog.String("currency", m.CurrencyCode))

	attrs := map[string]string{
		"transaction_id": m.TransactionID,
		"amount":         m.Amount.String(),
		"currency":       m.CurrencyCode,
		"fx_rate":        m.FxRate.String(),
	}
	if counterVaultID != "" {
		attrs["counter_vault_id"] = counterVaultID
	}
	s.recordAudit(ctx, "vault."+strings.ToLower(string(kind)), domain.RiskHigh, userID, "vault", m.VaultID, attrs)

	s.notifySettlement(ctx, domain.Settlement{
		TransactionID:  m.TransactionID,
		Type:           kind,
		VaultID:        m.VaultID,
		CounterVaultID: counterVaultID,
		CurrencyCode:   m.CurrencyCode,
		Amount:         m.Amount,
		BaseAmount:     m.BaseAmount,
		SettledAt:      now(),
	})
}

// Lock freezes every mutating operation on the vault until Unlock.
func (s *vaultService) Lock(ctx context.Context, vaultID, reason, userID string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperrors.NewValidationError("a lock reason is required")
	}
	err := s.setLock(ctx, vaultID, true, reason, userID)
	if err != nil {
		return err
	}
	s.LogInfo(ctx, "Vault locked", slog.String("vault_id", vaultID), slog.String("reason", reason))
	s.recordAudit(ctx, "vault.locked", domain.RiskCritical, userID, "vault", vaultID, map[string]string{"reason": reason})
	return nil
}

func (s *vaultService) Unlock(ctx context.Context, vaultID, userID string) error {
	if err := s.setLock(ctx, vaultID, false, "", userID); err != nil {
		return err
	}
	s.LogInfo(ctx, "Vault unlocked", slog.String("vault_id", vaultID))
	s.recordAudit(ctx, "vault.unlocked", domain.RiskHigh, userID, "vault", vaultID, nil)
	return nil
}

func (s *vaultService) setLock(ctx context.Context, vaultID string, locked bool, reason, userID string) error {
	return s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.vaultRepo.FindVaultByIDForUpdate(ctx, vaultID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%s: %w", vaultID, apperrors.ErrVaultNotFound)
			}
			return err
		}
		return s.vaultRepo.UpdateVaultLock(ctx, vaultID, locked, reason, userID, now())
	})
}

// GetBalances values every position at the current rate, falling back to the last
// revaluation rate when no rate resolves.
func (s *vaultService) GetBalances(ctx context.Context, vaultID string) (*domain.VaultBalances, error) {
	vault, err := s.GetVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	positions, err := s.vaultRepo.ListPositions(ctx, vaultID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list positions", slog.String("vault_id", vaultID))
		return nil, err
	}

	ids := make([]string, len(positions))
	for i, p := range positions {
		ids[i] = p.AccountID
	}
	totals, err := s.ledgerRepo.SumEntriesByAccount(ctx, ids, domain.EntrySumFilter{})
	if err != nil {
		s.LogError(ctx, err, "Failed to sum position entries", slog.String("vault_id", vaultID))
		return nil, err
	}

	out := &domain.VaultBalances{
		VaultID:        vault.VaultID,
		BaseCurrency:   vault.BaseCurrency,
		Positions:      make([]domain.PositionBalance, 0, len(positions)),
		TotalBaseValue: decimal.Zero,
	}
	for _, p := range positions {
		balance, _ := accounting.BalanceFromTotals(totals[p.AccountID], domain.Asset)
		rate, err := s.valuationRate(ctx, vault, p)
		if err != nil {
			return nil, err
		}
		value := accounting.ToBase(balance, rate)
		out.Positions = append(out.Positions, domain.PositionBalance{
			CurrencyCode:   p.CurrencyCode,
			Balance:        balance,
			FxRate:         rate,
			BaseValue:      value,
			CostBasisRate:  p.CostBasisRate,
			UnrealizedGain: p.CumulativeUnrealizedGain,
			RealizedGain:   p.CumulativeRealizedGain,
		})
		out.TotalBaseValue = out.TotalBaseValue.Add(value)
	}
	sort.Slice(out.Positions, func(i, j int) bool {
		return out.Positions[i].CurrencyCode < out.Positions[j].CurrencyCode
	})
	return out, nil
}

func (s *vaultService) valuationRate(ctx context.Context, vault *domain.Vault, p domain.CurrencyPosition) (decimal.Decimal, error) {
	if p.CurrencyCode == vault.BaseCurrency {
		return decimal.NewFromInt(1), nil
	}
	resolved, err := s.fxRates.GetRate(ctx, p.CurrencyCode, vault.BaseCurrency, nil)
	if err == nil {
		return resolved.Rate, nil
	}
	if !errors.Is(err, apperrors.ErrMissingFxRate) {
		return decimal.Zero, err
	}
	if !p.LastRate.IsZero() {
		return p.LastRate, nil
	}
	return p.CostBasisRate, nil
}
