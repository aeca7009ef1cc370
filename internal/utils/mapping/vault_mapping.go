package mapping

import (
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/models"
)

// ToModelVault converts a domain Vault to a model Vault
func ToModelVault(d domain.Vault) models.Vault {
	return models.Vault{
		VaultID:              d.VaultID,
		Name:                 d.Name,
		OwnerType:            d.OwnerType,
		OwnerID:              d.OwnerID,
		BaseCurrency:         d.BaseCurrency,
		MultiCurrency:        d.MultiCurrency,
		AutoRevaluation:      d.AutoRevaluation,
		IsLocked:             d.IsLocked,
		LockReason:           NullableString(d.LockReason),
		RootAccountID:        d.RootAccountID,
		ExternalInAccountID:  d.ExternalInAccountID,
		ExternalOutAccountID: d.ExternalOutAccountID,
		RealizedFxAccountID:  d.RealizedFxAccountID,
		AuditFields:          ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainVault converts a model Vault to a domain Vault
func ToDomainVault(m models.Vault) domain.Vault {
	return domain.Vault{
		VaultID:              m.VaultID,
		Name:                 m.Name,
		OwnerType:            m.OwnerType,
		OwnerID:              m.OwnerID,
		BaseCurrency:         m.BaseCurrency,
		MultiCurrency:        m.MultiCurrency,
		AutoRevaluation:      m.AutoRevaluation,
		IsLocked:             m.IsLocked,
		LockReason:           StringValue(m.LockReason),
		RootAccountID:        m.RootAccountID,
		ExternalInAccountID:  m.ExternalInAccountID,
		ExternalOutAccountID: m.ExternalOutAccountID,
		RealizedFxAccountID:  m.RealizedFxAccountID,
		AuditFields:          ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelPosition converts a domain CurrencyPosition to its row.
func ToModelPosition(d domain.CurrencyPosition) models.CurrencyPosition {
	return models.CurrencyPosition{
		PositionID:               d.PositionID,
		VaultID:                  d.VaultID,
		CurrencyCode:             d.CurrencyCode,
		AccountID:                d.AccountID,
		CostBasisRate:            d.CostBasisRate,
		CostBasisAmount:          d.CostBasisAmount,
		LastRate:                 d.LastRate,
		LastRateDate:             d.LastRateDate,
		CumulativeRealizedGain:   d.CumulativeRealizedGain,
		CumulativeUnrealizedGain: d.CumulativeUnrealizedGain,
		Version:                  d.Version,
		AuditFields:              ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPosition converts a position row to a domain CurrencyPosition.
func ToDomainPosition(m models.CurrencyPosition) domain.CurrencyPosition {
	return domain.CurrencyPosition{
		PositionID:               m.PositionID,
		VaultID:                  m.VaultID,
		CurrencyCode:             m.CurrencyCode,
		AccountID:                m.AccountID,
		CostBasisRate:            m.CostBasisRate,
		CostBasisAmount:          m.CostBasisAmount,
		LastRate:                 m.LastRate,
		LastRateDate:             m.LastRateDate,
		CumulativeRealizedGain:   m.CumulativeRealizedGain,
		CumulativeUnrealizedGain: m.CumulativeUnrealizedGain,
		Version:                  m.Version,
		AuditFields:              ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelSnapshot converts a domain FXValuationSnapshot to its row.
func ToModelSnapshot(d domain.FXValuationSnapshot) models.FXValuationSnapshot {
	return models.FXValuationSnapshot(d)
}

// ToDomainSnapshot converts a snapshot row to a domain FXValuationSnapshot.
func ToDomainSnapshot(m models.FXValuationSnapshot) domain.FXValuationSnapshot {
	return domain.FXValuationSnapshot(m)
}
