package mapping

import (
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/models"
)

// ToModelFXRate converts a domain FXRate to a model FXRate
func ToModelFXRate(d domain.FXRate) models.FXRate {
	return models.FXRate{
		FXRateID:     d.FXRateID,
		FromCurrency: d.From,
		ToCurrency:   d.To,
		Rate:         d.Rate,
		RateDate:     d.RateDate,
		Source:       d.Source,
		IsCurrent:    d.IsCurrent,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainFXRate converts a model FXRate to a domain FXRate
func ToDomainFXRate(m models.FXRate) domain.FXRate {
	return domain.FXRate{
		FXRateID:    m.FXRateID,
		From:        m.FromCurrency,
		To:          m.ToCurrency,
		Rate:        m.Rate,
		RateDate:    m.RateDate,
		Source:      m.Source,
		IsCurrent:   m.IsCurrent,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
