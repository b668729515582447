package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rates is the fully resolved rate configuration every calculator works with.
// ServiceChargeRate and BonusRate are percentages, OvertimeRate is a multiplier.
type Rates struct {
	PerDayRate        decimal.Decimal `json:"perDayRate"`
	ServiceChargeRate decimal.Decimal `json:"serviceChargeRate"`
	BonusRate         decimal.Decimal `json:"bonusRate"`
	OvertimeRate      decimal.Decimal `json:"overtimeRate"`
	GSTPaidBy         string          `json:"gstPaidBy"`
	TaxType           string          `json:"taxType"`
}

// RateConfig is the caller supplied, partially filled configuration.
type RateConfig struct {
	PerDayRate        *decimal.Decimal `json:"perDayRate,omitempty"`
	ServiceChargeRate *decimal.Decimal `json:"serviceChargeRate,omitempty"`
	BonusRate         *decimal.Decimal `json:"bonusRate,omitempty"`
	OvertimeRate      *decimal.Decimal `json:"overtimeRate,omitempty"`
	GSTPaidBy         *string          `json:"gstPaidBy,omitempty"`
	TaxType           *string          `json:"taxType,omitempty"`
}

func DefaultRates() Rates {
	return Rates{
		PerDayRate:        DefaultPerDayRate,
		ServiceChargeRate: DefaultServiceChargeRate,
		BonusRate:         DefaultBonusRate,
		OvertimeRate:      DefaultOvertimeRate,
		GSTPaidBy:         GSTPaidByPrincipalEmployer,
		TaxType:           TaxTypeGST,
	}
}

// Resolve fills every missing value from defaults and validates the result.
// It is the only place where rate defaults are applied.
func (c RateConfig) Resolve(defaults Rates) (Rates, error) {
	r := defaults
	if c.PerDayRate != nil {
		r.PerDayRate = *c.PerDayRate
	}
	if c.ServiceChargeRate != nil {
		r.ServiceChargeRate = *c.ServiceChargeRate
	}
	if c.BonusRate != nil {
		r.BonusRate = *c.BonusRate
	}
	if c.OvertimeRate != nil {
		r.OvertimeRate = *c.OvertimeRate
	}
	if c.GSTPaidBy != nil && strings.TrimSpace(*c.GSTPaidBy) != "" {
		r.GSTPaidBy = strings.ToLower(strings.TrimSpace(*c.GSTPaidBy))
	}
	if c.TaxType != nil && strings.TrimSpace(*c.TaxType) != "" {
		r.TaxType = strings.ToLower(strings.TrimSpace(*c.TaxType))
	}

	if err := r.Validate(); err != nil {
		return Rates{}, err
	}
	return r, nil
}

func (r Rates) Validate() error {
	for _, v := range []decimal.Decimal{r.PerDayRate, r.ServiceChargeRate, r.BonusRate} {
		if v.IsNegative() {
			return ErrInvalidRate
		}
	}
	if r.OvertimeRate.LessThan(decimal.NewFromInt(1)) {
		return ErrInvalidOvertime
	}
	switch r.TaxType {
	case TaxTypeGST, TaxTypeIGST:
	default:
		return ErrInvalidTaxType
	}
	switch r.GSTPaidBy {
	case GSTPaidByPrincipalEmployer, GSTPaidByAshapuri:
	default:
		return ErrInvalidGSTPayer
	}
	return nil
}
