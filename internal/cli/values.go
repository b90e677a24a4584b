package cli

import (
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

// decimalValue is a pflag.Value for optional hours and money amounts.
type decimalValue struct{ d *decimal.Decimal }

var _ pflag.Value = (*decimalValue)(nil)

func (v *decimalValue) String() string {
	if v.d == nil {
		return ""
	}
	return v.d.String()
}

func (v *decimalValue) Set(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return domain.Validationf("%q is not a number", s)
	}
	v.d = &d
	return nil
}

func (v *decimalValue) Type() string { return "decimal" }

// dayValue is a pflag.Value for an optional YYYY-MM-DD date.
type dayValue struct{ t *time.Time }

var _ pflag.Value = (*dayValue)(nil)

func (v *dayValue) String() string {
	if v.t == nil {
		return ""
	}
	return v.t.Format("2006-01-02")
}

func (v *dayValue) Set(s string) error {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return domain.Validationf("%q must be YYYY-MM-DD", s)
	}
	v.t = &t
	return nil
}

func (v *dayValue) Type() string { return "date" }
