package domain

import "github.com/shopspring/decimal"

// AdmitExport decides whether shipping shippedValue on credit is admissible
// for an agency currently owing currentDebt under ceiling (zero = unlimited).
// Pure; the same predicate is asserted again inside the posting transaction's
// conditional balance update, so a stale read here can never over-admit.
func AdmitExport(currentDebt, shippedValue, ceiling decimal.Decimal) error {
	if ceiling.IsPositive() && currentDebt.Add(shippedValue).GreaterThan(ceiling) {
		return Ef(KindLimitExceeded, "export of %s would exceed the debt ceiling of %s", shippedValue.StringFixed(2), ceiling.StringFixed(2))
	}
	return nil
}

// AdmitPayment rejects collecting more than the agency currently owes.
func AdmitPayment(currentDebt, amountPaid decimal.Decimal) error {
	if amountPaid.GreaterThan(currentDebt) {
		return Ef(KindLimitExceeded, "payment of %s exceeds the outstanding debt of %s", amountPaid.StringFixed(2), currentDebt.StringFixed(2))
	}
	return nil
}
