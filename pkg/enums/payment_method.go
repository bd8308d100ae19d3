package enums

import "fmt"

// PaymentMethod enumerates how the buyer settles an order.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCashOnDelivery,
	PaymentMethodBankTransfer,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsDeferred reports whether payment is collected at fulfilment time.
func (p PaymentMethod) IsDeferred() bool {
	return p == PaymentMethodCashOnDelivery
}

// ParsePaymentMethod converts raw input into a PaymentMethod. Empty input
// selects cash on delivery.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	if value == "" {
		return PaymentMethodCashOnDelivery, nil
	}
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
