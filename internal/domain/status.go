package domain

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderConfirmed  OrderStatus = "Confirmed"
	OrderProcessing OrderStatus = "Processing"
	OrderShipping   OrderStatus = "Shipping"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
	OrderReturned   OrderStatus = "Returned"
)

// OrderStatuses lists every status in workflow order.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderProcessing, OrderShipping,
	OrderDelivered, OrderCancelled, OrderReturned,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentBankTransfer PaymentMethod = "BankTransfer"
	PaymentCreditCard   PaymentMethod = "CreditCard"
	PaymentEWallet      PaymentMethod = "EWallet"
)

var PaymentMethods = []PaymentMethod{PaymentCOD, PaymentBankTransfer, PaymentCreditCard, PaymentEWallet}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	for _, m := range PaymentMethods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)
