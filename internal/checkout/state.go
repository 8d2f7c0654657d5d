package checkout

type State string

const (
	StateCollectingShipping State = "COLLECTING_SHIPPING"
	StateCollectingPayment  State = "COLLECTING_PAYMENT"
	StateReview             State = "REVIEW"
	StateSubmitting         State = "SUBMITTING"
	StateCompleted          State = "COMPLETED"
	StateFailed             State = "FAILED"
)

var validNext = map[State]map[State]bool{
	StateCollectingShipping: {StateCollectingPayment: true},
	StateCollectingPayment:  {StateReview: true},
	StateReview:             {StateSubmitting: true},
	StateSubmitting:         {StateCompleted: true, StateFailed: true},
	StateCompleted:          {},
	StateFailed:             {},
}

func CanTransition(from, to State) bool {
	return validNext[from][to]
}

func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Failure reasons surfaced to the client.
const (
	ReasonEmptyCart       = "EMPTY_CART"
	ReasonOutOfStock      = "OUT_OF_STOCK"
	ReasonPaymentDeclined = "PAYMENT_DECLINED"
)
