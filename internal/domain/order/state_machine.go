package order

// Axis names which of the two independent state axes a transition moves
type Axis string

const (
	AxisStatus  Axis = "status"
	AxisPayment Axis = "payment_status"
)

var statusEdges = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

var paymentEdges = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed},
	PaymentCompleted: {PaymentRefunded},
	PaymentFailed:    {},
	PaymentRefunded:  {},
}

// StatusMachine is the pure transition table for both axes.
// Anything not listed as an edge is rejected, including a move to the
// current state and skipping forward.
type StatusMachine struct{}

// Validate checks a fulfilment transition
func (StatusMachine) Validate(from, to Status) error {
	for _, next := range statusEdges[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{Axis: AxisStatus, From: string(from), To: string(to)}
}

// ValidatePayment checks a payment transition
func (StatusMachine) ValidatePayment(from, to PaymentStatus) error {
	for _, next := range paymentEdges[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{Axis: AxisPayment, From: string(from), To: string(to)}
}

// AllowedNext lists the legal next fulfilment states
func (StatusMachine) AllowedNext(from Status) []Status {
	return append([]Status(nil), statusEdges[from]...)
}

// AllowedNextPayment lists the legal next payment states
func (StatusMachine) AllowedNextPayment(from PaymentStatus) []PaymentStatus {
	return append([]PaymentStatus(nil), paymentEdges[from]...)
}

// ReleasesInventory reports whether entering the target state gives reserved
// stock back. Only cancellation and refund do.
func (StatusMachine) ReleasesInventory(to Status) bool {
	return to == StatusCancelled
}

// PaymentReleasesInventory is the payment axis counterpart of ReleasesInventory
func (StatusMachine) PaymentReleasesInventory(to PaymentStatus) bool {
	return to == PaymentRefunded
}
