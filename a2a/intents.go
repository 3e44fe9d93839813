package a2a

// The closed set of intent names understood by the mesh. Routing tables and
// handler registries key on these; the classifier is instructed to emit
// only names from this set.
const (
	// IntentGetCustomerInfo asks for a customer's profile details.
	IntentGetCustomerInfo = "get_customer_info"
	// IntentGetCustomerHistory asks for a customer's past tickets.
	IntentGetCustomerHistory = "get_customer_history"
	// IntentUpdateEmail changes a customer's email address.
	IntentUpdateEmail = "update_email"
	// IntentListCustomers lists customers, optionally filtered by status.
	IntentListCustomers = "list_customers"
	// IntentRefundRequest asks for money back.
	IntentRefundRequest = "refund_request"
	// IntentCancelSubscription stops the service.
	IntentCancelSubscription = "cancel_subscription"
	// IntentUpgradeRequest changes the customer's tier.
	IntentUpgradeRequest = "upgrade_request"
	// IntentShowTicketStatus asks about open tickets.
	IntentShowTicketStatus = "show_ticket_status"
	// IntentEscalateIssue opens a new ticket or requests a human.
	IntentEscalateIssue = "escalate_issue"
	// IntentSupportRequest is the generic catch-all for anything else.
	IntentSupportRequest = "support_request"
)

// KnownIntents lists every intent name in the mesh vocabulary, in the order
// they are presented to the classification oracle.
func KnownIntents() []string {
	return []string{
		IntentGetCustomerInfo,
		IntentGetCustomerHistory,
		IntentUpdateEmail,
		IntentListCustomers,
		IntentRefundRequest,
		IntentCancelSubscription,
		IntentUpgradeRequest,
		IntentShowTicketStatus,
		IntentEscalateIssue,
		IntentSupportRequest,
	}
}
