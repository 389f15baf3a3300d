package types

// TableName represents a database table name
type TableName string

const (
	TableNameBookingPayments      TableName = "booking_payments"
	TableNameBookings             TableName = "bookings"
	TableNameSubscriptions        TableName = "subscriptions"
	TableNameSubscriptionPayments TableName = "subscription_payments"
	TableNameUsers                TableName = "users"
	TableNameWebhookEvents        TableName = "webhook_events"
)

// Unique constraints that act as idempotency anchors for upserts.
const (
	ConstraintBookingPaymentsGatewayPaymentID   = "booking_payments_gateway_payment_id_key"
	ConstraintSubscriptionsUserID               = "subscriptions_user_id_key"
	ConstraintSubscriptionPaymentsPaymentStatus = "subscription_payments_gateway_payment_id_status_key"
	ConstraintWebhookEventsProviderEventID      = "webhook_events_provider_event_id_key"
)
