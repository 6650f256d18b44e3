package rabbitmq

// Ключи маршрутизации доменных событий.
const (
	KeySubscriptionCreated   = "subscription.created"
	KeySubscriptionRenewed   = "subscription.renewed"
	KeySubscriptionCancelled = "subscription.cancelled"
	KeySubscriptionExpired   = "subscription.expired"
	KeyPurchaseVerified      = "purchase.verified"
	KeyPurchaseRejected      = "purchase.rejected"
	KeyAccessGranted         = "access.granted"
	KeyAccessRevoked         = "access.revoked"
)

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetEventQueues возвращает очереди, которые объявляет сервис.
func GetEventQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "entitlements.subscriptions", RoutingKey: "subscription.*"},
		{QueueName: "entitlements.purchases", RoutingKey: "purchase.*"},
		{QueueName: "entitlements.access", RoutingKey: "access.*"},
	}
}
