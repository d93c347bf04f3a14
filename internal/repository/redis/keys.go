package redis

import "fmt"

const ns = "barhop:v1"

func KeyVenues() string {
	return ns + ":venues:all"
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

// KeyNotifyReady guards the one ready notification an order may produce
// across all sessions and replicas.
func KeyNotifyReady(orderID string) string {
	return fmt.Sprintf("%s:idem:ready:%s", ns, orderID)
}

func ChannelOrderUpdates() string {
	return ns + ":orders:updates"
}
