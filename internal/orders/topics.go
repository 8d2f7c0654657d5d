package orders

const (
	TopicOrderCompleted = "order.completed"
	TopicCartClear      = "cart.clear"
)

// Partition key = cart_id, so events for one cart keep their order.
func PartitionKey(cartID string) []byte { return []byte(cartID) }
