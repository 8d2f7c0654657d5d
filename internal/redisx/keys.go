package redisx

import "time"

const (
	// Cart view cache: cart_view:{cart_id} -> JSON cart view
	KeyCartView = "cart_view:%s"

	// Order status cache: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCartView    = 5 * time.Minute
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
