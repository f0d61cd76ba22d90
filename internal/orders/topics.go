package orders

import "strconv"

// All lifecycle events of an order go to one topic so consumers see them in order.
const TopicOrderEvents = "restaurant.order.events"

// Partition key = order id, so every event of one order lands on the same partition.
func PartitionKey(orderID int64) []byte { return []byte(strconv.FormatInt(orderID, 10)) }
