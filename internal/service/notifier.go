package service

// Resource tags published after a successful mutation. Clients refetch the matching REST resources.
const (
	TagGroups         = "groups"
	TagSuppliers      = "suppliers"
	TagOrders         = "orders"
	TagDeliveries     = "deliveries"
	TagReconciliation = "reconciliation"
	TagDlc            = "dlc"
	TagStats          = "stats"
	TagUsers          = "users"
	TagRoles          = "roles"
)

// Notifier broadcasts cache invalidation tags to connected clients
type Notifier interface {
	Publish(tags ...string)
}

type noopNotifier struct{}

func (noopNotifier) Publish(...string) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
