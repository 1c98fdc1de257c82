package httptransport

// ChangeNotification is the webhook body delivered by the collaboration
// platform when a subscribed resource changes.
type ChangeNotification struct {
	Value []ChangeNotificationItem `json:"value"`
}

type ChangeNotificationItem struct {
	SubscriptionID string       `json:"subscriptionId"`
	ClientState    string       `json:"clientState"`
	ChangeType     string       `json:"changeType"`
	Resource       string       `json:"resource"`
	ResourceData   ResourceData `json:"resourceData"`
}

type ResourceData struct {
	ID string `json:"id"`
}

type NotifyResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
