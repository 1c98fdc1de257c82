package httptransport

// RunCycleResponse is the admin-trigger summary. Entry-level failures are
// only visible in logs; callers get the aggregate counts.
type RunCycleResponse struct {
	Status string `json:"status"`
	Data   struct {
		Renewed int `json:"renewed"`
		Created int `json:"created"`
		Failed  int `json:"failed"`
	} `json:"data"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
