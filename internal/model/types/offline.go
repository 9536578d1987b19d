package types

// ConnectivityRequest injects a connectivity transition into the offline
// manager. Useful for clients that learn about connectivity changes from the
// OS before a probe would notice.
type ConnectivityRequest struct {
	Online bool `json:"online"`
}
