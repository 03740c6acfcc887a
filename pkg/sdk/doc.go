// Package sdk provides a typed Go client for the feedback backend.
//
// The client wraps the backend's HTTP contract with one method per endpoint,
// carries the cookie session on every call, tags each request with an
// X-Request-Id, and retries idempotent reads via fortify.
//
// Usage:
//
//	c, _ := sdk.NewClient("http://localhost:5000")
//	items, _ := c.ListFeedback(ctx)
//	for _, it := range items {
//		fmt.Println(it.ID, it.Text)
//	}
package sdk
