package testutil

// Ptr returns a pointer to v, for optional fields such as window caps.
//
//	window.Limits{MaxTotal: testutil.Ptr(3)}
func Ptr[T any](v T) *T { return &v }
