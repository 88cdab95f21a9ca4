package model

// Result is the envelope every public gateway and reconciliation operation returns.
// It is the only contract the dashboard's API routes depend on.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListResult is the paginated form of Result.
type ListResult[T any] struct {
	Success bool   `json:"success"`
	Data    []T    `json:"data"`
	Total   int    `json:"total"`
	Error   string `json:"error,omitempty"`
}

// OK wraps a successful value.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail converts err into a failed Result using its user-facing message.
func Fail[T any](err error) Result[T] {
	return Result[T]{Error: UserMessage(err)}
}

// OKList wraps a successful page. A nil page is reported as empty.
func OKList[T any](data []T, total int) ListResult[T] {
	if data == nil {
		data = []T{}
	}
	return ListResult[T]{Success: true, Data: data, Total: total}
}

// FailList converts err into a failed ListResult.
func FailList[T any](err error) ListResult[T] {
	return ListResult[T]{Data: []T{}, Error: UserMessage(err)}
}

// Ack is the payload of operations that only acknowledge.
type Ack struct{}
