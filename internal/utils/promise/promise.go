package promise

type Result[E any] struct {
	Value E
	Err   error
}

// Promise runs task in its own goroutine. The returned channel yields
// exactly one Result and is then closed.
func Promise[E any](task func() (E, error)) chan Result[E] {
	resultCh := make(chan Result[E], 1)

	go func() {
		result, err := task()
		resultCh <- Result[E]{result, err}
		close(resultCh)
	}()

	return resultCh
}

// Then hands the settled result of future to fn without blocking the caller.
func Then[E any](future chan Result[E], fn func(E, error)) {
	go func() {
		result := <-future
		fn(result.Value, result.Err)
	}()
}
