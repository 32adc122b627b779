package formdata

// Executor runs a completion callback, typically on a caller-chosen
// goroutine or queue. A nil Executor runs it on the encoding goroutine.
type Executor func(func())

// Result is the outcome of EncodeAsync. Exactly one of Encoded and Err is set.
type Result struct {
	Encoded *Encoded
	Err     error
}

// EncodeAsync runs Encode on a new goroutine and hands the result to done
// through exec. done is called exactly once.
func (f *FormData) EncodeAsync(threshold int64, exec Executor, done func(Result)) {
	go func() {
		encoded, err := f.Encode(threshold)
		result := Result{Encoded: encoded, Err: err}
		if exec == nil {
			done(result)
			return
		}
		exec(func() { done(result) })
	}()
}
