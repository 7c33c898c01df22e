package panic

// Do runs f and hands any panic value to handler instead of unwinding
// further. It returns true if f completed normally.
func Do(f func(), handler func(r interface{})) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if handler != nil {
				handler(r)
			}
		}
	}()
	f()
	return true
}
