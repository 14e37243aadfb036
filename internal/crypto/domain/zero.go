package domain

// Zero overwrites key material once it is no longer needed. Nil slices are
// skipped.
func Zero(keys ...[]byte) {
	for _, k := range keys {
		clear(k)
	}
}
