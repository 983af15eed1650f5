package dedupe

// Option configures the deduper returned by NewInMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize caps how many submission ids are remembered. Once full, the
// oldest id is forgotten first. A value <= 0 keeps every id.
func WithMaxSize(n int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = n
	}
}
