// Package cachestrategy defines cache eviction strategy interfaces.
package cachestrategy

// Strategy holds cached file contents keyed by path and decides what to
// evict.
type Strategy interface {
	Get(key string) ([]byte, bool)
	Add(key string, value []byte) bool
	Remove(key string) bool
	Keys() []string
	Len() int
}
