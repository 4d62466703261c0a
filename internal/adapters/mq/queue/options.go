package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*settings)

type settings struct {
	capacity int
}

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) Option {
	return func(s *settings) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}
