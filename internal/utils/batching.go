package utils

const DYNAMODB_BATCH_SIZE = 25

// BatchBuffer collects items until it holds size of them. It is not safe for
// concurrent use.
type BatchBuffer[T any] struct {
	size   int
	buffer []T
}

func NewBatchBuffer[T any](size int) *BatchBuffer[T] {
	if size <= 0 {
		size = DYNAMODB_BATCH_SIZE
	}
	return &BatchBuffer[T]{
		size:   size,
		buffer: make([]T, 0, size),
	}
}

// Add appends item and reports whether the buffer is now full.
func (b *BatchBuffer[T]) Add(item T) bool {
	b.buffer = append(b.buffer, item)
	return len(b.buffer) >= b.size
}

// GetAndClear hands out the buffered items and starts a new batch.
func (b *BatchBuffer[T]) GetAndClear() []T {
	if len(b.buffer) == 0 {
		return nil
	}

	batch := b.buffer
	b.buffer = make([]T, 0, b.size)
	return batch
}

func (b *BatchBuffer[T]) Size() int {
	return len(b.buffer)
}

func (b *BatchBuffer[T]) HasData() bool {
	return len(b.buffer) > 0
}
