package metadata

import (
	"sync"

	"github.com/ebookmeta/kobosource/models"
)

// Results is an ordered, append-only sink for identify output. It satisfies
// ResultSink and is safe for concurrent use, although identify itself emits
// sequentially.
type Results struct {
	mu    sync.Mutex
	books []*models.Book
}

// Put appends a record.
func (r *Results) Put(book *models.Book) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books = append(r.books, book)
}

// All returns the records in emission order.
func (r *Results) All() []*models.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Book, len(r.books))
	copy(out, r.books)
	return out
}

// Len reports how many records were emitted.
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.books)
}
