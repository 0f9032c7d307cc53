// Package memory реализует хранилище в памяти процесса с единственным писателем.
// Каждая атомарная единица выполняется под одним семафором и при ошибке откатывается к снимку.
package memory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
)

type txKey struct{}

// Store хранит товары, заказы и операторов. Реализует usecase.Transactor.
type Store struct {
	sem chan struct{}

	products  map[int64]domain.Product
	orders    []domain.Order // по возрастанию id
	operators map[int64]domain.Operator

	nextProductID int64
	nextOrderID   int64
	nextItemID    int64

	commits atomic.Int64
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		sem:       make(chan struct{}, 1),
		products:  make(map[int64]domain.Product),
		operators: make(map[int64]domain.Operator),
		now:       time.Now,
	}
}

// snapshot — состояние, к которому откатывается неудачная транзакция.
type snapshot struct {
	products      map[int64]domain.Product
	operators     map[int64]domain.Operator
	ordersLen     int
	nextProductID int64
	nextOrderID   int64
	nextItemID    int64
}

// Do выполняет fn как одну атомарную единицу. Вложенные вызовы переиспользуют уже открытую транзакцию.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	snap := s.snapshot()
	committed := false
	// Ошибка, отмена или паника в fn возвращают состояние к снимку
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	committed = true
	s.commits.Add(1)
	return nil
}

// Commits возвращает число успешно завершённых транзакций.
func (s *Store) Commits() int64 {
	return s.commits.Load()
}

// run выполняет fn под семафором, если вызов пришёл не из транзакции этого же хранилища.
func (s *Store) run(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	return fn()
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.sem
}

func (s *Store) snapshot() snapshot {
	products := make(map[int64]domain.Product, len(s.products))
	for id, p := range s.products {
		products[id] = p
	}

	operators := make(map[int64]domain.Operator, len(s.operators))
	for id, o := range s.operators {
		operators[id] = o
	}

	return snapshot{
		products:      products,
		operators:     operators,
		ordersLen:     len(s.orders),
		nextProductID: s.nextProductID,
		nextOrderID:   s.nextOrderID,
		nextItemID:    s.nextItemID,
	}
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.operators = snap.operators
	s.orders = s.orders[:snap.ordersLen]
	s.nextProductID = snap.nextProductID
	s.nextOrderID = snap.nextOrderID
	s.nextItemID = snap.nextItemID
}

func cloneOrder(o domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
