package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/memory"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []*domain.OrderPlaced
}

func (n *recordingNotifier) NotifyOrderPlaced(event *domain.OrderPlaced) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type recordingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *recordingRecorder) ObserveCheckout(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	r.outcomes[outcome]++
}

func (r *recordingRecorder) get(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[outcome]
}

type checkoutEnv struct {
	store    *memory.Store
	products *memory.ProductRepo
	orders   *memory.OrderRepo
	notifier *recordingNotifier
	recorder *recordingRecorder
	uc       *usecase.CheckoutUseCase
}

func newCheckoutEnv(t *testing.T) *checkoutEnv {
	t.Helper()

	store := memory.NewStore()
	env := &checkoutEnv{
		store:    store,
		products: memory.NewProductRepo(store),
		orders:   memory.NewOrderRepo(store),
		notifier: &recordingNotifier{},
		recorder: &recordingRecorder{},
	}
	env.uc = usecase.NewCheckoutUC(
		store,
		env.products,
		env.orders,
		memory.NewCatalogCache(time.Minute),
		env.notifier,
		env.recorder,
		logger.NewNopLogger(),
	)
	return env
}

func (env *checkoutEnv) addProduct(t *testing.T, title string, price, stock int64) int64 {
	t.Helper()
	p, err := env.products.Create(context.Background(), domain.NewProduct(title, price, stock, nil))
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p.ID
}

func (env *checkoutEnv) stock(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := env.products.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return p.Stock
}

func (env *checkoutEnv) orderCount(t *testing.T) int {
	t.Helper()
	orders, err := env.orders.ListRecent(context.Background(), 1000)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	return len(orders)
}

func placeReq(user string, lines ...usecase.CartLine) *usecase.PlaceOrderReq {
	return &usecase.PlaceOrderReq{PurchaserID: user, Items: lines}
}

func line(id, qty int64) usecase.CartLine {
	return usecase.CartLine{ProductID: id, Qty: qty}
}

func TestPlaceOrderSuccessThenOutOfStock(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 550, 3)

	res, err := env.uc.PlaceOrder(context.Background(), placeReq("1", line(a, 2)))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.Total != 1100 || res.OrderID == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := env.stock(t, a); got != 1 {
		t.Fatalf("stock = %d, want 1", got)
	}

	_, err = env.uc.PlaceOrder(context.Background(), placeReq("2", line(a, 2)))
	if !errors.Is(err, e.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if id, ok := e.ProductID(err); !ok || id != a {
		t.Fatalf("expected product id %d in error, got %d (%v)", a, id, ok)
	}
	if got := env.stock(t, a); got != 1 {
		t.Fatalf("stock = %d after rejection, want 1", got)
	}
	if env.orderCount(t) != 1 {
		t.Fatalf("expected exactly one order")
	}
	if env.notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", env.notifier.count())
	}
	if env.recorder.get(usecase.OutcomeSuccess) != 1 || env.recorder.get(usecase.OutcomeOutOfStock) != 1 {
		t.Fatalf("unexpected outcomes %+v", env.recorder.outcomes)
	}
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 550, 3)

	_, err := env.uc.PlaceOrder(context.Background(), placeReq("1", line(a, 1), line(999, 1)))
	if !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if id, _ := e.ProductID(err); id != 999 {
		t.Fatalf("expected product 999 in error, got %d", id)
	}
	if got := env.stock(t, a); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}
	if env.orderCount(t) != 0 || env.notifier.count() != 0 {
		t.Fatalf("rejected checkout must not create orders or notifications")
	}
}

func TestPlaceOrderInactiveProductIsNotFound(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 550, 3)
	off := false
	if _, err := env.products.Update(context.Background(), a, usecase.ProductPatch{IsActive: &off}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := env.uc.PlaceOrder(context.Background(), placeReq("1", line(a, 1)))
	if !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestPlaceOrderNotFoundWinsOverOutOfStock(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 100, 1)

	_, err := env.uc.PlaceOrder(context.Background(), placeReq("1", line(a, 5), line(999, 1)))
	if !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 550, 3)

	cases := []struct {
		name string
		req  *usecase.PlaceOrderReq
		want error
	}{
		{"missing purchaser", placeReq("  ", line(a, 1)), e.ErrPurchaserRequired},
		{"no items", placeReq("1"), e.ErrNoItems},
		{"zero qty", placeReq("1", line(a, 0)), e.ErrInvalidQuantity},
		{"negative qty", placeReq("1", line(a, -2)), e.ErrInvalidQuantity},
		{"bad product id", placeReq("1", line(0, 1)), e.ErrInvalidProductID},
		{"negative product id", placeReq("1", line(-5, 1)), e.ErrInvalidProductID},
		{"nil request", nil, e.ErrNoItems},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Повторы не должны ничего менять
			for i := 0; i < 3; i++ {
				_, err := env.uc.PlaceOrder(context.Background(), tc.req)
				if !errors.Is(err, tc.want) || !errors.Is(err, e.ErrValidation) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
			}
		})
	}

	if got := env.stock(t, a); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}
	if env.orderCount(t) != 0 {
		t.Fatalf("validation failures must not create orders")
	}
	if env.store.Commits() != 0 {
		t.Fatalf("validation failures must not open transactions, commits=%d", env.store.Commits())
	}
}

func TestPlaceOrderFreezesPrice(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 550, 3)

	res, err := env.uc.PlaceOrder(context.Background(), placeReq("1", line(a, 2)))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	newPrice := int64(10_000)
	if _, err := env.products.Update(context.Background(), a, usecase.ProductPatch{Price: &newPrice}); err != nil {
		t.Fatalf("update price: %v", err)
	}

	order, err := env.orders.GetByID(context.Background(), res.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Total != 1100 || order.Items[0].UnitPrice != 550 {
		t.Fatalf("historical order changed: %+v", order)
	}
}

func TestPlaceOrderMergesDuplicateLines(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 100, 3)

	_, err := env.uc.PlaceOrder(context.Background(), placeReq("1", line(a, 2), line(a, 2)))
	if !errors.Is(err, e.ErrOutOfStock) {
		t.Fatalf("merged demand 4 > stock 3 must fail, got %v", err)
	}
	if got := env.stock(t, a); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}

	res, err := env.uc.PlaceOrder(context.Background(), placeReq("1", line(a, 1), line(a, 2)))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.Total != 300 {
		t.Fatalf("total = %d, want 300", res.Total)
	}
	if got := env.stock(t, a); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}

	order, _ := env.orders.GetByID(context.Background(), res.OrderID)
	if len(order.Items) != 2 {
		t.Fatalf("each request line is kept as an order item, got %d", len(order.Items))
	}
}

func TestPlaceOrderNotifiesWithTitles(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "Tea", 550, 3)
	b := env.addProduct(t, "Mug", 1000, 1)
	handle := " @alice "

	_, err := env.uc.PlaceOrder(context.Background(), &usecase.PlaceOrderReq{
		PurchaserID:     "42",
		PurchaserHandle: &handle,
		Items:           []usecase.CartLine{line(b, 1), line(a, 2)},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	ev := env.notifier.events[0]
	if ev.Total != 2100 || *ev.PurchaserHandle != "alice" || len(ev.Lines) != 2 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Lines[0].Title != "Mug" || ev.Lines[1].Title != "Tea" || ev.Lines[1].UnitPrice != 550 {
		t.Fatalf("lines must keep request order with titles: %+v", ev.Lines)
	}
}

func TestPlaceOrderConcurrentNoOversell(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 550, 3)

	const workers = 2
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.uc.PlaceOrder(context.Background(), placeReq("u", line(a, 2)))
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var ok, outOfStock int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, e.ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || outOfStock != 1 {
		t.Fatalf("expected one success and one out-of-stock, got %d/%d", ok, outOfStock)
	}
	if got := env.stock(t, a); got != 1 {
		t.Fatalf("stock = %d, want 1", got)
	}
}

func TestPlaceOrderManyConcurrentBuyers(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 100, 25)
	b := env.addProduct(t, "B", 200, 25)

	const workers = 40
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		soldA   int64
		soldB   int64
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Разный порядок строк в корзинах
			lines := []usecase.CartLine{line(a, 1), line(b, 2), line(a, 1)}
			if i%2 == 1 {
				lines = []usecase.CartLine{line(b, 2), line(a, 2)}
			}
			_, err := env.uc.PlaceOrder(context.Background(), placeReq("u", lines...))
			if err != nil {
				if !errors.Is(err, e.ErrOutOfStock) {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			mu.Lock()
			soldA += 2
			soldB += 2
			success++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if got := env.stock(t, a); got != 25-soldA || got < 0 {
		t.Fatalf("stock A = %d, sold %d", got, soldA)
	}
	if got := env.stock(t, b); got != 25-soldB || got < 0 {
		t.Fatalf("stock B = %d, sold %d", got, soldB)
	}
	if success != 12 {
		t.Fatalf("expected 12 successful checkouts for stock 25 with demand 2, got %d", success)
	}
	if env.orderCount(t) != success {
		t.Fatalf("orders = %d, successes = %d", env.orderCount(t), success)
	}
}

type failingOrders struct {
	*memory.OrderRepo
}

func (f failingOrders) Create(context.Context, *domain.Order) (*domain.Order, error) {
	return nil, errors.New("disk full")
}

func TestPlaceOrderStorageFailureIsInternal(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 550, 3)

	uc := usecase.NewCheckoutUC(
		env.store,
		env.products,
		failingOrders{env.orders},
		memory.NewCatalogCache(time.Minute),
		env.notifier,
		env.recorder,
		logger.NewNopLogger(),
	)

	_, err := uc.PlaceOrder(context.Background(), placeReq("1", line(a, 2)))
	if !errors.Is(err, e.ErrInternalServerError) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if got := env.stock(t, a); got != 3 {
		t.Fatalf("stock = %d after failed commit, want 3", got)
	}
	if env.notifier.count() != 0 {
		t.Fatalf("failed checkout must not notify")
	}
	if env.recorder.get(usecase.OutcomeError) != 1 {
		t.Fatalf("expected error outcome to be recorded")
	}
}

func TestPlaceOrderCancelledContextIsInternal(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 550, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.uc.PlaceOrder(ctx, placeReq("1", line(a, 1)))
	if !errors.Is(err, e.ErrInternalServerError) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected internal error wrapping context.Canceled, got %v", err)
	}
	if got := env.stock(t, a); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}
}

func TestCheckoutOutcome(t *testing.T) {
	cases := map[string]error{
		usecase.OutcomeSuccess:    nil,
		usecase.OutcomeValidation: e.ErrNoItems,
		usecase.OutcomeNotFound:   e.NewProductError(1, e.ErrProductNotFound),
		usecase.OutcomeOutOfStock: e.NewProductError(1, e.ErrOutOfStock),
		usecase.OutcomeError:      errors.New("boom"),
	}
	for want, err := range cases {
		if got := usecase.CheckoutOutcome(err); got != want {
			t.Fatalf("CheckoutOutcome(%v) = %s, want %s", err, got, want)
		}
	}
}
