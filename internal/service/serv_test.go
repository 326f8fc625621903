package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/linemk/campuskart/internal/domain/models"
	"github.com/linemk/campuskart/internal/events"
	"github.com/linemk/campuskart/internal/mailer"
	"github.com/linemk/campuskart/internal/notify"
	"github.com/linemk/campuskart/internal/service"
	"github.com/linemk/campuskart/internal/storage"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

type fakeUserRepo struct {
	users map[string]*models.User // ключ: id
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, err := f.GetUserByEmail(ctx, user.Email); err == nil {
		return nil, storage.ErrUserExists
	}
	if user.ID == "" {
		user.ID = fmt.Sprintf("U%d", len(f.users)+1)
	}
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return user, nil
}

type fakeProductRepo struct {
	products  map[string]*models.Product
	inUse     map[string]bool
	createErr error
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[string]*models.Product),
		inUse:    make(map[string]bool),
	}
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("P%d", len(f.products)+1)
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) ListProducts(ctx context.Context) ([]*models.Product, error) {
	out := make([]*models.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) ListProductsByUser(ctx context.Context, userID string) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range f.products {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := f.products[id]; !ok {
		return storage.ErrProductNotFound
	}
	if f.inUse[id] {
		return storage.ErrProductInUse
	}
	delete(f.products, id)
	return nil
}

type fakeOrderRepo struct {
	orders    []*models.Order
	createErr error
	seq       int
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{}
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	order.ID = fmt.Sprintf("O%d", f.seq)
	order.Status = models.OrderStatusPending
	order.Read = false
	order.CreatedAt = time.Date(2024, 5, 1, 12, 0, f.seq, 0, time.UTC)
	order.UpdatedAt = order.CreatedAt
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, storage.ErrOrderNotFound
}

func (f *fakeOrderRepo) list(match func(o *models.Order) bool) []*models.EnrichedOrder {
	var out []*models.EnrichedOrder
	for _, o := range f.orders {
		if !match(o) {
			continue
		}
		out = append(out, &models.EnrichedOrder{
			ID:        o.ID,
			Product:   &models.ProductSummary{ID: o.ProductID},
			Seller:    &models.UserSummary{ID: o.SellerID},
			Buyer:     &models.UserSummary{ID: o.BuyerID},
			Price:     o.Price,
			Status:    o.Status,
			Read:      o.Read,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeOrderRepo) ListOrdersBySeller(ctx context.Context, sellerID string) ([]*models.EnrichedOrder, error) {
	return f.list(func(o *models.Order) bool { return o.SellerID == sellerID }), nil
}

func (f *fakeOrderRepo) ListOrdersByParticipant(ctx context.Context, userID string) ([]*models.EnrichedOrder, error) {
	return f.list(func(o *models.Order) bool { return o.SellerID == userID || o.BuyerID == userID }), nil
}

func (f *fakeOrderRepo) MarkAllReadBySeller(ctx context.Context, sellerID string) (int64, error) {
	var n int64
	for _, o := range f.orders {
		if o.SellerID == sellerID && !o.Read {
			o.Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeOrderRepo) MarkRead(ctx context.Context, id string) (*models.Order, error) {
	o, err := f.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Read = true
	return o, nil
}

// notifyCall запоминает один вызов Notify
type notifyCall struct {
	UserID  string
	Payload any
}

type recordingTransport struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

var _ notify.Transport = (*recordingTransport)(nil)

func (r *recordingTransport) Notify(ctx context.Context, userID string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notifyCall{UserID: userID, Payload: payload})
	return r.err
}

func (r *recordingTransport) Calls() []notifyCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifyCall(nil), r.calls...)
}

type recordingPublisher struct {
	events []events.OrderEvent
	err    error
}

var _ events.Publisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) Publish(ctx context.Context, e events.OrderEvent) error {
	p.events = append(p.events, e)
	return p.err
}

type fakeImages struct {
	saved   []string
	removed []string
	err     error
}

var _ service.ImageSaver = (*fakeImages)(nil)

func (f *fakeImages) Save(name string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.saved = append(f.saved, name)
	return "/uploads/1-" + name, nil
}

func (f *fakeImages) Remove(url string) error {
	f.removed = append(f.removed, url)
	return nil
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

var _ mailer.Mailer = (*fakeMailer)(nil)

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// recordingChannel собирает кадры, которые Dispatcher пишет в канал
type recordingChannel struct {
	mu     sync.Mutex
	frames []string
}

var _ notify.Channel = (*recordingChannel)(nil)

func (c *recordingChannel) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, string(frame))
	return nil
}

func (c *recordingChannel) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.frames...)
}

var errBoom = errors.New("boom")
