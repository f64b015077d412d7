package service

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/repository"
	pkgdto "github.com/alimikegami/quicart/pkg/dto"
	"github.com/alimikegami/quicart/pkg/errs"
)

// memoryStore implements every repository contract in memory. HandleTrx
// restores all collections when fn fails.
type memoryStore struct {
	mu sync.Mutex

	products     map[domain.Category]map[string]domain.Product
	cart         map[string]domain.CartItem
	favorites    map[string]domain.Favorite
	orders       map[string]domain.OrderRecord
	intents      map[int64]domain.CheckoutIntent
	profiles     map[string]domain.UserProfile
	accounts     map[string]domain.Account
	revoked      map[string]time.Duration
	resetTokens  map[string]string
	failOn       map[string]error
	feeds        []*memoryFeed
	transactions int
}

func newMemoryStore() *memoryStore {
	s := &memoryStore{
		products:    map[domain.Category]map[string]domain.Product{},
		cart:        map[string]domain.CartItem{},
		favorites:   map[string]domain.Favorite{},
		orders:      map[string]domain.OrderRecord{},
		intents:     map[int64]domain.CheckoutIntent{},
		profiles:    map[string]domain.UserProfile{},
		accounts:    map[string]domain.Account{},
		revoked:     map[string]time.Duration{},
		resetTokens: map[string]string{},
		failOn:      map[string]error{},
	}
	for _, c := range domain.Categories {
		s.products[c] = map[string]domain.Product{}
	}
	return s
}

func (s *memoryStore) fail(method string) error {
	return s.failOn[method]
}

func (s *memoryStore) putProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.Category][p.UID] = p
	s.notify()
}

func (s *memoryStore) deleteProduct(c domain.Category, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products[c], uid)
	s.notify()
}

func (s *memoryStore) product(c domain.Category, uid string) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[c][uid]
}

func (s *memoryStore) cartSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cart)
}

func (s *memoryStore) orderRecords() []domain.OrderRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]domain.OrderRecord, 0, len(s.orders))
	for _, r := range s.orders {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

func (s *memoryStore) intent(orderNumber int64) domain.CheckoutIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intents[orderNumber]
}

// notify must be called with mu held.
func (s *memoryStore) notify() {
	for _, f := range s.feeds {
		select {
		case f.ch <- struct{}{}:
		default:
		}
	}
}

func (s *memoryStore) newFeed() (repository.ChangeFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &memoryFeed{ch: make(chan struct{}, 1), closed: make(chan struct{})}
	s.feeds = append(s.feeds, f)
	return f, nil
}

type memoryFeed struct {
	ch     chan struct{}
	closed chan struct{}
	once   sync.Once
}

func (f *memoryFeed) Next(ctx context.Context) bool {
	select {
	case <-f.ch:
		return true
	case <-f.closed:
		return false
	case <-ctx.Done():
		return false
	}
}

func (f *memoryFeed) Err() error {
	return nil
}

func (f *memoryFeed) Close(ctx context.Context) error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

// TxManager

func (s *memoryStore) HandleTrx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.transactions++
	products := make(map[domain.Category]map[string]domain.Product, len(s.products))
	for c, m := range s.products {
		products[c] = maps.Clone(m)
	}
	cart := maps.Clone(s.cart)
	orders := maps.Clone(s.orders)
	intents := maps.Clone(s.intents)
	profiles := maps.Clone(s.profiles)
	accounts := maps.Clone(s.accounts)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.products, s.cart, s.orders, s.intents, s.profiles, s.accounts = products, cart, orders, intents, profiles, accounts
		s.mu.Unlock()
		return err
	}
	return nil
}

// ProductRepository

func (s *memoryStore) GetProducts(ctx context.Context, category domain.Category, filter pkgdto.Filter) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetProducts"); err != nil {
		return nil, err
	}
	data := []domain.Product{}
	for _, p := range s.products[category] {
		if filter.Gender != "" && p.Gender != filter.Gender {
			continue
		}
		data = append(data, p)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].UID < data[j].UID })
	return data, nil
}

func (s *memoryStore) GetProductByID(ctx context.Context, category domain.Category, uid string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetProductByID"); err != nil {
		return domain.Product{}, err
	}
	p, ok := s.products[category][uid]
	if !ok {
		return domain.Product{}, errs.ErrNotFound
	}
	return p, nil
}

func (s *memoryStore) AddProduct(ctx context.Context, product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("AddProduct"); err != nil {
		return err
	}
	if _, ok := s.products[product.Category][product.UID]; ok {
		return errs.ErrConflict
	}
	s.products[product.Category][product.UID] = product
	s.notify()
	return nil
}

func (s *memoryStore) DecrementStock(ctx context.Context, d domain.StockDecrement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DecrementStock"); err != nil {
		return err
	}
	p, ok := s.products[d.Category][d.UID]
	if !ok || (p.Inventory.IsSized() && !p.Inventory.HasSize(d.Size)) {
		return errs.ErrNotFound
	}
	p.Inventory = p.Inventory.Decrement(d.Size, d.Quantity)
	s.products[d.Category][d.UID] = p
	s.notify()
	return nil
}

func (s *memoryStore) WatchProduct(ctx context.Context, category domain.Category, uid string) (repository.ChangeFeed, error) {
	return s.newFeed()
}

// CartRepository

func (s *memoryStore) GetCartItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetCartItems"); err != nil {
		return nil, err
	}
	items := []domain.CartItem{}
	for id, item := range s.cart {
		if strings.HasPrefix(id, userID+"/") {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (s *memoryStore) GetCartItem(ctx context.Context, userID string, key string) (domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.cart[domain.UserScopedID(userID, key)]
	if !ok {
		return domain.CartItem{}, errs.ErrNotFound
	}
	return item, nil
}

func (s *memoryStore) UpsertCartItem(ctx context.Context, item domain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpsertCartItem"); err != nil {
		return err
	}
	item.ID = domain.UserScopedID(item.UserID, item.Key)
	s.cart[item.ID] = item
	s.notify()
	return nil
}

func (s *memoryStore) SetCartItemQuantity(ctx context.Context, userID string, key string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := domain.UserScopedID(userID, key)
	item, ok := s.cart[id]
	if !ok {
		return errs.ErrNotFound
	}
	item.Quantity = quantity
	s.cart[id] = item
	s.notify()
	return nil
}

func (s *memoryStore) DeleteCartItem(ctx context.Context, userID string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := domain.UserScopedID(userID, key)
	if _, ok := s.cart[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.cart, id)
	s.notify()
	return nil
}

func (s *memoryStore) DeleteCartItems(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteCartItems"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(s.cart, id)
	}
	s.notify()
	return nil
}

func (s *memoryStore) WatchCart(ctx context.Context, userID string) (repository.ChangeFeed, error) {
	return s.newFeed()
}

// FavoriteRepository

func (s *memoryStore) GetFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := []domain.Favorite{}
	for id, f := range s.favorites {
		if strings.HasPrefix(id, userID+"/") {
			data = append(data, f)
		}
	}
	sort.Slice(data, func(i, j int) bool { return data[i].UID < data[j].UID })
	return data, nil
}

func (s *memoryStore) GetFavorite(ctx context.Context, userID string, productUID string) (domain.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.favorites[domain.UserScopedID(userID, productUID)]
	if !ok {
		return domain.Favorite{}, errs.ErrNotFound
	}
	return f, nil
}

func (s *memoryStore) AddFavorite(ctx context.Context, favorite domain.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	favorite.ID = domain.UserScopedID(favorite.UserID, favorite.UID)
	s.favorites[favorite.ID] = favorite
	s.notify()
	return nil
}

func (s *memoryStore) DeleteFavorite(ctx context.Context, userID string, productUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := domain.UserScopedID(userID, productUID)
	if _, ok := s.favorites[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.favorites, id)
	s.notify()
	return nil
}

func (s *memoryStore) WatchFavorites(ctx context.Context, userID string) (repository.ChangeFeed, error) {
	return s.newFeed()
}

// OrderRepository

func (s *memoryStore) AddOrderRecords(ctx context.Context, records []domain.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("AddOrderRecords"); err != nil {
		return err
	}
	for _, r := range records {
		if _, ok := s.orders[r.ID]; ok {
			return errs.ErrConflict
		}
	}
	for _, r := range records {
		s.orders[r.ID] = r
	}
	s.notify()
	return nil
}

func (s *memoryStore) GetOrderHistory(ctx context.Context, userID string) ([]domain.OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := []domain.OrderRecord{}
	for _, r := range s.orders {
		if r.UserID == userID {
			data = append(data, r)
		}
	}
	sort.Slice(data, func(i, j int) bool { return data[i].ID < data[j].ID })
	return data, nil
}

func (s *memoryStore) WatchOrderHistory(ctx context.Context, userID string) (repository.ChangeFeed, error) {
	return s.newFeed()
}

// CheckoutIntentRepository

func (s *memoryStore) AddCheckoutIntent(ctx context.Context, intent domain.CheckoutIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("AddCheckoutIntent"); err != nil {
		return err
	}
	if _, ok := s.intents[intent.OrderNumber]; ok {
		return errs.ErrConflict
	}
	s.intents[intent.OrderNumber] = intent
	return nil
}

func (s *memoryStore) GetCheckoutIntent(ctx context.Context, orderNumber int64) (domain.CheckoutIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[orderNumber]
	if !ok {
		return domain.CheckoutIntent{}, errs.ErrNotFound
	}
	return intent, nil
}

func (s *memoryStore) UpdateCheckoutIntentStatus(ctx context.Context, orderNumber int64, from []domain.CheckoutStatus, status domain.CheckoutStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[orderNumber]
	if !ok {
		return errs.ErrConflict
	}
	for _, f := range from {
		if intent.Status == f {
			intent.Status = status
			s.intents[orderNumber] = intent
			return nil
		}
	}
	return errs.ErrConflict
}

func (s *memoryStore) GetCheckoutIntentsByStatus(ctx context.Context, status domain.CheckoutStatus, createdBefore time.Time) ([]domain.CheckoutIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := []domain.CheckoutIntent{}
	for _, intent := range s.intents {
		if intent.Status == status && intent.CreatedAt.Before(createdBefore) {
			data = append(data, intent)
		}
	}
	sort.Slice(data, func(i, j int) bool { return data[i].OrderNumber < data[j].OrderNumber })
	return data, nil
}

// ProfileRepository

func (s *memoryStore) AddProfile(ctx context.Context, profile domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("AddProfile"); err != nil {
		return err
	}
	if _, ok := s.profiles[profile.UserID]; ok {
		return errs.ErrConflict
	}
	s.profiles[profile.UserID] = profile
	s.notify()
	return nil
}

func (s *memoryStore) GetProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return domain.UserProfile{}, errs.ErrNotFound
	}
	return p, nil
}

func (s *memoryStore) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return errs.ErrNotFound
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.PhoneNumber != nil {
		p.PhoneNumber = *update.PhoneNumber
	}
	if update.Address != nil {
		p.Address = *update.Address
	}
	s.profiles[userID] = p
	s.notify()
	return nil
}

func (s *memoryStore) SetProfilePhoto(ctx context.Context, userID string, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return errs.ErrNotFound
	}
	p.ProfilePhoto = url
	s.profiles[userID] = p
	s.notify()
	return nil
}

func (s *memoryStore) WatchProfile(ctx context.Context, userID string) (repository.ChangeFeed, error) {
	return s.newFeed()
}

// AccountRepository

func (s *memoryStore) AddAccount(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == account.Email {
			return errs.ErrEmailAlreadyUsed
		}
	}
	s.accounts[account.UserID] = account
	return nil
}

func (s *memoryStore) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Account{}, errs.ErrAccountNotFound
}

func (s *memoryStore) UpdatePassword(ctx context.Context, userID string, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return errs.ErrAccountNotFound
	}
	a.HashedPassword = hashedPassword
	s.accounts[userID] = a
	return nil
}

// SessionRepository

func (s *memoryStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = ttl
	return nil
}

func (s *memoryStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok, nil
}

func (s *memoryStore) SavePasswordResetToken(ctx context.Context, token string, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTokens[token] = userID
	return nil
}

func (s *memoryStore) ConsumePasswordResetToken(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.resetTokens[token]
	if !ok {
		return "", errs.ErrTokenExpired
	}
	delete(s.resetTokens, token)
	return userID, nil
}

type publishedEvent struct {
	EventType string
	Key       string
	Data      interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, eventType string, key string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{EventType: eventType, Key: key, Data: data})
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType)
	}
	return types
}

type fakePayments struct {
	secret      string
	err         error
	calls       int
	lastAmount  int64
	lastOrderNo int64

	// status is what the gateway reports for every order. The zero value
	// reads as pending.
	status       domain.PaymentResult
	statusErr    error
	statusChecks int
}

func (p *fakePayments) PaymentStatus(ctx context.Context, orderNumber int64, clientSecret string) (domain.PaymentResult, error) {
	p.statusChecks++
	if p.statusErr != nil {
		return domain.PaymentResult{}, p.statusErr
	}
	if p.status.Outcome == "" {
		return domain.PaymentResult{Outcome: domain.PaymentPending}, nil
	}
	return p.status, nil
}

func (p *fakePayments) CreatePaymentIntent(ctx context.Context, orderNumber int64, amount int64) (string, error) {
	p.calls++
	p.lastAmount = amount
	p.lastOrderNo = orderNumber
	return p.secret, p.err
}
