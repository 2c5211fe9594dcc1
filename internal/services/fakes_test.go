package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vidora/monetization/internal/events"
	"github.com/vidora/monetization/internal/landing"
	"github.com/vidora/monetization/internal/models"
	"github.com/vidora/monetization/internal/repositories"
)

// memState is everything the in-memory stores share. Transactions hold mu for
// their whole duration and restore a snapshot when the callback fails.
type memState struct {
	campaigns   map[uuid.UUID]models.AdCampaign
	views       []models.ViewRecord
	impressions []models.AdImpression
	videos      []models.Video
	comments    map[uuid.UUID]int64
	balances    map[uuid.UUID]models.CreatorBalance
	entries     []models.BalanceTransaction
	transfers   []models.RevenueTransfer
	withdrawals map[uuid.UUID]models.WithdrawalRequest
	methods     map[string]models.PaymentMethod
	users       map[uuid.UUID]models.User
}

type memDB struct {
	mu    sync.Mutex
	state memState
	audit []models.AuditLog
	seq   int64
}

func newMemDB() *memDB {
	return &memDB{state: memState{
		campaigns:   map[uuid.UUID]models.AdCampaign{},
		comments:    map[uuid.UUID]int64{},
		balances:    map[uuid.UUID]models.CreatorBalance{},
		withdrawals: map[uuid.UUID]models.WithdrawalRequest{},
		methods:     map[string]models.PaymentMethod{},
		users:       map[uuid.UUID]models.User{},
	}}
}

func (s memState) clone() memState {
	c := memState{
		campaigns:   make(map[uuid.UUID]models.AdCampaign, len(s.campaigns)),
		views:       append([]models.ViewRecord(nil), s.views...),
		impressions: append([]models.AdImpression(nil), s.impressions...),
		videos:      append([]models.Video(nil), s.videos...),
		comments:    make(map[uuid.UUID]int64, len(s.comments)),
		balances:    make(map[uuid.UUID]models.CreatorBalance, len(s.balances)),
		entries:     append([]models.BalanceTransaction(nil), s.entries...),
		transfers:   append([]models.RevenueTransfer(nil), s.transfers...),
		withdrawals: make(map[uuid.UUID]models.WithdrawalRequest, len(s.withdrawals)),
		methods:     make(map[string]models.PaymentMethod, len(s.methods)),
		users:       make(map[uuid.UUID]models.User, len(s.users)),
	}
	for k, v := range s.campaigns {
		c.campaigns[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.withdrawals {
		c.withdrawals[k] = v
	}
	for k, v := range s.methods {
		c.methods[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

func (db *memDB) inTx(fn func() error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	snapshot := db.state.clone()
	if err := fn(); err != nil {
		db.state = snapshot
		return err
	}
	return nil
}

func (db *memDB) tick() time.Time {
	db.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(db.seq) * time.Second)
}

// Log records audit entries. Auditor.
func (db *memDB) Log(_ context.Context, entry models.AuditLog) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.audit = append(db.audit, entry)
	return nil
}

// seed helpers

func (db *memDB) addCampaign(c models.AdCampaign) models.AdCampaign {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = db.tick()
	}
	db.state.campaigns[c.ID] = c
	return c
}

func (db *memDB) addVideo(owner uuid.UUID, title string, views, likes int64) models.Video {
	db.mu.Lock()
	defer db.mu.Unlock()
	v := models.Video{ID: uuid.New(), UserID: owner, Title: title, Views: views, Likes: likes, CreatedAt: db.tick()}
	db.state.videos = append(db.state.videos, v)
	return v
}

func (db *memDB) addImpression(videoID, adID uuid.UUID, revenue string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.impressions = append(db.state.impressions, models.AdImpression{
		ID:            uuid.New(),
		VideoID:       videoID,
		AdID:          adID,
		AdType:        models.AdTypePreRoll,
		EventTime:     db.tick(),
		RevenueEarned: decimal.RequireFromString(revenue),
		SessionID:     "seed",
	})
}

func (db *memDB) setBalance(userID uuid.UUID, amount string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	amt := decimal.RequireFromString(amount)
	db.state.balances[userID] = models.CreatorBalance{UserID: userID, Balance: amt}
	db.state.entries = append(db.state.entries, models.BalanceTransaction{
		ID: uuid.New(), UserID: userID, Amount: amt, Type: models.TxRevenueTransfer, BalanceAfter: amt,
	})
}

func (db *memDB) balance(userID uuid.UUID) decimal.Decimal {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.balances[userID].Balance
}

func (db *memDB) campaign(id uuid.UUID) models.AdCampaign {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.campaigns[id]
}

func (db *memDB) impressionCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.state.impressions)
}

func (db *memDB) ledgerSum(userID uuid.UUID) decimal.Decimal {
	db.mu.Lock()
	defer db.mu.Unlock()
	sum := decimal.Zero
	for _, e := range db.state.entries {
		if e.UserID == userID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// --- CampaignStore ---

type memCampaigns struct{ db *memDB }

func (m memCampaigns) Create(_ context.Context, c *models.AdCampaign) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = m.db.tick()
	c.UpdatedAt = c.CreatedAt
	m.db.state.campaigns[c.ID] = *c
	return nil
}

func (m memCampaigns) GetByID(_ context.Context, id uuid.UUID) (*models.AdCampaign, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.state.campaigns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (m memCampaigns) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.AdCampaign, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := map[uuid.UUID]models.AdCampaign{}
	for _, id := range ids {
		if c, ok := m.db.state.campaigns[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (m memCampaigns) sorted(keep func(c models.AdCampaign) bool) []models.AdCampaign {
	var out []models.AdCampaign
	for _, c := range m.db.state.campaigns {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (m memCampaigns) ListActive(_ context.Context, adType string, now time.Time) ([]models.AdCampaign, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return m.sorted(func(c models.AdCampaign) bool {
		return c.IsServable(now) && (adType == "" || c.AdType == adType)
	}), nil
}

func (m memCampaigns) List(_ context.Context, f repositories.CampaignFilter) ([]models.AdCampaign, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return m.sorted(func(c models.AdCampaign) bool {
		return (f.AdType == nil || c.AdType == *f.AdType) && (f.IsActive == nil || c.IsActive == *f.IsActive)
	}), nil
}

func (m memCampaigns) RecordClick(_ context.Context, id uuid.UUID) (*models.AdCampaign, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.state.campaigns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c.Clicks++
	c.CTR = models.CTR(c.Clicks, c.Impressions)
	m.db.state.campaigns[id] = c
	return &c, nil
}

func (m memCampaigns) SetActive(_ context.Context, id uuid.UUID, active bool) (*models.AdCampaign, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.state.campaigns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c.IsActive = active
	m.db.state.campaigns[id] = c
	return &c, nil
}

func (m memCampaigns) DeactivateFinished(_ context.Context, now time.Time) ([]models.AdCampaign, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	finished := m.sorted(func(c models.AdCampaign) bool {
		return c.IsActive && (c.EndDate.Before(now) || c.RemainingImpressions == 0)
	})
	for i := range finished {
		finished[i].IsActive = false
		m.db.state.campaigns[finished[i].ID] = finished[i]
	}
	return finished, nil
}

// --- ImpressionStore ---

type memImpressions struct{ db *memDB }

type memImpressionTx struct{ db *memDB }

func (m memImpressions) InTx(_ context.Context, fn func(tx repositories.ImpressionTx) error) error {
	return m.db.inTx(func() error { return fn(memImpressionTx{db: m.db}) })
}

func (t memImpressionTx) ConsumeInventory(_ context.Context, adID uuid.UUID) (bool, error) {
	c, ok := t.db.state.campaigns[adID]
	if !ok || c.RemainingImpressions <= 0 {
		return false, nil
	}
	now := t.db.tick()
	c.Impressions++
	c.RemainingImpressions--
	c.Spent = c.Spent.Add(models.CostPerImpression(c.CPM))
	c.LastShown = &now
	t.db.state.campaigns[adID] = c
	return true, nil
}

func (t memImpressionTx) InsertViewRecord(_ context.Context, v *models.ViewRecord) error {
	v.ID = uuid.New()
	v.CreatedAt = t.db.tick()
	t.db.state.views = append(t.db.state.views, *v)
	return nil
}

func (t memImpressionTx) InsertImpression(_ context.Context, imp *models.AdImpression) error {
	if imp.IdempotencyKey != nil {
		for _, existing := range t.db.state.impressions {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *imp.IdempotencyKey {
				return models.ErrDuplicateImpression
			}
		}
	}
	imp.ID = uuid.New()
	if imp.CreatedAt.IsZero() {
		imp.CreatedAt = t.db.tick()
	}
	t.db.state.impressions = append(t.db.state.impressions, *imp)
	return nil
}

func (m memImpressions) ImpressionExists(_ context.Context, key string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, imp := range m.db.state.impressions {
		if imp.IdempotencyKey != nil && *imp.IdempotencyKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (m memImpressions) HasRecentImpression(_ context.Context, videoID uuid.UUID, sessionID string, adID uuid.UUID, adType string, since time.Time) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, imp := range m.db.state.impressions {
		if imp.VideoID == videoID && imp.SessionID == sessionID && imp.AdID == adID &&
			imp.AdType == adType && !imp.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m memImpressions) ListByVideos(_ context.Context, videoIDs []uuid.UUID) ([]models.AdImpression, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range videoIDs {
		want[id] = true
	}
	var out []models.AdImpression
	for _, imp := range m.db.state.impressions {
		if want[imp.VideoID] {
			out = append(out, imp)
		}
	}
	return out, nil
}

// --- VideoStore ---

type memVideos struct{ db *memDB }

func (m memVideos) ListByOwner(_ context.Context, userID uuid.UUID) ([]models.Video, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.Video
	for _, v := range m.db.state.videos {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m memVideos) CommentCounts(_ context.Context, videoIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := map[uuid.UUID]int64{}
	for _, id := range videoIDs {
		if n, ok := m.db.state.comments[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

// --- LedgerStore ---

type memLedger struct{ db *memDB }

type memLedgerTx struct{ db *memDB }

func (m memLedger) InTx(_ context.Context, fn func(tx repositories.LedgerTx) error) error {
	return m.db.inTx(func() error { return fn(memLedgerTx{db: m.db}) })
}

func (t memLedgerTx) LockBalance(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	b, ok := t.db.state.balances[userID]
	if !ok {
		b = models.CreatorBalance{UserID: userID, Balance: decimal.Zero}
		t.db.state.balances[userID] = b
	}
	return b.Balance, nil
}

func (t memLedgerTx) PostEntry(_ context.Context, e *models.BalanceTransaction) error {
	b, ok := t.db.state.balances[e.UserID]
	if !ok {
		return models.ErrNotFound
	}
	e.BalanceBefore = b.Balance
	e.BalanceAfter = b.Balance.Add(e.Amount)
	b.Balance = e.BalanceAfter
	now := t.db.tick()
	if e.Type == models.TxRevenueTransfer {
		b.LastRevenueTransfer = &now
	}
	t.db.state.balances[e.UserID] = b
	e.ID = uuid.New()
	e.CreatedAt = now
	t.db.state.entries = append(t.db.state.entries, *e)
	return nil
}

func (t memLedgerTx) ClaimRevenue(_ context.Context, userID, transferID uuid.UUID) ([]decimal.Decimal, error) {
	owned := map[uuid.UUID]bool{}
	for _, v := range t.db.state.videos {
		if v.UserID == userID {
			owned[v.ID] = true
		}
	}
	var amounts []decimal.Decimal
	for i := range t.db.state.impressions {
		imp := &t.db.state.impressions[i]
		ad, ok := t.db.state.campaigns[imp.AdID]
		if !owned[imp.VideoID] || imp.Transferred || !ok || !ad.EarnsRevenue() {
			continue
		}
		imp.Transferred = true
		id := transferID
		imp.TransferID = &id
		amounts = append(amounts, imp.RevenueEarned)
	}
	return amounts, nil
}

func (t memLedgerTx) InsertTransfer(_ context.Context, rt *models.RevenueTransfer) error {
	rt.CreatedAt = t.db.tick()
	t.db.state.transfers = append(t.db.state.transfers, *rt)
	return nil
}

func (t memLedgerTx) InsertWithdrawal(_ context.Context, w *models.WithdrawalRequest) error {
	w.ID = uuid.New()
	w.RequestedAt = t.db.tick()
	t.db.state.withdrawals[w.ID] = *w
	return nil
}

func (t memLedgerTx) LockWithdrawal(_ context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	w, ok := t.db.state.withdrawals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &w, nil
}

func (t memLedgerTx) UpdateWithdrawalStatus(_ context.Context, w *models.WithdrawalRequest) error {
	if _, ok := t.db.state.withdrawals[w.ID]; !ok {
		return models.ErrNotFound
	}
	t.db.state.withdrawals[w.ID] = *w
	return nil
}

func (m memLedger) GetBalance(_ context.Context, userID uuid.UUID) (*models.CreatorBalance, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	b, ok := m.db.state.balances[userID]
	if !ok {
		b = models.CreatorBalance{UserID: userID, Balance: decimal.Zero}
	}
	return &b, nil
}

func (m memLedger) ListTransactions(_ context.Context, userID uuid.UUID, _, _ int) ([]models.BalanceTransaction, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.BalanceTransaction
	for _, e := range m.db.state.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memLedger) FindDrift(_ context.Context) ([]models.BalanceDrift, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.BalanceDrift
	for id, b := range m.db.state.balances {
		sum := decimal.Zero
		for _, e := range m.db.state.entries {
			if e.UserID == id {
				sum = sum.Add(e.Amount)
			}
		}
		if !sum.Equal(b.Balance) {
			out = append(out, models.BalanceDrift{UserID: id, Balance: b.Balance, LedgerSum: sum})
		}
	}
	return out, nil
}

// --- WithdrawStore ---

type memWithdraws struct{ db *memDB }

func (m memWithdraws) GetByID(_ context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	w, ok := m.db.state.withdrawals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &w, nil
}

func (m memWithdraws) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]models.WithdrawalRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.WithdrawalRequest
	for _, w := range m.db.state.withdrawals {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (m memWithdraws) ListWithUsers(_ context.Context, f repositories.WithdrawFilter) ([]models.WithdrawalWithUser, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.WithdrawalWithUser
	for _, w := range m.db.state.withdrawals {
		if f.Status != nil && w.Status != *f.Status {
			continue
		}
		item := models.WithdrawalWithUser{WithdrawalRequest: w, CurrentBalance: m.db.state.balances[w.UserID].Balance}
		if u, ok := m.db.state.users[w.UserID]; ok {
			item.Username, item.Email = u.Username, u.Email
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

// --- PaymentMethodStore ---

type memMethods struct{ db *memDB }

func methodKey(userID uuid.UUID, method string) string { return userID.String() + "/" + method }

func (m memMethods) Upsert(_ context.Context, pm *models.PaymentMethod) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	pm.UpdatedAt = m.db.tick()
	m.db.state.methods[methodKey(pm.UserID, pm.Method)] = *pm
	return nil
}

func (m memMethods) Get(_ context.Context, userID uuid.UUID, method string) (*models.PaymentMethod, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	pm, ok := m.db.state.methods[methodKey(userID, method)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &pm, nil
}

func (m memMethods) ListByUser(_ context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.PaymentMethod
	for _, pm := range m.db.state.methods {
		if pm.UserID == userID {
			out = append(out, pm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out, nil
}

// --- events ---

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// --- landing ---

type stubPreviewer struct {
	preview *landing.Preview
	err     error
	calls   int
}

func (s *stubPreviewer) Fetch(_ context.Context, pageURL string) (*landing.Preview, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	p := *s.preview
	p.URL = pageURL
	return &p, nil
}
