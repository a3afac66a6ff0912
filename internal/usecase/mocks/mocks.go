package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc           func(ctx context.Context, account *domain.Account) error
	GetByIDFunc          func(ctx context.Context, scope domain.Scope, id string) (*domain.Account, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, scope domain.Scope, id string) (*domain.Account, error)
	UpdateBalanceFunc    func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error
	SetFrozenFunc        func(ctx context.Context, id string, frozen bool, updatedAt time.Time) error
	ListSummariesFunc    func(ctx context.Context, scope domain.Scope) ([]*usecase.AccountSummary, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return m.Create(ctx, account)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, scope, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, &domain.NotFoundError{Resource: "account", ID: id}
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, scope domain.Scope, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, scope, id)
	}
	return m.GetByID(ctx, scope, id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, scope domain.Scope, ids []string) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		acc, ok := m.accounts[id]
		if !ok {
			return nil, &domain.NotFoundError{Resource: "account", ID: id}
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

func (m *MockAccountRepository) GetByName(ctx context.Context, scope domain.Scope, name string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if strings.EqualFold(acc.Name, name) {
			return acc, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "account", ID: name}
}

func (m *MockAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return &domain.NotFoundError{Resource: "account", ID: account.ID}
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, version, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.Version = version
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) SetFrozen(ctx context.Context, id string, frozen bool, updatedAt time.Time) error {
	if m.SetFrozenFunc != nil {
		return m.SetFrozenFunc(ctx, id, frozen, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Frozen = frozen
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return page(accounts, limit, offset), nil
}

func (m *MockAccountRepository) ListSummaries(ctx context.Context, scope domain.Scope) ([]*usecase.AccountSummary, error) {
	if m.ListSummariesFunc != nil {
		return m.ListSummariesFunc(ctx, scope)
	}
	accounts, _ := m.List(ctx, scope, 0, 0)
	summaries := make([]*usecase.AccountSummary, 0, len(accounts))
	for _, acc := range accounts {
		summaries = append(summaries, &usecase.AccountSummary{Account: acc})
	}
	return summaries, nil
}

// MockTransactionRepository is an in-memory TransactionRepository.
type MockTransactionRepository struct {
	mu   sync.RWMutex
	txns map[string]*domain.Transaction

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	ExistsActiveMatchFunc func(ctx context.Context, accountID string, typ domain.EntryType, amount decimal.Decimal, date time.Time) (bool, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		txns: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[txn.ID] = txn
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.txns[id]; ok {
		return txn, nil
	}
	return nil, &domain.NotFoundError{Resource: "transaction", ID: id}
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[txn.ID]; !ok {
		return &domain.NotFoundError{Resource: "transaction", ID: txn.ID}
	}
	m.txns[txn.ID] = txn
	return nil
}

func (m *MockTransactionRepository) SetState(ctx context.Context, tx usecase.Transaction, id string, state domain.TxState, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[id]
	if !ok {
		return &domain.NotFoundError{Resource: "transaction", ID: id}
	}
	txn.State = state
	txn.UpdatedAt = updatedAt
	return nil
}

func (m *MockTransactionRepository) List(ctx context.Context, scope domain.Scope, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.Transaction
	for _, txn := range m.txns {
		if filter.AccountID != "" && txn.AccountID != filter.AccountID {
			continue
		}
		if filter.Type != "" && txn.Type != filter.Type {
			continue
		}
		if filter.From != nil && txn.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !txn.Date.Before(*filter.To) {
			continue
		}
		if filter.MinAmount != nil && txn.Amount.LessThan(*filter.MinAmount) {
			continue
		}
		if filter.MaxAmount != nil && txn.Amount.GreaterThan(*filter.MaxAmount) {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(txn.Counterparty+" "+txn.Notes), strings.ToLower(filter.Query)) {
			continue
		}
		txns = append(txns, txn)
	}
	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].ID < txns[j].ID
	})
	return page(txns, filter.Limit, filter.Offset), nil
}

func (m *MockTransactionRepository) SumActiveBetween(ctx context.Context, tx usecase.Transaction, accountID string, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	debit, credit := decimal.Zero, decimal.Zero
	for _, txn := range m.txns {
		if txn.AccountID != accountID || !txn.IsActive() {
			continue
		}
		if !from.IsZero() && txn.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !txn.Date.Before(to) {
			continue
		}
		if txn.Type == domain.EntryDebit {
			debit = debit.Add(txn.Amount)
		} else {
			credit = credit.Add(txn.Amount)
		}
	}
	return debit, credit, nil
}

func (m *MockTransactionRepository) ExistsActiveMatch(ctx context.Context, accountID string, typ domain.EntryType, amount decimal.Decimal, date time.Time) (bool, error) {
	if m.ExistsActiveMatchFunc != nil {
		return m.ExistsActiveMatchFunc(ctx, accountID, typ, amount, date)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	day := date.UTC().Truncate(24 * time.Hour)
	for _, txn := range m.txns {
		if txn.AccountID != accountID || !txn.IsActive() || txn.Type != typ {
			continue
		}
		if !txn.Amount.Round(2).Equal(amount.Round(2)) {
			continue
		}
		if txn.Date.UTC().Truncate(24 * time.Hour).Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockTransactionRepository) LatestActiveDate(ctx context.Context, accountID string) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *time.Time
	for _, txn := range m.txns {
		if txn.AccountID != accountID || !txn.IsActive() {
			continue
		}
		d := txn.Date
		if latest == nil || d.After(*latest) {
			latest = &d
		}
	}
	return latest, nil
}

func (m *MockTransactionRepository) EarliestActiveDate(ctx context.Context, accountID string) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var earliest *time.Time
	for _, txn := range m.txns {
		if txn.AccountID != accountID || !txn.IsActive() {
			continue
		}
		d := txn.Date
		if earliest == nil || d.Before(*earliest) {
			earliest = &d
		}
	}
	return earliest, nil
}

// MockTransferRepository is an in-memory TransferRepository.
type MockTransferRepository struct {
	mu        sync.RWMutex
	transfers map[string]*domain.Transfer

	CreateFunc               func(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error
	GetByClientRequestIDFunc func(ctx context.Context, scope domain.Scope, clientRequestID string) (*domain.Transfer, error)
}

func NewMockTransferRepository() *MockTransferRepository {
	return &MockTransferRepository{
		transfers: make(map[string]*domain.Transfer),
	}
}

func (m *MockTransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transfer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if transfer.ClientRequestID != "" {
		for _, t := range m.transfers {
			if t.OwnerID == transfer.OwnerID && t.ClientRequestID == transfer.ClientRequestID {
				return &domain.ConflictError{Message: "duplicate client request id"}
			}
		}
	}
	m.transfers[transfer.ID] = transfer
	return nil
}

func (m *MockTransferRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transfers[id]; ok {
		return t, nil
	}
	return nil, &domain.NotFoundError{Resource: "transfer", ID: id}
}

func (m *MockTransferRepository) GetByClientRequestID(ctx context.Context, scope domain.Scope, clientRequestID string) (*domain.Transfer, error) {
	if m.GetByClientRequestIDFunc != nil {
		return m.GetByClientRequestIDFunc(ctx, scope, clientRequestID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transfers {
		if t.OwnerID == scope.OwnerID && t.ClientRequestID == clientRequestID {
			return t, nil
		}
	}
	return nil, nil
}

func (m *MockTransferRepository) ListByAccount(ctx context.Context, scope domain.Scope, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var transfers []*domain.Transfer
	for _, t := range m.transfers {
		if t.FromAccountID == accountID || t.ToAccountID == accountID {
			transfers = append(transfers, t)
		}
	}
	sort.Slice(transfers, func(i, j int) bool { return transfers[i].ID < transfers[j].ID })
	return page(transfers, limit, offset), nil
}

// MockSnapshotRepository is an in-memory SnapshotRepository.
type MockSnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.BalanceSnapshot
}

func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{
		snapshots: make(map[string]*domain.BalanceSnapshot),
	}
}

func snapshotKey(accountID string, g domain.Granularity, periodStart time.Time) string {
	return fmt.Sprintf("%s/%s/%d", accountID, g, periodStart.Unix())
}

func (m *MockSnapshotRepository) Upsert(ctx context.Context, snapshot *domain.BalanceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshotKey(snapshot.AccountID, snapshot.Granularity, snapshot.PeriodStart)] = snapshot
	return nil
}

func (m *MockSnapshotRepository) Get(ctx context.Context, scope domain.Scope, accountID string, g domain.Granularity, periodStart time.Time) (*domain.BalanceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.snapshots[snapshotKey(accountID, g, periodStart)]; ok {
		return s, nil
	}
	return nil, &domain.NotFoundError{Resource: "snapshot", ID: accountID}
}

func (m *MockSnapshotRepository) LatestBefore(ctx context.Context, accountID string, g domain.Granularity, before time.Time) (*domain.BalanceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.BalanceSnapshot
	for _, s := range m.snapshots {
		if s.AccountID != accountID || s.Granularity != g || s.Stale {
			continue
		}
		if !s.PeriodStart.Before(before) {
			continue
		}
		if latest == nil || s.PeriodStart.After(latest.PeriodStart) {
			latest = s
		}
	}
	return latest, nil
}

func (m *MockSnapshotRepository) LatestPeriod(ctx context.Context, accountID string, g domain.Granularity) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *time.Time
	for _, s := range m.snapshots {
		if s.AccountID != accountID || s.Granularity != g {
			continue
		}
		p := s.PeriodStart
		if latest == nil || p.After(*latest) {
			latest = &p
		}
	}
	return latest, nil
}

func (m *MockSnapshotRepository) MarkStaleFrom(ctx context.Context, tx usecase.Transaction, accountID string, g domain.Granularity, from time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := domain.PeriodStart(g, from)
	for _, s := range m.snapshots {
		if s.AccountID != accountID || s.Granularity != g {
			continue
		}
		if !s.PeriodStart.Before(start) {
			s.Stale = true
		}
	}
	return nil
}

func (m *MockSnapshotRepository) ListStale(ctx context.Context, limit int) ([]*usecase.StaleRange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	earliest := make(map[string]*usecase.StaleRange)
	for _, s := range m.snapshots {
		if !s.Stale {
			continue
		}
		key := s.AccountID + "/" + string(s.Granularity)
		if r, ok := earliest[key]; !ok || s.PeriodStart.Before(r.From) {
			earliest[key] = &usecase.StaleRange{
				OwnerID:     s.OwnerID,
				AccountID:   s.AccountID,
				Granularity: s.Granularity,
				From:        s.PeriodStart,
			}
		}
	}
	var ranges []*usecase.StaleRange
	for _, r := range earliest {
		ranges = append(ranges, r)
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].AccountID < ranges[j].AccountID })
	if limit > 0 && len(ranges) > limit {
		ranges = ranges[:limit]
	}
	return ranges, nil
}

func (m *MockSnapshotRepository) List(ctx context.Context, scope domain.Scope, accountID string, g domain.Granularity, limit, offset int) ([]*domain.BalanceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var snapshots []*domain.BalanceSnapshot
	for _, s := range m.snapshots {
		if s.AccountID != accountID || s.Granularity != g {
			continue
		}
		snapshots = append(snapshots, s)
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].PeriodStart.Before(snapshots[j].PeriodStart) })
	return page(snapshots, limit, offset), nil
}

// MockPartyRepository is an in-memory PartyRepository.
type MockPartyRepository struct {
	mu      sync.RWMutex
	parties map[string]*domain.Party
}

func NewMockPartyRepository() *MockPartyRepository {
	return &MockPartyRepository{
		parties: make(map[string]*domain.Party),
	}
}

func (m *MockPartyRepository) Create(ctx context.Context, party *domain.Party) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parties[party.ID] = party
	return nil
}

func (m *MockPartyRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Party, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.parties[id]; ok {
		return p, nil
	}
	return nil, &domain.NotFoundError{Resource: "party", ID: id}
}

func (m *MockPartyRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, scope domain.Scope, id string) (*domain.Party, error) {
	return m.GetByID(ctx, scope, id)
}

func (m *MockPartyRepository) Update(ctx context.Context, party *domain.Party) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parties[party.ID]; !ok {
		return &domain.NotFoundError{Resource: "party", ID: party.ID}
	}
	m.parties[party.ID] = party
	return nil
}

func (m *MockPartyRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, current decimal.Decimal, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.parties[id]; ok {
		p.CurrentBalance = current
		p.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockPartyRepository) Deactivate(ctx context.Context, scope domain.Scope, id string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parties[id]
	if !ok {
		return &domain.NotFoundError{Resource: "party", ID: id}
	}
	p.Active = false
	p.UpdatedAt = updatedAt
	return nil
}

func (m *MockPartyRepository) List(ctx context.Context, scope domain.Scope, kind domain.PartyKind, limit, offset int) ([]*domain.Party, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var parties []*domain.Party
	for _, p := range m.parties {
		if kind != "" && p.Kind != kind {
			continue
		}
		parties = append(parties, p)
	}
	sort.Slice(parties, func(i, j int) bool { return parties[i].ID < parties[j].ID })
	return page(parties, limit, offset), nil
}

// MockPartyEntryRepository is an in-memory PartyEntryRepository.
type MockPartyEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.PartyEntry
}

func NewMockPartyEntryRepository() *MockPartyEntryRepository {
	return &MockPartyEntryRepository{}
}

func (m *MockPartyEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.PartyEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockPartyEntryRepository) byParty(partyID string) []*domain.PartyEntry {
	var entries []*domain.PartyEntry
	for _, e := range m.entries {
		if e.PartyID == partyID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func (m *MockPartyEntryRepository) ListByParty(ctx context.Context, partyID string, limit, offset int) ([]*domain.PartyEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return page(m.byParty(partyID), limit, offset), nil
}

func (m *MockPartyEntryRepository) SumBefore(ctx context.Context, partyID string, offset int) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.byParty(partyID)
	if offset > len(entries) {
		offset = len(entries)
	}
	sum := decimal.Zero
	for _, e := range entries[:offset] {
		sum = sum.Add(e.Signed())
	}
	return sum, nil
}

func (m *MockPartyEntryRepository) Totals(ctx context.Context, partyID string) (decimal.Decimal, decimal.Decimal, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	debit, credit := decimal.Zero, decimal.Zero
	var count int64
	for _, e := range m.byParty(partyID) {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
		count++
	}
	return debit, credit, count, nil
}

// MockInvoiceRepository is an in-memory InvoiceRepository.
type MockInvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[string]*domain.Invoice
}

func NewMockInvoiceRepository() *MockInvoiceRepository {
	return &MockInvoiceRepository{
		invoices: make(map[string]*domain.Invoice),
	}
}

func (m *MockInvoiceRepository) Create(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Numbers are unique per owner only when present, like the partial
	// index in storage.
	if invoice.Number != "" {
		for _, existing := range m.invoices {
			if existing.OwnerID == invoice.OwnerID && existing.Number == invoice.Number {
				return &domain.ConflictError{Message: "invoice number " + invoice.Number + " already exists"}
			}
		}
	}
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if inv, ok := m.invoices[id]; ok {
		return inv, nil
	}
	return nil, &domain.NotFoundError{Resource: "invoice", ID: id}
}

func (m *MockInvoiceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, scope domain.Scope, id string) (*domain.Invoice, error) {
	return m.GetByID(ctx, scope, id)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[invoice.ID]; !ok {
		return &domain.NotFoundError{Resource: "invoice", ID: invoice.ID}
	}
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, scope domain.Scope, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[id]; !ok {
		return &domain.NotFoundError{Resource: "invoice", ID: id}
	}
	delete(m.invoices, id)
	return nil
}

func (m *MockInvoiceRepository) List(ctx context.Context, scope domain.Scope, filter usecase.InvoiceFilter) ([]*domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var invoices []*domain.Invoice
	for _, inv := range m.invoices {
		if filter.Type != "" && inv.Type != filter.Type {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.PartyID != "" && inv.PartyID != filter.PartyID {
			continue
		}
		invoices = append(invoices, inv)
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].ID < invoices[j].ID })
	return page(invoices, filter.Limit, filter.Offset), nil
}

func (m *MockInvoiceRepository) ListDueForOverdue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var invoices []*domain.Invoice
	for _, inv := range m.invoices {
		if inv.Status != domain.InvoicePending && inv.Status != domain.InvoicePartial {
			continue
		}
		if inv.DueDate.IsZero() || !inv.DueDate.Before(asOf) {
			continue
		}
		invoices = append(invoices, inv)
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].ID < invoices[j].ID })
	if limit > 0 && len(invoices) > limit {
		invoices = invoices[:limit]
	}
	return invoices, nil
}

// MockCategoryRepository is an in-memory CategoryRepository.
type MockCategoryRepository struct {
	mu         sync.RWMutex
	categories map[string]*domain.Category
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		categories: make(map[string]*domain.Category),
	}
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[category.ID] = category
	return nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return nil, &domain.NotFoundError{Resource: "category", ID: id}
}

func (m *MockCategoryRepository) List(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var categories []*domain.Category
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return page(categories, limit, offset), nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, scope domain.Scope, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return &domain.NotFoundError{Resource: "category", ID: id}
	}
	delete(m.categories, id)
	return nil
}

// MockImportRepository is an in-memory ImportRepository.
type MockImportRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.ImportRecord
	items   map[string]*domain.ImportItem
}

func NewMockImportRepository() *MockImportRepository {
	return &MockImportRepository{
		records: make(map[string]*domain.ImportRecord),
		items:   make(map[string]*domain.ImportItem),
	}
}

func (m *MockImportRepository) CreateRecord(ctx context.Context, record *domain.ImportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record
	return nil
}

func (m *MockImportRepository) GetRecord(ctx context.Context, scope domain.Scope, id string) (*domain.ImportRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, &domain.NotFoundError{Resource: "import", ID: id}
}

func (m *MockImportRepository) UpdateRecord(ctx context.Context, record *domain.ImportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.ID]; !ok {
		return &domain.NotFoundError{Resource: "import", ID: record.ID}
	}
	m.records[record.ID] = record
	return nil
}

func (m *MockImportRepository) DeleteRecord(ctx context.Context, scope domain.Scope, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return &domain.NotFoundError{Resource: "import", ID: id}
	}
	delete(m.records, id)
	for itemID, item := range m.items {
		if item.ImportID == id {
			delete(m.items, itemID)
		}
	}
	return nil
}

func (m *MockImportRepository) ListRecords(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.ImportRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []*domain.ImportRecord
	for _, r := range m.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	return page(records, limit, offset), nil
}

func (m *MockImportRepository) CreateItems(ctx context.Context, items []*domain.ImportItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		m.items[item.ID] = item
	}
	return nil
}

func (m *MockImportRepository) GetItem(ctx context.Context, importID, itemID string) (*domain.ImportItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if item, ok := m.items[itemID]; ok && item.ImportID == importID {
		return item, nil
	}
	return nil, &domain.NotFoundError{Resource: "import item", ID: itemID}
}

func (m *MockImportRepository) UpdateItem(ctx context.Context, item *domain.ImportItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return &domain.NotFoundError{Resource: "import item", ID: item.ID}
	}
	m.items[item.ID] = item
	return nil
}

func (m *MockImportRepository) ListItems(ctx context.Context, importID string) ([]*domain.ImportItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []*domain.ImportItem
	for _, item := range m.items {
		if item.ImportID == importID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].RowIndex != items[j].RowIndex {
			return items[i].RowIndex < items[j].RowIndex
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// MockTransactionManager is a no-op TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a no-op Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator returns sequential ids.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%04d", m.counter)
}

// MockRetrier invokes the operation once with no retries.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockCache is an in-memory Cache. TTLs are ignored.
type MockCache struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetFunc func(ctx context.Context, key string) ([]byte, error)
	SetFunc func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string][]byte),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIdempotencyStore is an in-memory IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
