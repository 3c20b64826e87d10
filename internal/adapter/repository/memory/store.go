// Package memory holds a full in-process implementation of the repository
// interfaces. Postings serialize on one mutex and evaluate the admission
// predicate inside the critical section, mirroring the conditional-update
// semantics of the postgres backend, so service tests exercise the same
// linearizability guarantees without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/exportdesk/debt-ledger/internal/domain"
)

type Store struct {
	mu              sync.Mutex
	agencies        map[string]domain.Agency
	creditTypes     map[string]domain.CreditType
	products        map[string]domain.Product
	exportReceipts  map[string]domain.ExportReceipt
	paymentReceipts map[string]domain.PaymentReceipt
	codes           map[domain.EventKind]map[string]string
	entries         []domain.LedgerEntry
	nextEntryID     int64
}

func NewStore() *Store {
	return &Store{
		agencies:        make(map[string]domain.Agency),
		creditTypes:     make(map[string]domain.CreditType),
		products:        make(map[string]domain.Product),
		exportReceipts:  make(map[string]domain.ExportReceipt),
		paymentReceipts: make(map[string]domain.PaymentReceipt),
		codes: map[domain.EventKind]map[string]string{
			domain.EventExport:  make(map[string]string),
			domain.EventPayment: make(map[string]string),
		},
		nextEntryID: 1,
	}
}

// Seeding, for tests and the external CRUD collaborators.

func (s *Store) PutCreditType(ct domain.CreditType) domain.CreditType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ct.ID == "" {
		ct.ID = uuid.NewString()
	}
	s.creditTypes[ct.ID] = ct
	return ct
}

func (s *Store) PutAgency(agency domain.Agency) domain.Agency {
	s.mu.Lock()
	defer s.mu.Unlock()
	if agency.ID == "" {
		agency.ID = uuid.NewString()
	}
	s.agencies[agency.ID] = agency
	return agency
}

func (s *Store) PutProduct(product domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	s.products[product.ID] = product
	return product
}

// AgencyRepository

func (s *Store) GetByID(_ context.Context, id string) (domain.Agency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agency, ok := s.agencies[id]
	if !ok {
		return domain.Agency{}, domain.Ef(domain.KindNotFound, "agency %s not found", id)
	}
	return agency, nil
}

func (s *Store) GetCreditType(_ context.Context, id string) (domain.CreditType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ct, ok := s.creditTypes[id]
	if !ok {
		return domain.CreditType{}, domain.Ef(domain.KindNotFound, "credit type %s not found", id)
	}
	return ct, nil
}

func (s *Store) List(_ context.Context) ([]domain.Agency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agencies := make([]domain.Agency, 0, len(s.agencies))
	for _, agency := range s.agencies {
		agencies = append(agencies, agency)
	}
	sort.Slice(agencies, func(i, j int) bool {
		if agencies[i].Name != agencies[j].Name {
			return agencies[i].Name < agencies[j].Name
		}
		return agencies[i].ID < agencies[j].ID
	})
	return agencies, nil
}

// Delete cascades to the agency's receipts and ledger entries, matching the
// postgres schema's ON DELETE CASCADE.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agencies[id]; !ok {
		return domain.Ef(domain.KindNotFound, "agency %s not found", id)
	}
	delete(s.agencies, id)

	for rid, receipt := range s.exportReceipts {
		if receipt.AgencyID == id {
			delete(s.codes[domain.EventExport], receipt.Code)
			delete(s.exportReceipts, rid)
		}
	}
	for rid, receipt := range s.paymentReceipts {
		if receipt.AgencyID == id {
			delete(s.codes[domain.EventPayment], receipt.Code)
			delete(s.paymentReceipts, rid)
		}
	}

	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.AgencyID != id {
			kept = append(kept, entry)
		}
	}
	s.entries = kept

	return nil
}

// ProductRepository

func (s *Store) GetByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			products[id] = product
		}
	}
	return products, nil
}

// PostingRepository

func (s *Store) PostExport(_ context.Context, receipt domain.ExportReceipt, ceiling decimal.Decimal) (domain.ExportReceipt, domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agency, ok := s.agencies[receipt.AgencyID]
	if !ok {
		return domain.ExportReceipt{}, domain.LedgerEntry{}, domain.Ef(domain.KindNotFound, "agency %s not found", receipt.AgencyID)
	}
	if err := domain.AdmitExport(agency.CurrentDebt, receipt.TotalAmount, ceiling); err != nil {
		return domain.ExportReceipt{}, domain.LedgerEntry{}, err
	}
	if _, taken := s.codes[domain.EventExport][receipt.Code]; taken {
		return domain.ExportReceipt{}, domain.LedgerEntry{}, domain.Ef(domain.KindConflict, "receipt code %s already exists", receipt.Code)
	}

	receipt.ID = uuid.NewString()
	receipt.CreatedAt = time.Now().UTC()

	agency.CurrentDebt = agency.CurrentDebt.Add(receipt.TotalAmount)
	agency.UpdatedAt = receipt.CreatedAt
	s.agencies[agency.ID] = agency

	s.exportReceipts[receipt.ID] = receipt
	s.codes[domain.EventExport][receipt.Code] = receipt.ID

	entry := s.appendLocked(domain.LedgerEntry{
		AgencyID:     receipt.AgencyID,
		Kind:         domain.EventExport,
		DocumentID:   receipt.ID,
		DocumentCode: receipt.Code,
		EventDate:    receipt.IssuedAt,
		Change:       domain.LedgerChange(domain.EventExport, receipt.TotalAmount),
		DebtAfter:    agency.CurrentDebt,
	})

	return receipt, entry, nil
}

func (s *Store) PostPayment(_ context.Context, receipt domain.PaymentReceipt) (domain.PaymentReceipt, domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agency, ok := s.agencies[receipt.AgencyID]
	if !ok {
		return domain.PaymentReceipt{}, domain.LedgerEntry{}, domain.Ef(domain.KindNotFound, "agency %s not found", receipt.AgencyID)
	}
	if err := domain.AdmitPayment(agency.CurrentDebt, receipt.AmountPaid); err != nil {
		return domain.PaymentReceipt{}, domain.LedgerEntry{}, err
	}
	if _, taken := s.codes[domain.EventPayment][receipt.Code]; taken {
		return domain.PaymentReceipt{}, domain.LedgerEntry{}, domain.Ef(domain.KindConflict, "receipt code %s already exists", receipt.Code)
	}

	receipt.ID = uuid.NewString()
	receipt.CreatedAt = time.Now().UTC()

	agency.CurrentDebt = agency.CurrentDebt.Sub(receipt.AmountPaid)
	agency.UpdatedAt = receipt.CreatedAt
	s.agencies[agency.ID] = agency

	s.paymentReceipts[receipt.ID] = receipt
	s.codes[domain.EventPayment][receipt.Code] = receipt.ID

	entry := s.appendLocked(domain.LedgerEntry{
		AgencyID:     receipt.AgencyID,
		Kind:         domain.EventPayment,
		DocumentID:   receipt.ID,
		DocumentCode: receipt.Code,
		EventDate:    receipt.IssuedAt,
		Change:       domain.LedgerChange(domain.EventPayment, receipt.AmountPaid),
		DebtAfter:    agency.CurrentDebt,
	})

	return receipt, entry, nil
}

func (s *Store) CodeExists(_ context.Context, kind domain.EventKind, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.codes[kind][code]
	return ok, nil
}

// LedgerRepository

func (s *Store) LatestOnOrBefore(_ context.Context, agencyID string, t time.Time) (domain.LedgerEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestLocked(agencyID, func(entry domain.LedgerEntry) bool {
		return !entry.EventDate.After(t)
	})
}

func (s *Store) Latest(_ context.Context, agencyID string) (domain.LedgerEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestLocked(agencyID, func(domain.LedgerEntry) bool { return true })
}

func (s *Store) EntriesInWindow(_ context.Context, agencyID string, start, end time.Time) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var window []domain.LedgerEntry
	for _, entry := range s.entries {
		if entry.AgencyID == agencyID && entry.EventDate.After(start) && !entry.EventDate.After(end) {
			window = append(window, entry)
		}
	}
	sort.Slice(window, func(i, j int) bool {
		if !window[i].EventDate.Equal(window[j].EventDate) {
			return window[i].EventDate.Before(window[j].EventDate)
		}
		return window[i].ID < window[j].ID
	})
	return window, nil
}

func (s *Store) DeleteByAgency(_ context.Context, agencyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.AgencyID != agencyID {
			kept = append(kept, entry)
		}
	}
	s.entries = kept
	return nil
}

// ReceiptRepository

func (s *Store) GetExportByCode(_ context.Context, code string) (domain.ExportReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.codes[domain.EventExport][code]; ok {
		return s.exportReceipts[id], nil
	}
	return domain.ExportReceipt{}, domain.Ef(domain.KindNotFound, "receipt %s not found", code)
}

func (s *Store) GetPaymentByCode(_ context.Context, code string) (domain.PaymentReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.codes[domain.EventPayment][code]; ok {
		return s.paymentReceipts[id], nil
	}
	return domain.PaymentReceipt{}, domain.Ef(domain.KindNotFound, "receipt %s not found", code)
}

func (s *Store) appendLocked(entry domain.LedgerEntry) domain.LedgerEntry {
	entry.ID = s.nextEntryID
	s.nextEntryID++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.entries = append(s.entries, entry)
	return entry
}

func (s *Store) latestLocked(agencyID string, match func(domain.LedgerEntry) bool) (domain.LedgerEntry, bool, error) {
	var (
		latest domain.LedgerEntry
		found  bool
	)
	for _, entry := range s.entries {
		if entry.AgencyID != agencyID || !match(entry) {
			continue
		}
		if !found || entry.EventDate.After(latest.EventDate) ||
			(entry.EventDate.Equal(latest.EventDate) && entry.ID > latest.ID) {
			latest = entry
			found = true
		}
	}
	return latest, found, nil
}
