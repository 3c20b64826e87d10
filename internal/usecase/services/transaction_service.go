package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/exportdesk/debt-ledger/internal/adapter/http/models"
	"github.com/exportdesk/debt-ledger/internal/adapter/repository/repo_interfaces"
	"github.com/exportdesk/debt-ledger/internal/commons"
	"github.com/exportdesk/debt-ledger/internal/domain"
	"github.com/exportdesk/debt-ledger/internal/logger"
	"github.com/exportdesk/debt-ledger/internal/observability"
	"github.com/exportdesk/debt-ledger/internal/receiptcode"
)

// TransactionService runs the export and payment paths: validate the request,
// resolve the agency and product snapshots, pre-check the debt limit, pick a
// receipt code, and hand the atomic write group to the posting repository.
// The pre-check is advisory; the posting repository re-asserts the limit
// inside its transaction, which is the authoritative decision.
type TransactionService struct {
	agencyRepo        repo_interfaces.AgencyRepository
	productRepo       repo_interfaces.ProductRepository
	postingRepo       repo_interfaces.PostingRepository
	ledgerRepo        repo_interfaces.LedgerRepository
	receiptRepo       repo_interfaces.ReceiptRepository
	exportCodePrefix  string
	paymentCodePrefix string
}

func NewTransactionService(
	agencyRepo repo_interfaces.AgencyRepository,
	productRepo repo_interfaces.ProductRepository,
	postingRepo repo_interfaces.PostingRepository,
	ledgerRepo repo_interfaces.LedgerRepository,
	receiptRepo repo_interfaces.ReceiptRepository,
	exportCodePrefix string,
	paymentCodePrefix string,
) *TransactionService {
	return &TransactionService{
		agencyRepo:        agencyRepo,
		productRepo:       productRepo,
		postingRepo:       postingRepo,
		ledgerRepo:        ledgerRepo,
		receiptRepo:       receiptRepo,
		exportCodePrefix:  strings.TrimSpace(exportCodePrefix),
		paymentCodePrefix: strings.TrimSpace(paymentCodePrefix),
	}
}

func (s *TransactionService) CreateExport(ctx context.Context, req models.CreateExportRequest) (commons.Response[models.CreateExportResponse], error) {
	logger.Info("transaction service create export", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return s.rejectExport(domain.E(domain.KindValidation, err.Error()))
	}

	agency, err := s.agencyRepo.GetByID(ctx, strings.TrimSpace(req.AgencyID))
	if err != nil {
		return s.rejectExport(err)
	}
	creditType, err := s.agencyRepo.GetCreditType(ctx, agency.CreditTypeID)
	if err != nil {
		return s.rejectExport(err)
	}

	items, totalAmount, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return s.rejectExport(err)
	}

	if err := domain.AdmitExport(agency.CurrentDebt, totalAmount, creditType.MaxDebt); err != nil {
		return s.rejectExport(err)
	}

	issuedAt := businessDate(req.Date)
	code, err := s.pickCode(ctx, domain.EventExport, s.exportCodePrefix, issuedAt)
	if err != nil {
		return s.rejectExport(err)
	}

	receipt, entry, err := s.postingRepo.PostExport(ctx, domain.ExportReceipt{
		AgencyID:    agency.ID,
		Code:        code,
		IssuedAt:    issuedAt,
		Items:       items,
		TotalAmount: totalAmount,
	}, creditType.MaxDebt)
	if err != nil {
		return s.rejectExport(err)
	}

	observability.PostingsCommitted.WithLabelValues(string(domain.EventExport)).Inc()

	response := models.CreateExportResponse{
		Receipt: exportReceiptPayload(receipt),
		Agency: models.AgencyPayload{
			ID:          agency.ID,
			Name:        agency.Name,
			CurrentDebt: entry.DebtAfter,
		},
	}
	return commons.SuccessResponse("export recorded", response), nil
}

func (s *TransactionService) CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (commons.Response[models.CreatePaymentResponse], error) {
	logger.Info("transaction service create payment", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return s.rejectPayment(domain.E(domain.KindValidation, err.Error()))
	}

	agency, err := s.agencyRepo.GetByID(ctx, strings.TrimSpace(req.AgencyID))
	if err != nil {
		return s.rejectPayment(err)
	}

	if err := domain.AdmitPayment(agency.CurrentDebt, req.AmountPaid); err != nil {
		return s.rejectPayment(err)
	}

	issuedAt := businessDate(req.Date)
	code, err := s.pickCode(ctx, domain.EventPayment, s.paymentCodePrefix, issuedAt)
	if err != nil {
		return s.rejectPayment(err)
	}

	receipt, entry, err := s.postingRepo.PostPayment(ctx, domain.PaymentReceipt{
		AgencyID:   agency.ID,
		Code:       code,
		IssuedAt:   issuedAt,
		AmountPaid: req.AmountPaid,
	})
	if err != nil {
		return s.rejectPayment(err)
	}

	observability.PostingsCommitted.WithLabelValues(string(domain.EventPayment)).Inc()

	response := models.CreatePaymentResponse{
		Receipt: models.PaymentReceiptPayload{
			Code:       receipt.Code,
			Date:       receipt.IssuedAt,
			AmountPaid: receipt.AmountPaid,
		},
		Agency: models.AgencyPayload{
			ID:          agency.ID,
			Name:        agency.Name,
			CurrentDebt: entry.DebtAfter,
		},
	}
	return commons.SuccessResponse("payment recorded", response), nil
}

// AgencyDebt returns the cached balance together with the latest ledger entry,
// which at any quiescent point must agree.
func (s *TransactionService) AgencyDebt(ctx context.Context, agencyID string) (commons.Response[models.AgencyDebtResponse], error) {
	agency, err := s.agencyRepo.GetByID(ctx, strings.TrimSpace(agencyID))
	if err != nil {
		return commons.FromError[models.AgencyDebtResponse](err), err
	}

	response := models.AgencyDebtResponse{
		Agency: models.AgencyPayload{
			ID:          agency.ID,
			Name:        agency.Name,
			CurrentDebt: agency.CurrentDebt,
		},
	}

	entry, ok, err := s.ledgerRepo.Latest(ctx, agency.ID)
	if err != nil {
		return commons.FromError[models.AgencyDebtResponse](err), err
	}
	if ok {
		response.LastEntry = &models.LedgerEntryPayload{
			Kind:         string(entry.Kind),
			DocumentCode: entry.DocumentCode,
			EventDate:    entry.EventDate,
			Change:       entry.Change,
			DebtAfter:    entry.DebtAfter,
		}
	}

	return commons.SuccessResponse("agency debt", response), nil
}

func (s *TransactionService) ReceiptByCode(ctx context.Context, code string) (commons.Response[models.ReceiptLookupResponse], error) {
	code = strings.TrimSpace(code)
	if code == "" {
		err := domain.E(domain.KindValidation, "code is required")
		return commons.FromError[models.ReceiptLookupResponse](err), err
	}

	export, err := s.receiptRepo.GetExportByCode(ctx, code)
	if err == nil {
		payload := exportReceiptPayload(export)
		return commons.SuccessResponse("receipt found", models.ReceiptLookupResponse{
			Kind:   string(domain.EventExport),
			Export: &payload,
		}), nil
	}
	if domain.KindOf(err) != domain.KindNotFound {
		return commons.FromError[models.ReceiptLookupResponse](err), err
	}

	payment, err := s.receiptRepo.GetPaymentByCode(ctx, code)
	if err != nil {
		return commons.FromError[models.ReceiptLookupResponse](err), err
	}
	return commons.SuccessResponse("receipt found", models.ReceiptLookupResponse{
		Kind: string(domain.EventPayment),
		Payment: &models.PaymentReceiptPayload{
			Code:       payment.Code,
			Date:       payment.IssuedAt,
			AmountPaid: payment.AmountPaid,
		},
	}), nil
}

// resolveItems snapshots each line's product name, unit, and price in one
// batch lookup and totals the receipt. Missing products fail the whole request.
func (s *TransactionService) resolveItems(ctx context.Context, reqItems []models.ExportItemRequest) ([]domain.ExportItem, decimal.Decimal, error) {
	ids := make([]string, 0, len(reqItems))
	for _, item := range reqItems {
		ids = append(ids, strings.TrimSpace(item.ProductID))
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	items := make([]domain.ExportItem, 0, len(reqItems))
	totalAmount := decimal.Zero
	for i, reqItem := range reqItems {
		product, ok := products[ids[i]]
		if !ok {
			return nil, decimal.Zero, domain.Ef(domain.KindNotFound, "product %s not found", ids[i])
		}

		unitPrice := product.Price
		if reqItem.UnitPrice != nil {
			unitPrice = *reqItem.UnitPrice
		}
		if unitPrice.IsNegative() {
			return nil, decimal.Zero, domain.Ef(domain.KindValidation, "unit price for product %s cannot be negative", ids[i])
		}

		amount := reqItem.Quantity.Mul(unitPrice)
		items = append(items, domain.ExportItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Unit:        product.Unit,
			Quantity:    reqItem.Quantity,
			UnitPrice:   unitPrice,
			Amount:      amount,
		})
		totalAmount = totalAmount.Add(amount)
	}

	return items, totalAmount, nil
}

// pickCode probes for a free receipt code within the generation budget. If
// every probe collides the last candidate is still returned; the store's
// uniqueness constraint is the authoritative backstop and a violation there
// surfaces as a conflict.
func (s *TransactionService) pickCode(ctx context.Context, kind domain.EventKind, prefix string, issuedAt time.Time) (string, error) {
	var code string
	for attempt := 0; attempt < receiptcode.MaxAttempts; attempt++ {
		code = receiptcode.Generate(prefix, issuedAt)
		exists, err := s.postingRepo.CodeExists(ctx, kind, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	logger.Info("receipt code probes exhausted", logger.Fields{
		"kind":     string(kind),
		"lastCode": code,
	})
	return code, nil
}

func (s *TransactionService) rejectExport(err error) (commons.Response[models.CreateExportResponse], error) {
	s.countRejection(domain.EventExport, err)
	return commons.FromError[models.CreateExportResponse](err), err
}

func (s *TransactionService) rejectPayment(err error) (commons.Response[models.CreatePaymentResponse], error) {
	s.countRejection(domain.EventPayment, err)
	return commons.FromError[models.CreatePaymentResponse](err), err
}

func (s *TransactionService) countRejection(kind domain.EventKind, err error) {
	observability.PostingsRejected.WithLabelValues(string(kind), string(domain.KindOf(err))).Inc()
	logger.Error("transaction service posting rejected", err, logger.Fields{
		"kind":      string(kind),
		"errorKind": string(domain.KindOf(err)),
	})
}

func exportReceiptPayload(receipt domain.ExportReceipt) models.ExportReceiptPayload {
	items := make([]models.ExportItemPayload, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		items = append(items, models.ExportItemPayload{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	return models.ExportReceiptPayload{
		Code:        receipt.Code,
		Date:        receipt.IssuedAt,
		Items:       items,
		TotalAmount: receipt.TotalAmount,
	}
}

func businessDate(date *time.Time) time.Time {
	if date != nil && !date.IsZero() {
		return date.UTC()
	}
	return time.Now().UTC()
}
