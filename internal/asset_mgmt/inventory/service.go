package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"assetmanagement/internal/platform/db"
	"assetmanagement/internal/platform/notify"
)

// -------------- Clock --------------

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// -------------- Service --------------

// counts are INT on mysql; sqlite would silently go REAL past int64
const maxQuantity = math.MaxInt32

type Service struct {
	db     *sql.DB
	clock  Clock
	log    *zap.Logger
	events *Events
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(conn *sql.DB, opts ...Option) *Service {
	s := &Service{
		db:     conn,
		clock:  realClock{},
		log:    zap.NewNop(),
		events: newEvents(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Events() *Events { return s.events }

func (s *Service) today() db.Date { return db.DateOf(s.clock.Now()) }

// names are stored byte for byte; non-NFC ones are only flagged
func (s *Service) checkName(kind, name string) {
	if !norm.NFC.IsNormalString(name) {
		s.log.Warn("name is not NFC normalized; stored as given",
			zap.String("kind", kind), zap.String("name", name))
	}
}

// mutate fires n only after commit.
func (s *Service) mutate(ctx context.Context, n *notify.Notifier, fn func(ctx context.Context, tx db.DBTX) error) error {
	if err := db.RunInTx(ctx, s.db, nil, fn); err != nil {
		return err
	}
	if err := n.Notify(); err != nil {
		// already committed
		s.log.Error("subscriber failed", zap.String("operation", n.Name()), zap.Error(err))
	}
	return nil
}

// -------------- borrowers --------------

// AddBorrower reactivates an inactive borrower or inserts a new one.
func (s *Service) AddBorrower(ctx context.Context, name string) error {
	return s.mutate(ctx, s.events.AddBorrower, func(ctx context.Context, tx db.DBTX) error {
		b, err := getBorrowerTx(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("get borrower: %w", err)
		}
		switch {
		case b == nil:
			s.checkName("borrower", name)
			if _, err := insertBorrowerTx(ctx, tx, name); err != nil {
				if db.IsUniqueViolation(err) {
					return errDuplicateName("borrower %q already exists", name)
				}
				return fmt.Errorf("insert borrower: %w", err)
			}
			s.log.Debug("borrower added", zap.String("borrower", name))
		case b.IsActive:
			return errDuplicateName("borrower %q already exists", name)
		default:
			if err := setBorrowerActiveTx(ctx, tx, b.ID, true); err != nil {
				return fmt.Errorf("reactivate borrower: %w", err)
			}
			s.log.Debug("borrower reactivated", zap.String("borrower", name))
		}
		return nil
	})
}

// DeactivateBorrower is a no-op for an already inactive borrower.
func (s *Service) DeactivateBorrower(ctx context.Context, name string) error {
	return s.mutate(ctx, s.events.DeactivateBorrower, func(ctx context.Context, tx db.DBTX) error {
		b, err := getBorrowerTx(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("get borrower: %w", err)
		}
		if b == nil {
			return errNotFound("borrower %q not found", name)
		}
		open, err := countOpenLoansByBorrowerTx(ctx, tx, b.ID)
		if err != nil {
			return fmt.Errorf("count open loans: %w", err)
		}
		if open > 0 {
			return errHasActiveLoan("borrower %q has %d open loan(s)", name, open)
		}
		if err := setBorrowerActiveTx(ctx, tx, b.ID, false); err != nil {
			return fmt.Errorf("deactivate borrower: %w", err)
		}
		s.log.Debug("borrower deactivated", zap.String("borrower", name))
		return nil
	})
}

func (s *Service) BorrowerNames(ctx context.Context, activeOnly bool) ([]string, error) {
	var names []string
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var err error
		names, err = listBorrowerNamesTx(ctx, tx, activeOnly)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list borrowers: %w", err)
	}
	return names, nil
}

// -------------- assets --------------

func (s *Service) AddAsset(ctx context.Context, name string, quantity int) error {
	if quantity < 0 || quantity > maxQuantity {
		return errInvalidQuantity("quantity must be in 0..%d, got %d", maxQuantity, quantity)
	}
	return s.mutate(ctx, s.events.AddAsset, func(ctx context.Context, tx db.DBTX) error {
		a, err := getAssetTx(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("get asset: %w", err)
		}
		if a == nil {
			s.checkName("asset", name)
			if _, err := insertAssetTx(ctx, tx, name, quantity); err != nil {
				if db.IsUniqueViolation(err) {
					return errDuplicateName("asset %q already exists", name)
				}
				return fmt.Errorf("insert asset: %w", err)
			}
		} else {
			if a.Total > maxQuantity-quantity {
				return errInvalidQuantity("total of %q would exceed %d", name, maxQuantity)
			}
			if err := addAssetCountsTx(ctx, tx, a.ID, quantity, quantity); err != nil {
				return s.mapStockErr(err, CodeInsufficientStock, "add asset")
			}
		}
		s.log.Debug("asset added", zap.String("asset", name), zap.Int("quantity", quantity))
		return nil
	})
}

// RemoveAsset with a nil quantity removes the current total.
func (s *Service) RemoveAsset(ctx context.Context, name string, quantity *int) error {
	if quantity != nil && *quantity < 0 {
		return errInvalidQuantity("quantity must be >= 0, got %d", *quantity)
	}
	return s.mutate(ctx, s.events.RemoveAsset, func(ctx context.Context, tx db.DBTX) error {
		a, err := getAssetTx(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("get asset: %w", err)
		}
		if a == nil {
			return errNotFound("asset %q not found", name)
		}

		q := a.Total
		if quantity != nil {
			q = *quantity
		}
		if a.Total-q < 0 || a.Instock-q < 0 {
			return errInsufficientStock("cannot remove %d of %q: total %d, instock %d", q, name, a.Total, a.Instock)
		}
		if err := addAssetCountsTx(ctx, tx, a.ID, -q, -q); err != nil {
			return s.mapStockErr(err, CodeInsufficientStock, "remove asset")
		}
		s.log.Debug("asset removed", zap.String("asset", name), zap.Int("quantity", q))
		return nil
	})
}

// ModifyAssetInstock corrects instock by delta; total is untouched.
func (s *Service) ModifyAssetInstock(ctx context.Context, name string, delta int) error {
	return s.mutate(ctx, s.events.ModifyAssetInstock, func(ctx context.Context, tx db.DBTX) error {
		a, err := getAssetTx(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("get asset: %w", err)
		}
		if a == nil {
			return errNotFound("asset %q not found", name)
		}
		if delta < -a.Instock || delta > a.Total-a.Instock {
			return errOutOfBounds("instock of %q is %d, delta %d leaves 0..%d", name, a.Instock, delta, a.Total)
		}
		if err := addAssetCountsTx(ctx, tx, a.ID, 0, delta); err != nil {
			return s.mapStockErr(err, CodeOutOfBounds, "modify instock")
		}
		s.log.Debug("asset instock modified", zap.String("asset", name), zap.Int("delta", delta))
		return nil
	})
}

func (s *Service) Asset(ctx context.Context, name string) (*Asset, error) {
	var a *Asset
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var err error
		a, err = getAssetTx(ctx, tx, name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	if a == nil {
		return nil, errNotFound("asset %q not found", name)
	}
	return a, nil
}

func (s *Service) Assets(ctx context.Context, f AssetFilter) ([]Asset, error) {
	var out []Asset
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var err error
		out, err = listAssetsTx(ctx, tx, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return out, nil
}

// -------------- loans --------------

// BorrowAsset lends to active borrowers only.
func (s *Service) BorrowAsset(ctx context.Context, borrowerName, assetName string, quantity int, due db.Date) (*Loan, error) {
	if quantity <= 0 || quantity > maxQuantity {
		return nil, errInvalidQuantity("quantity must be in 1..%d, got %d", maxQuantity, quantity)
	}
	if !due.Valid() {
		return nil, errInvalidArgument("invalid due date %s", due)
	}

	var loan *Loan
	err := s.mutate(ctx, s.events.BorrowAsset, func(ctx context.Context, tx db.DBTX) error {
		b, err := getBorrowerTx(ctx, tx, borrowerName)
		if err != nil {
			return fmt.Errorf("get borrower: %w", err)
		}
		if b == nil {
			return errNotFound("borrower %q not found", borrowerName)
		}
		if !b.IsActive {
			return errNotFound("borrower %q is inactive", borrowerName)
		}
		a, err := getAssetTx(ctx, tx, assetName)
		if err != nil {
			return fmt.Errorf("get asset: %w", err)
		}
		if a == nil {
			return errNotFound("asset %q not found", assetName)
		}
		if a.Instock < quantity {
			return errInsufficientStock("only %d of %q in stock, %d requested", a.Instock, assetName, quantity)
		}

		l := &Loan{
			BorrowerID: b.ID,
			AssetID:    a.ID,
			Quantity:   quantity,
			DateDue:    due,
		}
		if err := insertLoanTx(ctx, tx, l); err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
		if err := addAssetCountsTx(ctx, tx, a.ID, 0, -quantity); err != nil {
			return s.mapStockErr(err, CodeInsufficientStock, "borrow asset")
		}
		loan = l
		s.log.Debug("asset borrowed",
			zap.String("borrower", borrowerName),
			zap.String("asset", assetName),
			zap.Int("quantity", quantity),
			zap.Stringer("due", due))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ReturnAsset closes all open loans of the pair.
func (s *Service) ReturnAsset(ctx context.Context, borrowerName, assetName string) (int, error) {
	var restored int
	err := s.mutate(ctx, s.events.ReturnAsset, func(ctx context.Context, tx db.DBTX) error {
		b, err := getBorrowerTx(ctx, tx, borrowerName)
		if err != nil {
			return fmt.Errorf("get borrower: %w", err)
		}
		if b == nil {
			return errNotFound("borrower %q not found", borrowerName)
		}
		a, err := getAssetTx(ctx, tx, assetName)
		if err != nil {
			return fmt.Errorf("get asset: %w", err)
		}
		if a == nil {
			return errNotFound("asset %q not found", assetName)
		}

		count, sum, err := openLoanSumTx(ctx, tx, b.ID, a.ID)
		if err != nil {
			return fmt.Errorf("sum open loans: %w", err)
		}
		if count == 0 {
			return errNotFound("no open loan of %q for %q", assetName, borrowerName)
		}
		if sum > a.Total-a.Instock {
			return errOutOfBounds("returning %d of %q would exceed total %d", sum, assetName, a.Total)
		}
		if _, err := closeOpenLoansTx(ctx, tx, b.ID, a.ID); err != nil {
			return fmt.Errorf("close loans: %w", err)
		}
		if err := addAssetCountsTx(ctx, tx, a.ID, 0, sum); err != nil {
			return s.mapStockErr(err, CodeOutOfBounds, "return asset")
		}
		restored = sum
		s.log.Debug("asset returned",
			zap.String("borrower", borrowerName),
			zap.String("asset", assetName),
			zap.Int("loans", count),
			zap.Int("quantity", sum))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return restored, nil
}

func (s *Service) Loans(ctx context.Context, f LoanFilter) ([]LoanView, error) {
	today := s.today()

	var out []LoanView
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var err error
		out, err = listLoansTx(ctx, tx, f, today)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return out, nil
}

func (s *Service) mapStockErr(err error, code Code, op string) error {
	if db.IsCheckViolation(err) {
		return &Error{Code: code, Message: fmt.Sprintf("%s: stock bounds violated", op)}
	}
	return fmt.Errorf("%s: %w", op, err)
}
