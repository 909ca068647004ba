package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"assetmanagement/internal/asset_mgmt/inventory"
)

type LoanLister interface {
	Loans(ctx context.Context, f inventory.LoanFilter) ([]inventory.LoanView, error)
}

type Scheduler struct {
	cron   *cron.Cron
	loans  LoanLister
	spec   string
	logger *zap.Logger
}

func New(spec string, loans LoanLister, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(),
		loans:  loans,
		spec:   spec,
		logger: logger,
	}
}

// empty spec = disabled
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("overdue report disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.reportOverdue); err != nil {
		return err
	}
	s.logger.Info("starting scheduler", zap.String("spec", s.spec))
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) reportOverdue() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := ReportOverdue(ctx, s.loans, s.logger); err != nil {
		s.logger.Error("overdue report failed", zap.Error(err))
	}
}

func ReportOverdue(ctx context.Context, loans LoanLister, logger *zap.Logger) (int, error) {
	overdue, err := loans.Loans(ctx, inventory.LoanFilter{OverdueOnly: true})
	if err != nil {
		return 0, err
	}
	for _, l := range overdue {
		logger.Warn("loan overdue",
			zap.Int64("loan_id", l.ID),
			zap.String("borrower", l.BorrowerName),
			zap.String("asset", l.AssetName),
			zap.Int("quantity", l.Quantity),
			zap.Stringer("datedue", l.DateDue))
	}
	logger.Info("overdue report done", zap.Int("overdue", len(overdue)))
	return len(overdue), nil
}
