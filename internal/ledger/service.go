package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rupaykg/exchange/internal/audit"
	"github.com/rupaykg/exchange/internal/fraud"
	"github.com/rupaykg/exchange/internal/registry"
	"github.com/rupaykg/exchange/internal/user"
	"github.com/rupaykg/exchange/internal/value"
	"github.com/rupaykg/exchange/internal/wallet"
)

// Caller is the authenticated identity invoking an operation. How it was
// authenticated is the transport layer's concern.
type Caller struct {
	ID   string
	Role user.Role
}

// Deps collects the service's collaborators.
type Deps struct {
	Records  RecordRepository
	Users    user.Repository
	Wallets  wallet.Ledger
	Pool     *wallet.Pool
	Registry registry.Registry
	Audit    audit.Repository

	Engine   *value.Engine
	Screener *fraud.Screener

	// Optional. Nil disables the concern.
	Broadcaster *audit.Broadcaster
	Metrics     *Metrics
	Logger      *slog.Logger
}

// Service coordinates record transitions, wallet movements, credit issuance,
// and the audit trail. Every mutating operation validates all preconditions
// before touching state, under per-entity locks, so a failure leaves state
// exactly as it was.
type Service struct {
	records  RecordRepository
	users    user.Repository
	wallets  wallet.Ledger
	pool     *wallet.Pool
	registry registry.Registry
	audit    audit.Repository

	engine   *value.Engine
	screener *fraud.Screener

	broadcaster *audit.Broadcaster
	metrics     *Metrics
	logger      *slog.Logger

	locks *keyedLocks
}

// NewService creates the settlement service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		records:     deps.Records,
		users:       deps.Users,
		wallets:     deps.Wallets,
		pool:        deps.Pool,
		registry:    deps.Registry,
		audit:       deps.Audit,
		engine:      deps.Engine,
		screener:    deps.Screener,
		broadcaster: deps.Broadcaster,
		metrics:     deps.Metrics,
		logger:      logger,
		locks:       newKeyedLocks(),
	}
}

// walletKey namespaces wallet locks away from record id locks.
func walletKey(actorID string) string {
	return "wallet:" + actorID
}

func (s *Service) authorize(caller Caller, op Operation) error {
	if !Allowed(caller.Role, op) {
		return fmt.Errorf("%w: role %q cannot %s", ErrForbidden, caller.Role, op)
	}
	return nil
}

// appendAudit writes the audit entry and pushes it to live subscribers.
// Audit append failures are surfaced: the entry is part of the operation's
// atomic unit, not best-effort telemetry.
func (s *Service) appendAudit(entry audit.LogEntry) (*audit.Entry, error) {
	e, err := s.audit.Append(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(e)
	}
	if s.metrics != nil {
		s.metrics.IncTransition(string(entry.Event))
	}
	return e, nil
}

// SubmitInput is the citizen-facing submission payload.
type SubmitInput struct {
	WeightKg    float64   `json:"weight_kg"`
	WasteType   string    `json:"waste_type"`
	Village     string    `json:"village"`
	Geo         fraud.Geo `json:"geo"`
	MoisturePct float64   `json:"moisture_pct"`
	ImageRef    string    `json:"image_ref"`
}

// SubmitResult reports the created record and the immediately credited base
// value. The carbon component stays pending until mrv verification.
type SubmitResult struct {
	RecordID      string          `json:"record_id"`
	Status        Status          `json:"status"`
	CreditedValue float64         `json:"credited_value"`
	Breakdown     value.Breakdown `json:"breakdown"`
	FraudFlagged  bool            `json:"fraud_flagged"`
	FraudReason   string          `json:"fraud_reason,omitempty"`
}

// Submit records a new waste submission. The base component is credited to
// the citizen's wallet immediately; a fraud-screen hit routes the record to
// review instead of the normal pickup queue but does not withhold the base
// credit, since disposition is deferred to a human reviewer.
func (s *Service) Submit(ctx context.Context, caller Caller, in SubmitInput) (*SubmitResult, error) {
	if err := s.authorize(caller, OpSubmit); err != nil {
		return nil, err
	}
	if in.WeightKg <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive", ErrValidation)
	}
	if in.WasteType == "" {
		return nil, fmt.Errorf("%w: waste_type is required", ErrValidation)
	}

	breakdown, err := s.engine.Compute(in.WeightKg, in.WasteType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	flagged, reason := s.screener.Screen(fraud.Submission{
		WeightKg:    in.WeightKg,
		MoisturePct: in.MoisturePct,
		Geo:         in.Geo,
	})

	now := time.Now().UTC()
	rec := &WasteRecord{
		ID:          uuid.New().String(),
		CitizenID:   caller.ID,
		WeightKg:    in.WeightKg,
		WasteType:   in.WasteType,
		Village:     in.Village,
		Geo:         in.Geo,
		MoisturePct: in.MoisturePct,
		ImageRef:    in.ImageRef,
		Breakdown:   breakdown,
		Status:      StatusPendingPickup,
		MRVStatus:   MRVPending,
		CreatedAt:   now,
	}
	if flagged {
		rec.Status = StatusFlagged
		rec.FraudFlagged = true
		rec.FraudReason = reason
	}

	stamp, err := IntegrityStamp(rec.ID, rec.CitizenID, rec.WeightKg, rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.IntegrityStamp = stamp

	unlock := s.locks.Acquire(rec.ID, walletKey(caller.ID))
	defer unlock()

	if err := s.records.Create(rec); err != nil {
		return nil, fmt.Errorf("failed to store record: %w", err)
	}
	if err := s.wallets.Ensure(caller.ID); err != nil {
		return nil, err
	}
	if _, err := s.wallets.Credit(caller.ID, breakdown.BaseValue); err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("weight=%.2fkg type=%s base=%.2f total=%.2f", in.WeightKg, in.WasteType, breakdown.BaseValue, breakdown.TotalValue)
	if flagged {
		detail += " fraud_reason=" + reason
	}
	if _, err := s.appendAudit(audit.LogEntry{
		Event:          audit.EventWasteUploaded,
		ActorID:        caller.ID,
		ActorRole:      string(caller.Role),
		RecordID:       rec.ID,
		Detail:         detail,
		ComplianceFlag: flagged,
	}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncSubmission(in.WasteType)
		if flagged {
			s.metrics.IncFraudFlagged()
		}
	}

	s.logger.Info("waste submitted",
		slog.String("record_id", rec.ID),
		slog.String("citizen_id", caller.ID),
		slog.Float64("weight_kg", in.WeightKg),
		slog.String("waste_type", in.WasteType),
		slog.Bool("fraud_flagged", flagged))

	return &SubmitResult{
		RecordID:      rec.ID,
		Status:        rec.Status,
		CreditedValue: breakdown.BaseValue,
		Breakdown:     breakdown,
		FraudFlagged:  flagged,
		FraudReason:   reason,
	}, nil
}

// Pickup moves a record from pending_pickup to in_transit and assigns the
// aggregator.
func (s *Service) Pickup(ctx context.Context, caller Caller, recordID string) (*WasteRecord, error) {
	if err := s.authorize(caller, OpPickup); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(recordID)
	defer unlock()

	rec, err := s.records.Get(recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusPendingPickup {
		return nil, fmt.Errorf("%w: pickup requires pending_pickup, record is %s", ErrInvalidState, rec.Status)
	}

	rec.Status = StatusInTransit
	rec.AggregatorID = caller.ID
	if err := s.records.Update(rec); err != nil {
		return nil, err
	}

	if _, err := s.appendAudit(audit.LogEntry{
		Event:     audit.EventBiomassPickup,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		RecordID:  rec.ID,
		Detail:    fmt.Sprintf("weight=%.2fkg type=%s", rec.WeightKg, rec.WasteType),
	}); err != nil {
		return nil, err
	}

	s.logger.Info("record picked up",
		slog.String("record_id", rec.ID),
		slog.String("aggregator_id", caller.ID))
	return rec, nil
}

// ReceiptResult reports the completed processing step and the rail funding
// that covered it.
type ReceiptResult struct {
	RecordID  string                  `json:"record_id"`
	Status    Status                  `json:"status"`
	Disbursed value.Breakdown         `json:"disbursed"`
	Pools     map[wallet.Rail]float64 `json:"pools"`
}

// Receipt moves a record from in_transit to processed, assigns the processor,
// and debits each rail pool by its breakdown component. The citizen's wallet
// is not touched here; base was credited at submission and carbon waits on
// mrv verification.
func (s *Service) Receipt(ctx context.Context, caller Caller, recordID string) (*ReceiptResult, error) {
	if err := s.authorize(caller, OpReceipt); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(recordID)
	defer unlock()

	rec, err := s.records.Get(recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusInTransit {
		return nil, fmt.Errorf("%w: receipt requires in_transit, record is %s", ErrInvalidState, rec.Status)
	}

	rec.Status = StatusProcessed
	rec.ProcessorID = caller.ID
	if err := s.records.Update(rec); err != nil {
		return nil, err
	}

	s.pool.DebitRails(rec.Breakdown)

	if _, err := s.appendAudit(audit.LogEntry{
		Event:     audit.EventBiomassProcessed,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		RecordID:  rec.ID,
		Detail:    fmt.Sprintf("weight=%.2fkg type=%s", rec.WeightKg, rec.WasteType),
	}); err != nil {
		return nil, err
	}
	if _, err := s.appendAudit(audit.LogEntry{
		Event:     audit.EventFundsDisbursed,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		RecordID:  rec.ID,
		Detail:    fmt.Sprintf("total=%.2f recycler=%.2f csr=%.2f municipal=%.2f carbon=%.2f epr=%.2f", rec.Breakdown.TotalValue, rec.Breakdown.Recycler, rec.Breakdown.CSR, rec.Breakdown.Municipal, rec.Breakdown.Carbon, rec.Breakdown.EPR),
	}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AddDisbursed(rec.Breakdown.TotalValue)
	}

	s.logger.Info("record processed",
		slog.String("record_id", rec.ID),
		slog.String("processor_id", caller.ID),
		slog.Float64("total_value", rec.Breakdown.TotalValue))

	return &ReceiptResult{
		RecordID:  rec.ID,
		Status:    rec.Status,
		Disbursed: rec.Breakdown,
		Pools:     s.pool.Balances(),
	}, nil
}

// Flag diverts a record to the flagged state from any status. Clearing a
// flag is an administrative matter outside this service.
func (s *Service) Flag(ctx context.Context, caller Caller, recordID, reason string) (*WasteRecord, error) {
	if err := s.authorize(caller, OpFlag); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: flag reason is required", ErrValidation)
	}

	unlock := s.locks.Acquire(recordID)
	defer unlock()

	rec, err := s.records.Get(recordID)
	if err != nil {
		return nil, err
	}

	rec.Status = StatusFlagged
	rec.FlagReason = reason
	if err := s.records.Update(rec); err != nil {
		return nil, err
	}

	if _, err := s.appendAudit(audit.LogEntry{
		Event:          audit.EventRecordFlagged,
		ActorID:        caller.ID,
		ActorRole:      string(caller.Role),
		RecordID:       rec.ID,
		Detail:         reason,
		ComplianceFlag: true,
	}); err != nil {
		return nil, err
	}

	s.logger.Warn("record flagged",
		slog.String("record_id", rec.ID),
		slog.String("regulator_id", caller.ID),
		slog.String("reason", reason))
	return rec, nil
}

// MRV decision inputs.
const (
	DecisionVerified = "verified"
	DecisionRejected = "rejected"
)

// VerifyResult reports the mrv decision and, on acceptance, the credit that
// was minted and the carbon value credited to the citizen.
type VerifyResult struct {
	RecordID       string    `json:"record_id"`
	MRVStatus      MRVStatus `json:"mrv_status"`
	CreditID       string    `json:"credit_id,omitempty"`
	CreditedValue  float64   `json:"credited_value"`
	CarbonCredited float64   `json:"carbon_credited_kg"`
}

// MRVVerify decides a processed record's mrv status. Acceptance credits the
// carbon component to the citizen, adds carbon holdings, and mints exactly
// one carbon credit. A second call on a decided record fails with
// ErrInvalidState rather than no-opping, so issuance can never double-fire.
func (s *Service) MRVVerify(ctx context.Context, caller Caller, recordID, decision string) (*VerifyResult, error) {
	if err := s.authorize(caller, OpMRVVerify); err != nil {
		return nil, err
	}
	if decision != DecisionVerified && decision != DecisionRejected {
		return nil, fmt.Errorf("%w: decision must be %q or %q", ErrValidation, DecisionVerified, DecisionRejected)
	}

	unlock := s.locks.Acquire(recordID)
	defer unlock()

	rec, err := s.records.Get(recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusProcessed {
		return nil, fmt.Errorf("%w: mrv decision requires processed, record is %s", ErrInvalidState, rec.Status)
	}
	if rec.MRVStatus != MRVPending {
		return nil, fmt.Errorf("%w: mrv already decided (%s)", ErrInvalidState, rec.MRVStatus)
	}

	now := time.Now().UTC()
	rec.VerifierID = caller.ID
	rec.VerifiedAt = &now

	if decision == DecisionRejected {
		rec.MRVStatus = MRVRejected
		if err := s.records.Update(rec); err != nil {
			return nil, err
		}
		if _, err := s.appendAudit(audit.LogEntry{
			Event:     audit.EventMRVRejected,
			ActorID:   caller.ID,
			ActorRole: string(caller.Role),
			RecordID:  rec.ID,
		}); err != nil {
			return nil, err
		}
		s.logger.Info("mrv rejected",
			slog.String("record_id", rec.ID),
			slog.String("verifier_id", caller.ID))
		return &VerifyResult{RecordID: rec.ID, MRVStatus: MRVRejected}, nil
	}

	// Accept branch. The record is persisted before the credit is minted; a
	// failed write leaves the record pending and mint-free, so the verifier
	// can simply retry. The registry's own check remains the final
	// anti-double-mint safeguard; tripping it means the state guard above is
	// broken.
	rec.MRVStatus = MRVVerified
	if err := s.records.Update(rec); err != nil {
		return nil, err
	}

	credit, err := s.registry.Issue(rec.ID, rec.CitizenID, rec.Breakdown.CarbonReductionKg)
	if err != nil {
		if errors.Is(err, ErrAlreadyIssued) {
			s.logger.Error("credit already issued behind mrv guard",
				slog.String("record_id", rec.ID))
		}
		return nil, err
	}

	unlockWallet := s.locks.Acquire(walletKey(rec.CitizenID))
	defer unlockWallet()

	if err := s.wallets.Ensure(rec.CitizenID); err != nil {
		return nil, err
	}
	if _, err := s.wallets.Credit(rec.CitizenID, rec.Breakdown.CarbonCreditValue); err != nil {
		return nil, err
	}
	if _, err := s.wallets.AddCarbon(rec.CitizenID, rec.Breakdown.CarbonReductionKg); err != nil {
		return nil, err
	}

	if _, err := s.appendAudit(audit.LogEntry{
		Event:     audit.EventMRVVerified,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		RecordID:  rec.ID,
		Detail:    fmt.Sprintf("carbon_kg=%.2f carbon_value=%.2f", rec.Breakdown.CarbonReductionKg, rec.Breakdown.CarbonCreditValue),
	}); err != nil {
		return nil, err
	}
	if _, err := s.appendAudit(audit.LogEntry{
		Event:     audit.EventCarbonCreditIssued,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		RecordID:  rec.ID,
		Detail:    fmt.Sprintf("credit_id=%s owner=%s amount_kg=%.2f", credit.ID, credit.OwnerID, credit.AmountKg),
	}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncCreditsIssued()
	}

	s.logger.Info("mrv verified",
		slog.String("record_id", rec.ID),
		slog.String("verifier_id", caller.ID),
		slog.String("credit_id", credit.ID))

	return &VerifyResult{
		RecordID:       rec.ID,
		MRVStatus:      MRVVerified,
		CreditID:       credit.ID,
		CreditedValue:  rec.Breakdown.CarbonCreditValue,
		CarbonCredited: rec.Breakdown.CarbonReductionKg,
	}, nil
}

// PurchaseResult reports a completed credit purchase.
type PurchaseResult struct {
	NewBalance     float64 `json:"new_balance"`
	CountPurchased int     `json:"count_purchased"`
	TotalCost      float64 `json:"total_cost"`
}

// PurchaseCredits buys the carbon credits backing the given records. All
// records are validated and the buyer's balance checked before anything
// mutates; a failure anywhere rejects the purchase in full.
func (s *Service) PurchaseCredits(ctx context.Context, caller Caller, recordIDs []string) (*PurchaseResult, error) {
	if err := s.authorize(caller, OpPurchase); err != nil {
		return nil, err
	}
	if len(recordIDs) == 0 {
		return nil, fmt.Errorf("%w: record_ids is required", ErrValidation)
	}

	seen := make(map[string]bool, len(recordIDs))
	ids := make([]string, 0, len(recordIDs))
	for _, id := range recordIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: empty record id", ErrValidation)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	lockKeys := append([]string{walletKey(caller.ID)}, ids...)
	unlock := s.locks.Acquire(lockKeys...)
	defer unlock()

	// Validate everything before any mutation.
	recs := make([]*WasteRecord, 0, len(ids))
	var total float64
	for _, id := range ids {
		rec, err := s.records.Get(id)
		if err != nil {
			return nil, err
		}
		if rec.MRVStatus != MRVVerified {
			return nil, fmt.Errorf("%w: record %s is not mrv-verified", ErrInvalidState, id)
		}
		if rec.PurchaserID != "" {
			return nil, fmt.Errorf("%w: record %s already purchased", ErrInvalidState, id)
		}
		recs = append(recs, rec)
		total += rec.Breakdown.CarbonCreditValue
	}

	if err := s.wallets.Ensure(caller.ID); err != nil {
		return nil, err
	}
	acct, err := s.wallets.Get(caller.ID)
	if err != nil {
		return nil, err
	}
	if acct.Balance < total {
		return nil, fmt.Errorf("%w: cost %.2f exceeds balance %.2f", ErrInsufficientFunds, total, acct.Balance)
	}

	newBalance, err := s.wallets.Debit(caller.ID, total)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		rec.PurchaserID = caller.ID
		if err := s.records.Update(rec); err != nil {
			return nil, err
		}
	}

	if _, err := s.appendAudit(audit.LogEntry{
		Event:     audit.EventCreditsPurchased,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		Detail:    fmt.Sprintf("count=%d total=%.2f", len(recs), total),
	}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AddCreditsPurchased(len(recs))
	}

	s.logger.Info("credits purchased",
		slog.String("buyer_id", caller.ID),
		slog.Int("count", len(recs)),
		slog.Float64("total", total))

	return &PurchaseResult{
		NewBalance:     newBalance,
		CountPurchased: len(recs),
		TotalCost:      total,
	}, nil
}

// GetWallet returns the caller's own balance and carbon holdings.
func (s *Service) GetWallet(ctx context.Context, caller Caller) (*wallet.Account, error) {
	if err := s.authorize(caller, OpWallet); err != nil {
		return nil, err
	}
	if err := s.wallets.Ensure(caller.ID); err != nil {
		return nil, err
	}
	return s.wallets.Get(caller.ID)
}

// GetHistory lists the records visible to the caller, oldest first. Verifier
// identity and timing are redacted unless the caller holds an mrv-privileged
// role.
func (s *Service) GetHistory(ctx context.Context, caller Caller, filter RecordFilter) ([]*WasteRecord, error) {
	if err := s.authorize(caller, OpHistory); err != nil {
		return nil, err
	}

	recs, err := s.records.List(filter)
	if err != nil {
		return nil, err
	}

	visible := make([]*WasteRecord, 0, len(recs))
	for _, rec := range recs {
		if !visibleTo(caller, rec) {
			continue
		}
		if !PrivilegedMRV(caller.Role) {
			rec.VerifierID = ""
			rec.VerifiedAt = nil
		}
		visible = append(visible, rec)
	}
	return visible, nil
}

// visibleTo scopes history by the caller's place in the supply chain.
func visibleTo(caller Caller, rec *WasteRecord) bool {
	switch caller.Role {
	case user.RoleCitizen, user.RoleFPO:
		return rec.CitizenID == caller.ID
	case user.RoleAggregator:
		return rec.Status == StatusPendingPickup || rec.AggregatorID == caller.ID
	case user.RoleProcessor:
		return rec.Status == StatusInTransit || rec.ProcessorID == caller.ID
	case user.RoleCSRPartner, user.RoleEPRPartner, user.RoleCarbonBuyer:
		return rec.MRVStatus == MRVVerified || rec.PurchaserID == caller.ID
	case user.RoleRegulator, user.RoleStateAdmin, user.RoleMunicipalAdmin, user.RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// GetAuditLog returns recent audit entries, newest first.
func (s *Service) GetAuditLog(ctx context.Context, caller Caller, limit int) ([]*audit.Entry, error) {
	if err := s.authorize(caller, OpAuditLog); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	return s.audit.Recent(limit)
}

// DashboardStats is the admin reporting snapshot.
type DashboardStats struct {
	TotalRecords    int                     `json:"total_records"`
	ByStatus        map[Status]int          `json:"by_status"`
	CreditsIssued   int                     `json:"credits_issued"`
	WalletsTotal    float64                 `json:"wallets_total"`
	PoolBalances    map[wallet.Rail]float64 `json:"pool_balances"`
	RegisteredUsers int                     `json:"registered_users"`
}

// Dashboard aggregates system-wide counters for admin and regulator views.
func (s *Service) Dashboard(ctx context.Context, caller Caller) (*DashboardStats, error) {
	if err := s.authorize(caller, OpDashboard); err != nil {
		return nil, err
	}

	recs, err := s.records.List(RecordFilter{})
	if err != nil {
		return nil, err
	}
	byStatus := make(map[Status]int)
	for _, rec := range recs {
		byStatus[rec.Status]++
	}

	issued, err := s.registry.Count()
	if err != nil {
		return nil, err
	}
	walletsTotal, err := s.wallets.TotalBalance()
	if err != nil {
		return nil, err
	}
	userCount, err := s.users.Count()
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalRecords:    len(recs),
		ByStatus:        byStatus,
		CreditsIssued:   issued,
		WalletsTotal:    walletsTotal,
		PoolBalances:    s.pool.Balances(),
		RegisteredUsers: userCount,
	}, nil
}

// RegisterUser creates an actor account and its zero-balance wallet, and
// leaves the registration audit trail. Password hashing happens in the
// transport layer; this receives the finished hash.
func (s *Service) RegisterUser(ctx context.Context, u *user.User) error {
	if u.Phone == "" || u.Name == "" {
		return fmt.Errorf("%w: phone and name are required", ErrValidation)
	}
	if !user.ValidRoles[u.Role] {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, u.Role)
	}

	if err := s.users.Create(u); err != nil {
		return err
	}
	if err := s.wallets.Ensure(u.ID); err != nil {
		return err
	}

	if _, err := s.appendAudit(audit.LogEntry{
		Event:     audit.EventFarmerCreated,
		ActorID:   u.ID,
		ActorRole: string(u.Role),
		Detail:    fmt.Sprintf("name=%s district=%s", u.Name, u.District),
	}); err != nil {
		return err
	}

	s.logger.Info("user registered",
		slog.String("user_id", u.ID),
		slog.String("role", string(u.Role)))
	return nil
}
