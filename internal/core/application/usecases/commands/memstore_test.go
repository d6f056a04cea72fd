package commands_test

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/shipper"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
)

// memStore is an in-memory store with conditional writes and all-or-nothing commits.
type memStore struct {
	mu       sync.Mutex
	orders   map[kernel.UUID]order.Snapshot
	shippers map[kernel.UUID]*shipper.Shipper

	// beforeFind and afterFind run around FindEligible, outside the lock.
	beforeFind func()
	afterFind  func()
	findErr    error
	getErr     map[kernel.UUID]error
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[kernel.UUID]order.Snapshot),
		shippers: make(map[kernel.UUID]*shipper.Shipper),
		getErr:   make(map[kernel.UUID]error),
	}
}

func (s *memStore) Create() commands.UoW {
	return &memUoW{store: s}
}

func (s *memStore) putOrder(o *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID()] = o.Snapshot()
}

func (s *memStore) putShipper(sh *shipper.Shipper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shippers[sh.ID()] = sh
}

func (s *memStore) storedOrder(id kernel.UUID) *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := order.RestoreOrder(s.orders[id])
	if err != nil {
		panic(err)
	}
	return o
}

func (s *memStore) storedShipper(id kernel.UUID) *shipper.Shipper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyShipper(s.shippers[id])
}

func copyShipper(sh *shipper.Shipper) *shipper.Shipper {
	c, err := shipper.RestoreShipper(sh.ID(), sh.Name(), sh.Phone(), sh.Location(), sh.Available(), sh.CurrentOrder())
	if err != nil {
		panic(err)
	}
	return c
}

type memState struct {
	orders   map[kernel.UUID]order.Snapshot
	shippers map[kernel.UUID]*shipper.Shipper
}

type memOp func(st *memState) error

type memUoW struct {
	store  *memStore
	began  bool
	staged []memOp
}

func (u *memUoW) Begin(context.Context) error {
	u.began = true
	u.staged = nil
	return nil
}

func (u *memUoW) Commit(context.Context) error {
	ops := u.staged
	u.began = false
	u.staged = nil
	return u.store.apply(ops...)
}

func (u *memUoW) Rollback(context.Context) error {
	u.began = false
	u.staged = nil
	return nil
}

func (u *memUoW) OrderRepository() ports.OrderRepository {
	return memOrders{uow: u}
}

func (u *memUoW) ShipperRepository() ports.ShipperRepository {
	return memShippers{uow: u}
}

// write checks op against committed state now and again at commit.
func (u *memUoW) write(op memOp) error {
	if !u.began {
		return u.store.apply(op)
	}
	if err := u.store.check(op); err != nil {
		return err
	}
	u.staged = append(u.staged, op)
	return nil
}

func (s *memStore) apply(ops ...memOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &memState{orders: maps.Clone(s.orders), shippers: maps.Clone(s.shippers)}
	for _, op := range ops {
		if err := op(st); err != nil {
			return err
		}
	}
	s.orders, s.shippers = st.orders, st.shippers
	return nil
}

func (s *memStore) check(op memOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return op(&memState{orders: maps.Clone(s.orders), shippers: maps.Clone(s.shippers)})
}

type memOrders struct{ uow *memUoW }

func (r memOrders) Add(_ context.Context, o *order.Order) error {
	snap := o.Snapshot()
	return r.uow.write(func(st *memState) error {
		st.orders[snap.ID] = snap
		return nil
	})
}

func (r memOrders) Update(_ context.Context, o *order.Order, pre order.Precondition) error {
	snap := o.Snapshot()
	return r.uow.write(func(st *memState) error {
		cur, ok := st.orders[pre.ID]
		if !ok || cur.Status != pre.Status || cur.Version != pre.Version {
			return errs.NewConflictError("order", pre.ID)
		}
		st.orders[pre.ID] = snap
		return nil
	})
}

func (r memOrders) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.getErr[id]; err != nil {
		return nil, err
	}
	snap, ok := s.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id)
	}
	return order.RestoreOrder(snap)
}

func (r memOrders) FindEligible(_ context.Context, c ports.EligibleCriteria) ([]*order.Order, error) {
	s := r.uow.store
	if s.beforeFind != nil {
		s.beforeFind()
	}
	found, err := s.find(c)
	if err == nil && s.afterFind != nil {
		s.afterFind()
	}
	return found, err
}

func (s *memStore) find(c ports.EligibleCriteria) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}

	var found []*order.Order
	for _, snap := range s.orders {
		o, err := order.RestoreOrder(snap)
		if err != nil {
			return nil, err
		}
		if o.Status() != c.Status ||
			(c.EnteredBefore != nil && o.StatusChangedAt().After(*c.EnteredBefore)) ||
			(c.WithoutShipper && o.Shipper() != nil) ||
			(c.NotFlaggedOverdue && o.OverdueAt() != nil) {
			continue
		}
		found = append(found, o)
	}
	slices.SortFunc(found, func(a, b *order.Order) int {
		return cmp.Or(a.StatusChangedAt().Compare(b.StatusChangedAt()), a.ID().Compare(b.ID()))
	})
	if c.Limit > 0 && len(found) > c.Limit {
		found = found[:c.Limit]
	}
	return found, nil
}

type memShippers struct{ uow *memUoW }

func (r memShippers) Add(_ context.Context, sh *shipper.Shipper) error {
	c := copyShipper(sh)
	return r.uow.write(func(st *memState) error {
		st.shippers[c.ID()] = c
		return nil
	})
}

func (r memShippers) Get(_ context.Context, id kernel.UUID) (*shipper.Shipper, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shippers[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("shipper", id)
	}
	return copyShipper(sh), nil
}

func (r memShippers) GetAllAvailable(context.Context) ([]*shipper.Shipper, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var available []*shipper.Shipper
	for _, sh := range s.shippers {
		if sh.Available() {
			available = append(available, copyShipper(sh))
		}
	}
	slices.SortFunc(available, func(a, b *shipper.Shipper) int { return a.ID().Compare(b.ID()) })
	return available, nil
}

func (r memShippers) Claim(_ context.Context, shipperID, orderID kernel.UUID) error {
	return r.uow.write(func(st *memState) error {
		cur, ok := st.shippers[shipperID]
		if !ok {
			return errs.NewObjectNotFoundError("shipper", shipperID)
		}
		c := copyShipper(cur)
		if err := c.Claim(orderID); err != nil {
			return err
		}
		st.shippers[shipperID] = c
		return nil
	})
}

func (r memShippers) Release(_ context.Context, shipperID, orderID kernel.UUID) error {
	return r.uow.write(func(st *memState) error {
		cur, ok := st.shippers[shipperID]
		if !ok {
			return errs.NewObjectNotFoundError("shipper", shipperID)
		}
		c := copyShipper(cur)
		if err := c.Release(orderID); err != nil {
			return err
		}
		st.shippers[shipperID] = c
		return nil
	})
}

// memLedger keeps automation runs in memory.
type memLedger struct {
	mu   sync.Mutex
	runs []automation.Run
}

func (l *memLedger) Acquire(_ context.Context, run automation.Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, r := range l.runs {
		if r.Kind != run.Kind || r.Status != automation.RunRunning {
			continue
		}
		if r.IsLive(run.StartedAt) {
			return automation.ErrAlreadyRunning
		}
		l.runs[i] = r.Reclaim(run.StartedAt)
	}
	l.runs = append(l.runs, run)
	return nil
}

func (l *memLedger) Finish(_ context.Context, run automation.Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, r := range l.runs {
		if r.ID == run.ID {
			l.runs[i] = run
			return nil
		}
	}
	return errs.NewObjectNotFoundError("automation run", run.ID)
}

func (l *memLedger) ListRecent(_ context.Context, kind automation.Kind, limit int) ([]automation.Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []automation.Run
	for i := len(l.runs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if kind == "" || l.runs[i].Kind == kind {
			out = append(out, l.runs[i])
		}
	}
	return out, nil
}

func (l *memLedger) last(kind automation.Kind) automation.Run {
	runs, _ := l.ListRecent(context.Background(), kind, 1)
	if len(runs) == 0 {
		return automation.Run{}
	}
	return runs[0]
}

type staticSettings struct{ s automation.Settings }

func (p staticSettings) Current() automation.Settings { return p.s }

// memSettings is a settings repository shared by several replicas in a test.
type memSettings struct {
	mu       sync.Mutex
	versions []automation.Settings
}

func (r *memSettings) Latest(context.Context) (automation.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.versions) == 0 {
		return automation.Settings{}, errs.NewObjectNotFoundError("automation settings", "latest")
	}
	return r.versions[len(r.versions)-1], nil
}

func (r *memSettings) Save(_ context.Context, s automation.Settings, expectedVersion int64) (automation.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int64(len(r.versions)) != expectedVersion {
		return automation.Settings{}, errs.NewConflictError("automation settings", expectedVersion)
	}
	s.Version = expectedVersion + 1
	r.versions = append(r.versions, s)
	return s, nil
}
