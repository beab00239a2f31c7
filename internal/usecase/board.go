package usecase

import (
	"context"
	"sync"
	"time"

	"SwingDesk/internal/domain/models"
	"SwingDesk/pkg/cache"
	applogger "SwingDesk/pkg/logger"
)

const refreshLockKey = "swingdesk:lock:board_refresh"

// AccountView is one account's slice of the board.
type AccountView struct {
	Account     models.Account         `json:"account"`
	Decisions   []models.SetupDecision `json:"decisions"`
	LastUpdated time.Time              `json:"lastUpdated"`
}

// Invalidator drops memoized snapshots before a forced rescan.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// BoardService keeps the latest board and refreshes it on demand.
type BoardService struct {
	scanner  *Scanner
	sink     *DecisionSink
	symbols  []string
	accounts models.AccountCatalog
	maxAge   time.Duration
	log      *applogger.Logger
	lock     cache.Service
	inval    Invalidator
	now      func() time.Time

	mu    sync.RWMutex
	board models.Board
	has   bool
	gen   uint64

	refreshMu sync.Mutex

	subsMu sync.Mutex
	subs   map[int]func(models.Board)
	nextID int
}

type BoardOption func(*BoardService)

// WithRefreshLock coordinates refreshes across instances through a shared cache.
func WithRefreshLock(c cache.Service) BoardOption {
	return func(b *BoardService) { b.lock = c }
}

func WithInvalidator(i Invalidator) BoardOption {
	return func(b *BoardService) { b.inval = i }
}

func NewBoardService(scanner *Scanner, sink *DecisionSink, symbols []string, accounts models.AccountCatalog, maxAge time.Duration, l *applogger.Logger, opts ...BoardOption) *BoardService {
	if len(accounts) == 0 {
		accounts = models.DefaultAccounts
	}
	if l == nil {
		l = applogger.Nop()
	}
	b := &BoardService{
		scanner:  scanner,
		sink:     sink,
		symbols:  symbols,
		accounts: accounts,
		maxAge:   maxAge,
		log:      l.Component("board"),
		now:      time.Now,
		subs:     make(map[int]func(models.Board)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BoardService) Accounts() models.AccountCatalog { return b.accounts }

func (b *BoardService) Symbols() []string { return b.symbols }

// Snapshot returns the held board without refreshing.
func (b *BoardService) Snapshot() (models.Board, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.board, b.has
}

// Current returns the board, rescanning when none exists or it is older than maxAge.
func (b *BoardService) Current(ctx context.Context) models.Board {
	if board, ok := b.Snapshot(); ok && !b.stale(board) {
		return board
	}
	return b.Refresh(ctx)
}

func (b *BoardService) stale(board models.Board) bool {
	return b.maxAge > 0 && b.now().Sub(board.GeneratedAt) >= b.maxAge
}

// Refresh scans the universe and swaps in the new board. Concurrent callers
// wait for the running scan and share its result.
func (b *BoardService) Refresh(ctx context.Context) models.Board {
	b.mu.RLock()
	seen := b.gen
	b.mu.RUnlock()

	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()

	b.mu.RLock()
	board, gen := b.board, b.gen
	b.mu.RUnlock()
	if gen != seen {
		return board
	}

	if b.lock != nil {
		acquired, err := b.lock.TryLock(ctx, refreshLockKey, 2*time.Minute)
		if err == nil && !acquired {
			if held, ok := b.Snapshot(); ok {
				b.log.Debug("refresh held by another instance")
				return held
			}
		}
		if acquired {
			defer func() { _ = b.lock.Unlock(context.Background(), refreshLockKey) }()
		}
	}

	board = b.scanner.Scan(ctx, b.symbols)

	b.mu.Lock()
	b.board, b.has = board, true
	b.gen++
	b.mu.Unlock()

	if b.sink != nil {
		b.sink.SinkBoard(ctx, board, "scan")
	}
	b.notify(board)
	return board
}

// Rescan drops memoized snapshots and refreshes.
func (b *BoardService) Rescan(ctx context.Context) models.Board {
	if b.inval != nil {
		if err := b.inval.Invalidate(ctx); err != nil {
			b.log.Warn("invalidate snapshots", applogger.Error(err))
		}
	}
	return b.Refresh(ctx)
}

// Account returns account metadata and its bucket. Unknown ids fall back to the first account.
func (b *BoardService) Account(ctx context.Context, id int) AccountView {
	board := b.Current(ctx)
	acct := b.accounts.ByID(id)
	ds := board.Buckets[acct.ID]
	if ds == nil {
		ds = []models.SetupDecision{}
	}
	return AccountView{Account: acct, Decisions: ds, LastUpdated: board.GeneratedAt}
}

// Subscribe registers fn for every new board; the returned func unsubscribes.
func (b *BoardService) Subscribe(fn func(models.Board)) func() {
	b.subsMu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.subsMu.Unlock()

	return func() {
		b.subsMu.Lock()
		delete(b.subs, id)
		b.subsMu.Unlock()
	}
}

func (b *BoardService) notify(board models.Board) {
	b.subsMu.Lock()
	fns := make([]func(models.Board), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subsMu.Unlock()

	for _, fn := range fns {
		fn(board)
	}
}
