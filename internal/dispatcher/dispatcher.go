// Package dispatcher implements the teller session: it parses command lines,
// tracks which account is logged in, logs it out after a period of inactivity
// and turns transaction results into terminal text.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"github.com/koyif/atm/internal/domain"
	"github.com/koyif/atm/internal/service"
	"github.com/koyif/atm/pkg/logger"
	"strings"
	"sync"
	"time"
)

// ErrEnd is returned by Execute when the user asks to shut the terminal down.
var ErrEnd = errors.New("end of session")

var errNoSession = errors.New("no account is currently authorized")

type CommandNotFoundError struct {
	Verb string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command %q not found", e.Verb)
}

type transactionService interface {
	Authorize(ctx context.Context, accountID, pin string) error
	Deposit(ctx context.Context, accountID string, amount int64) (int64, error)
	Withdraw(ctx context.Context, accountID string, amount int64) (*domain.Withdrawal, error)
	Balance(ctx context.Context, accountID string) (int64, error)
	History(ctx context.Context, accountID string) ([]domain.HistoryRecord, error)
}

type handler func(ctx context.Context, args []string) (string, error)

type Dispatcher struct {
	mu         sync.Mutex
	txs        transactionService
	timer      Timer
	timeout    time.Duration
	location   *time.Location
	session    Session
	generation uint64
	commands   map[string]handler
}

type Option func(*Dispatcher)

// WithLocation sets the time zone history timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) {
		d.location = loc
	}
}

func New(txs transactionService, timer Timer, timeout time.Duration, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		txs:      txs,
		timer:    timer,
		timeout:  timeout,
		location: time.Local,
		session:  Unauthenticated(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.commands = map[string]handler{
		"help":      d.help,
		"authorize": d.authorize,
		"withdraw":  d.protected(d.withdraw),
		"deposit":   d.protected(d.deposit),
		"balance":   d.protected(d.balance),
		"history":   d.protected(d.history),
		"logout":    d.logout,
		"end":       d.end,
	}

	return d
}

func (d *Dispatcher) Session() Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// Execute runs one command line and returns the text for the terminal.
// Rejections are reported as text; only internal failures and ErrEnd are returned as errors.
func (d *Dispatcher) Execute(ctx context.Context, line string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.resetTimer()

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	verb, args := fields[0], fields[1:]

	h, ok := d.commands[strings.ToLower(verb)]
	if !ok {
		h = func(context.Context, []string) (string, error) {
			return "", &CommandNotFoundError{Verb: verb}
		}
	}

	out, err := h(ctx, args)
	if err != nil {
		if msg, ok := userMessage(err); ok {
			return msg, nil
		}
		return "", err
	}
	return out, nil
}

// Close cancels the inactivity timer and drops the session.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	d.timer.Stop()
	d.session = Unauthenticated()
}

func (d *Dispatcher) resetTimer() {
	d.generation++
	gen := d.generation
	d.timer.Reset(d.timeout, func() {
		d.expire(gen)
	})
}

// expire logs out silently. A callback from a timer that has since been reset is ignored.
func (d *Dispatcher) expire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation {
		return
	}
	if id, ok := d.session.AccountID(); ok {
		logger.Log.Info("session expired", logger.String("account_id", id), logger.Duration("timeout", d.timeout))
		d.session = Unauthenticated()
	}
}

func (d *Dispatcher) protected(next func(ctx context.Context, accountID string, args []string) (string, error)) handler {
	return func(ctx context.Context, args []string) (string, error) {
		id, ok := d.session.AccountID()
		if !ok {
			return "", domain.ErrAuthRequired
		}
		return next(ctx, id, args)
	}
}

func (d *Dispatcher) help(context.Context, []string) (string, error) {
	return HelpText, nil
}

func (d *Dispatcher) authorize(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", domain.ErrAuthFailed
	}
	accountID, pin := args[0], args[1]

	if err := d.txs.Authorize(ctx, accountID, pin); err != nil {
		return "", err
	}

	d.session = Authenticated(accountID)
	logger.Log.Info("session started", logger.String("account_id", accountID))
	return fmt.Sprintf(msgAuthorized, accountID), nil
}

func (d *Dispatcher) withdraw(ctx context.Context, accountID string, args []string) (string, error) {
	amount, err := amountArg(args)
	if err != nil {
		return "", err
	}

	w, err := d.txs.Withdraw(ctx, accountID, amount)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if w.Partial {
		b.WriteString(msgPartialDispense)
	}
	fmt.Fprintf(&b, msgDispensed, service.FormatMoney(w.Dispensed))
	b.WriteString("\n")
	if w.Overdrawn {
		fmt.Fprintf(&b, msgOverdraftFee, service.FormatMoney(w.Fee))
	}
	fmt.Fprintf(&b, msgBalance, service.FormatMoney(w.Balance))
	return b.String(), nil
}

func (d *Dispatcher) deposit(ctx context.Context, accountID string, args []string) (string, error) {
	amount, err := amountArg(args)
	if err != nil {
		return "", err
	}

	balance, err := d.txs.Deposit(ctx, accountID, amount)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(msgBalance, service.FormatMoney(balance)), nil
}

func (d *Dispatcher) balance(ctx context.Context, accountID string, _ []string) (string, error) {
	balance, err := d.txs.Balance(ctx, accountID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(msgBalance, service.FormatMoney(balance)), nil
}

func (d *Dispatcher) history(ctx context.Context, accountID string, _ []string) (string, error) {
	records, err := d.txs.History(ctx, accountID)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return msgNoHistory, nil
	}

	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = fmt.Sprintf("%s %s %s",
			r.CreatedAt.In(d.location).Format(historyTimeLayout),
			service.FormatMoney(r.Amount),
			service.FormatMoney(r.Balance),
		)
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) logout(context.Context, []string) (string, error) {
	id, ok := d.session.AccountID()
	if !ok {
		return "", errNoSession
	}

	d.session = Unauthenticated()
	logger.Log.Info("session ended", logger.String("account_id", id))
	return fmt.Sprintf(msgLoggedOut, id), nil
}

func (d *Dispatcher) end(context.Context, []string) (string, error) {
	return "", ErrEnd
}

func amountArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, domain.ErrInvalidAmount
	}
	return service.ParseAmount(args[0])
}

func userMessage(err error) (string, bool) {
	var notFound *CommandNotFoundError
	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf(msgCommandNotFound, notFound.Verb), true
	case errors.Is(err, domain.ErrAuthRequired):
		return msgAuthRequired, true
	case errors.Is(err, domain.ErrAuthFailed):
		return msgAuthFailed, true
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrBalanceOverflow):
		return msgInvalidAmount, true
	case errors.Is(err, domain.ErrCashPoolEmpty):
		return msgCashPoolEmpty, true
	case errors.Is(err, domain.ErrAlreadyOverdrawn):
		return msgAlreadyOverdrawn, true
	case errors.Is(err, errNoSession):
		return msgNoSession, true
	}
	return "", false
}
