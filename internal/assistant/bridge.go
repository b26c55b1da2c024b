package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"

	"tally/internal/core"
	applog "tally/internal/log"
)

// Transcript messages used when the reply leaves a field empty or the call fails.
const (
	FailureNotice     = "Sorry, something went wrong while talking to the assistant. Please try again."
	DefaultUnclear    = "I'm not sure how to help with that. Try asking about your spending or describing a purchase."
	DefaultNeedDetail = "I couldn't find an expense in that message. Please include what you bought and how much it cost."
	DefaultNoAnswer   = "I don't have an answer for that yet."
)

var (
	// ErrBusy is returned when another Ask is still in flight.
	ErrBusy         = errors.New("assistant is busy")
	ErrEmptyMessage = errors.New("message is empty")
)

// Generator produces a JSON reply conforming to req.Schema.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// State is the slice of application state the bridge reads and mutates.
type State interface {
	Today() core.Date
	Visible() []core.Expense
	AddExpenses(ctx context.Context, drafts []core.Expense) ([]core.Expense, error)
	AppendMessage(msg core.ChatMessage)
}

// Bridge runs one assistant exchange at a time against a Generator.
type Bridge struct {
	gen    Generator
	state  State
	sem    *semaphore.Weighted
	logger *applog.Logger
}

func NewBridge(gen Generator, state State, logger *applog.Logger) *Bridge {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Bridge{
		gen:    gen,
		state:  state,
		sem:    semaphore.NewWeighted(1),
		logger: logger.WithComponent(applog.ComponentAssistant),
	}
}

// Ask records message as a user turn, consults the generator and records
// the outcome. It returns the entries appended after the user turn.
//
// Generator, decoding and validation failures are not returned: they are
// reported as a single system notice in the transcript and leave the
// expense set untouched. Only ErrEmptyMessage and ErrBusy are returned.
func (b *Bridge) Ask(ctx context.Context, message string) ([]core.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if !b.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer b.sem.Release(1)

	b.state.AppendMessage(core.ChatMessage{Role: core.RoleUser, Text: message})

	// Once issued, a call runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	reply, err := b.exchange(ctx, message)
	if err != nil {
		b.logger.ErrorContext(ctx, "Assistant exchange failed",
			applog.FieldOperation, applog.OpAsk, applog.FieldError, err)
		return b.emit(core.RoleSystem, FailureNotice), nil
	}

	b.logger.InfoContext(ctx, "Assistant replied",
		applog.FieldOperation, applog.OpAsk, applog.FieldIntent, reply.Intent, applog.FieldCount, len(reply.Expenses))

	switch reply.Intent {
	case IntentExpenseEntry:
		if len(reply.Expenses) == 0 {
			return b.emit(core.RoleAssistant, orDefault(reply.Clarification, DefaultNeedDetail)), nil
		}
		added, err := b.addAll(ctx, reply.Expenses)
		if err != nil {
			b.logger.ErrorContext(ctx, "Rejected assistant expenses",
				applog.FieldOperation, applog.OpAsk, applog.FieldError, err)
			return b.emit(core.RoleSystem, FailureNotice), nil
		}
		return b.emit(core.RoleAssistant, summarize(added)), nil
	case IntentQuestion:
		return b.emit(core.RoleAssistant, orDefault(reply.Answer, DefaultNoAnswer)), nil
	default:
		return b.emit(core.RoleAssistant, orDefault(reply.Clarification, DefaultUnclear)), nil
	}
}

func (b *Bridge) exchange(ctx context.Context, message string) (Reply, error) {
	req, err := NewRequest(b.state.Today(), b.state.Visible(), message)
	if err != nil {
		return Reply{}, err
	}
	raw, err := b.gen.Generate(ctx, req)
	if err != nil {
		return Reply{}, fmt.Errorf("generate: %w", err)
	}
	return DecodeReply(raw)
}

// addAll validates every parsed expense before adding any of them.
func (b *Bridge) addAll(ctx context.Context, parsed []ParsedExpense) ([]core.Expense, error) {
	today := b.state.Today()
	drafts := make([]core.Expense, len(parsed))
	for i, p := range parsed {
		d, err := p.Draft(today)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", i+1, err)
		}
		drafts[i] = d
	}
	return b.state.AddExpenses(ctx, drafts)
}

func (b *Bridge) emit(role core.Role, text string) []core.ChatMessage {
	msg := core.ChatMessage{Role: role, Text: text}
	b.state.AppendMessage(msg)
	return []core.ChatMessage{msg}
}

func summarize(added []core.Expense) string {
	var sb strings.Builder
	if len(added) == 1 {
		sb.WriteString("Added 1 expense:")
	} else {
		fmt.Fprintf(&sb, "Added %d expenses:", len(added))
	}
	for _, e := range added {
		fmt.Fprintf(&sb, "\n- %s (%s): %s", e.Description, e.Category, e.Amount.Format())
	}
	return sb.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
