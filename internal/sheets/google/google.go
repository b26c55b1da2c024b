package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tally/internal/core"
	applog "tally/internal/log"
	ports "tally/internal/sheets"
)

// Config selects the spreadsheet tab and the service account used to write it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Mirror writes the full expense list into one sheet tab, replacing what
// was there.
type Mirror struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger

	attempts   uint
	retryDelay time.Duration
}

var _ ports.Mirror = (*Mirror)(nil)

// New builds a Mirror authenticated with a service account. Inline JSON
// wins over a file path; GOOGLE_APPLICATION_CREDENTIALS is the last resort.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Mirror, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config, logger *applog.Logger) *Mirror {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	name := strings.TrimSpace(cfg.SheetName)
	if name == "" {
		name = "Expenses"
	}
	return &Mirror{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     name,
		logger:        logger.WithComponent(applog.ComponentSheets),
		attempts:      3,
		retryDelay:    30 * time.Second,
	}
}

func credentials(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.ServiceAccountJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(cfg.ServiceAccountFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// Replace clears the tab and writes the header plus one row per expense.
func (m *Mirror) Replace(ctx context.Context, expenses []core.Expense) error {
	if m.svc == nil {
		return errors.New("sheets service not initialized")
	}
	clearRange := fmt.Sprintf("%s!A:E", m.sheetName)
	err := m.do(ctx, func() error {
		_, err := m.svc.Spreadsheets.Values.Clear(m.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	writeRange := fmt.Sprintf("%s!A1", m.sheetName)
	vr := &gsheet.ValueRange{Values: ports.Rows(expenses)}
	err = m.do(ctx, func() error {
		_, err := m.svc.Spreadsheets.Values.Update(m.spreadsheetID, writeRange, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", writeRange, err)
	}

	m.logger.InfoContext(ctx, "Mirrored expenses to sheet",
		applog.FieldOperation, applog.OpMirror, applog.FieldCount, len(expenses), "sheet", m.sheetName)
	return nil
}

func (m *Mirror) do(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			if retryable(err) {
				m.logger.WarnContext(ctx, "Sheets request throttled, will retry", applog.FieldError, err)
				return true
			}
			return false
		}),
		retry.Attempts(m.attempts),
		retry.Delay(m.retryDelay),
		retry.LastErrorOnly(true),
	)
}

// retryable reports rate limiting and server-side failures.
func retryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
}
