// Package google reads the backing workbook from a Google Sheets
// spreadsheet using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"wastedash/internal/source"
)

// Config carries what the client needs; credentials come as inline JSON or
// a file path, whichever is set.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ source.Source = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte

	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
}

// Load fetches both master sheets. The two reads are independent API calls
// and run concurrently; either failure fails the load.
func (c *Client) Load(ctx context.Context) (source.Table, source.Table, error) {
	if c.svc == nil {
		return source.Table{}, source.Table{}, errors.New("sheets service not initialized")
	}

	var incoming, outgoing source.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := c.readSheet(gctx, source.IncomingSheet)
		if err != nil {
			return err
		}
		incoming = t
		return nil
	})
	g.Go(func() error {
		t, err := c.readSheet(gctx, source.OutgoingSheet)
		if err != nil {
			return err
		}
		outgoing = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return source.Table{}, source.Table{}, err
	}

	slog.InfoContext(ctx, "Loaded spreadsheet",
		"spreadsheet_id", c.spreadsheetID,
		"incoming_rows", len(incoming.Rows),
		"outgoing_rows", len(outgoing.Rows))
	return incoming, outgoing, nil
}

func (c *Client) readSheet(ctx context.Context, name string) (source.Table, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, name).Context(ctx).Do()
	if err != nil {
		return source.Table{}, fmt.Errorf("read sheet %s: %w", name, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = cells
	}
	return source.TableFromRows(name, rows)
}
