package sheetsclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/utils"
)

// Client wraps the Google Sheets API client
type Client struct {
	service *sheets.Service
	logger  *zap.Logger
}

// NewClient authorises against Google (running the consent flow if no usable token is stored
// for env) and returns a client limited to the spreadsheets scope
func NewClient(ctx context.Context, googleCfg *config.GoogleClientConfig, env string, logger *zap.Logger) (*Client, error) {
	oauthConfig, err := utils.SheetsOAuthConfig(googleCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	tokens, err := utils.NewTokenStore()
	if err != nil {
		return nil, err
	}
	src, err := utils.SheetsTokenSource(ctx, oauthConfig, tokens, env, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth token: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return NewWithService(service, logger), nil
}

// NewWithService wraps an already configured service
func NewWithService(service *sheets.Service, logger *zap.Logger) *Client {
	return &Client{service: service, logger: logger}
}

// FindSheet returns the tab with the given title, or nil
func (c *Client) FindSheet(ctx context.Context, spreadsheetID, title string) (*sheets.Sheet, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return sheet, nil
		}
	}
	return nil, nil
}

// CreateSheet adds a tab to the spreadsheet and returns its sheet ID
func (c *Client) CreateSheet(ctx context.Context, spreadsheetID, title string) (int64, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		}},
	}

	resp, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, fmt.Errorf("unexpected response from create sheet")
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// ClearSheet removes every value from a tab, keeping its formatting
func (c *Client) ClearSheet(ctx context.Context, spreadsheetID, title string) error {
	_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, title, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", title, err)
	}
	return nil
}

// WriteRows overwrites a tab's values starting at A1
func (c *Client) WriteRows(ctx context.Context, spreadsheetID, title string, rows [][]interface{}) error {
	_, err := c.service.Spreadsheets.Values.Update(spreadsheetID, title+"!A1", &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write rows to %s: %w", title, err)
	}
	return nil
}
