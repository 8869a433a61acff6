package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/export"
)

// mockPublisher records what would be sent to the spreadsheet
type mockPublisher struct {
	published []export.Schedule
	sheetID   string
	err       error
}

func (m *mockPublisher) PublishSchedule(ctx context.Context, spreadsheetID string, s export.Schedule) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sheetID = spreadsheetID
	m.published = append(m.published, s)
	return "v1 tab", nil
}

func TestExportVersion_XLSX(t *testing.T) {
	store, result := generatedStore(t)
	out := filepath.Join(t.TempDir(), "exports", "week.xlsx")

	paths, err := ExportVersion(context.Background(), store, nil, zap.NewNop(), ExportRequest{
		Version: result.Version.Version,
		Format:  FormatXLSX,
		Out:     out,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{out}, paths)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "2025-W10"}, f.GetSheetList())
}

func TestExportVersion_ICS(t *testing.T) {
	store, result := generatedStore(t)
	dir := t.TempDir()

	paths, err := ExportVersion(context.Background(), store, nil, zap.NewNop(), ExportRequest{
		Version:  result.Version.Version,
		Format:   FormatICS,
		Out:      dir,
		Location: time.UTC,
	})

	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Contains(t, string(data), "BEGIN:VEVENT")
	}
}

func TestExportVersion_Sheets(t *testing.T) {
	ctx := context.Background()
	store, result := generatedStore(t)
	require.NoError(t, PublishVersion(ctx, store, zap.NewNop(), result.Version.Version))
	publisher := &mockPublisher{}

	out, err := ExportVersion(ctx, store, publisher, zap.NewNop(), ExportRequest{
		Version:       result.Version.Version,
		Format:        FormatSheets,
		SpreadsheetID: "sheet-123",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"v1 tab"}, out)
	assert.Equal(t, "sheet-123", publisher.sheetID)
	require.Len(t, publisher.published, 1)
	sent := publisher.published[0]
	assert.Equal(t, model.StatusPublished, sent.Version.Status)
	assert.Len(t, sent.Entries, 3)
	assert.Len(t, sent.Employees, 2)
}

func TestExportVersion_SheetsFailure(t *testing.T) {
	store, result := generatedStore(t)
	require.NoError(t, PublishVersion(context.Background(), store, zap.NewNop(), result.Version.Version))
	publisher := &mockPublisher{err: errors.New("quota exceeded")}

	_, err := ExportVersion(context.Background(), store, publisher, zap.NewNop(), ExportRequest{
		Version:       result.Version.Version,
		Format:        FormatSheets,
		SpreadsheetID: "sheet-123",
	})

	assert.ErrorContains(t, err, "quota exceeded")
}

func TestExportVersion_SheetsRejectsDraft(t *testing.T) {
	store, result := generatedStore(t)
	publisher := &mockPublisher{}

	_, err := ExportVersion(context.Background(), store, publisher, zap.NewNop(), ExportRequest{
		Version:       result.Version.Version,
		Format:        FormatSheets,
		SpreadsheetID: "sheet-123",
	})

	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Empty(t, publisher.published)
}

func TestExportVersion_RejectsBadRequests(t *testing.T) {
	store, result := generatedStore(t)
	v := result.Version.Version

	tests := []struct {
		name      string
		publisher SchedulePublisher
		req       ExportRequest
	}{
		{name: "unknown format", req: ExportRequest{Version: v, Format: "pdf", Out: "x.pdf"}},
		{name: "xlsx without path", req: ExportRequest{Version: v, Format: FormatXLSX}},
		{name: "ics without directory", req: ExportRequest{Version: v, Format: FormatICS}},
		{name: "sheets not configured", req: ExportRequest{Version: v, Format: FormatSheets, SpreadsheetID: "s"}},
		{name: "sheets without id", publisher: &mockPublisher{}, req: ExportRequest{Version: v, Format: FormatSheets}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExportVersion(context.Background(), store, tt.publisher, zap.NewNop(), tt.req)
			assert.ErrorIs(t, err, model.ErrInvalidInput)
		})
	}
}

func TestExportVersion_UnknownVersion(t *testing.T) {
	store := newMockStore(shopInputs())

	_, err := ExportVersion(context.Background(), store, nil, zap.NewNop(), ExportRequest{
		Version: 9,
		Format:  FormatXLSX,
		Out:     filepath.Join(t.TempDir(), "out.xlsx"),
	})

	assert.ErrorIs(t, err, model.ErrVersionNotFound)
}
