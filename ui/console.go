// Package ui renders the roster to a terminal. It only reads snapshots and never
// modifies participant state.
package ui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
)

const clearScreen = "\033[H\033[2J"

var _ contract.Worker = (*ConsoleWorker)(nil)

// ConsoleWorker redraws the roster table at a fixed interval.
type ConsoleWorker struct {
	log      *slog.Logger
	roster   contract.RosterReader
	out      io.Writer
	interval time.Duration
}

func NewConsoleWorker(log *slog.Logger, roster contract.RosterReader, out io.Writer, interval time.Duration) *ConsoleWorker {
	return &ConsoleWorker{log: log, roster: roster, out: out, interval: interval}
}

func (w *ConsoleWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var buf bytes.Buffer
			buf.WriteString(clearScreen)
			Render(&buf, w.roster.Snapshot())
			if _, err := w.out.Write(buf.Bytes()); err != nil {
				return fmt.Errorf("console output: %w", err)
			}
		}
	}
}

// Render writes one row per participant, in roster order. Participants whose
// profile is not resolved yet are listed with the placeholder name.
func Render(out io.Writer, views []domain.ParticipantView) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Rider", "Power", "HR", "Cadence", "Distance", "Speed", "Time"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, view := range views {
		table.Append([]string{
			string(view.ID),
			riderName(view),
			metric(view.Display.Power, "W"),
			metric(view.Display.HeartRate, "bpm"),
			metric(view.Display.Cadence, "rpm"),
			metric(view.Display.Distance, "km"),
			metric(view.Display.Speed, "km/h"),
			metric(view.Display.Time, ""),
		})
	}
	table.Render()
}

func riderName(view domain.ParticipantView) string {
	if !view.ProfileReady {
		return color.Gray.Render(view.Profile.DisplayName)
	}
	return color.New(color.FgGreen, color.OpBold).Render(view.Profile.DisplayName)
}

func metric(value, unit string) string {
	if value == domain.Unknown {
		return color.Gray.Render(value)
	}
	if unit == "" {
		return value
	}
	return value + " " + unit
}
