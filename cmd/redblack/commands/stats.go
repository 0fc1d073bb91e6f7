package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/redblack/internal/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/safeconv"
)

const notAvailable = "-"

// report gathers everything the statistics table shows.
type report struct {
	stats           rbtree.Stats
	compressedBytes int
	blackHeight     int
	violation       error
}

func collectReport(ctx context.Context, session *Session) (report, error) {
	stats, compressed, err := session.Stats(ctx)
	if err != nil {
		return report{}, err
	}

	blackHeight, violation, err := session.Check(ctx)
	if err != nil {
		return report{}, err
	}

	return report{
		stats:           stats,
		compressedBytes: compressed,
		blackHeight:     blackHeight,
		violation:       violation,
	}, nil
}

// writeStatsTable renders the report as a go-pretty table.
func writeStatsTable(w io.Writer, rep report) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})

	blackHeight := notAvailable
	if rep.violation == nil {
		blackHeight = humanize.Comma(int64(rep.blackHeight))
	}

	stats := rep.stats

	tbl.AppendRows([]table.Row{
		{"Delete mode", stats.DeleteMode.String()},
		{"Nodes", humanize.Comma(int64(stats.Nodes))},
		{"Height", humanize.Comma(int64(stats.Height))},
		{"Black height", blackHeight},
		{"Arena slots", humanize.Comma(int64(stats.ArenaSize))},
		{"Arena used", humanize.Comma(int64(stats.ArenaUsed))},
		{"Arena free", humanize.Comma(int64(stats.ArenaFree))},
		{"Arena memory", humanize.Bytes(safeconv.MustIntToUint64(stats.ArenaSize * rbtree.NodeBytes))},
		{"Compressed arena", humanize.Bytes(safeconv.MustIntToUint64(rep.compressedBytes))},
		{"Rotations", humanize.Comma(int64(stats.Rotations))},
		{"Color flips", humanize.Comma(int64(stats.ColorFlips))},
	})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}

	return nil
}
