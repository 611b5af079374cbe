package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"zwift-team-view/domain"
	"zwift-team-view/repositories"
)

// Lists the samples recorded by the team view, e.g.
// go run ./tools -db data/samples -prefix sample:<session>:101:
func main() {
	dbPath := flag.String("db", "data/samples", "Path to badger DB")
	prefix := flag.String("prefix", "sample:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Session", "Participant", "World time", "Power", "HR", "Cadence", "Distance", "Speed", "Time", "At"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var sample repositories.DiskSample
				if err := json.Unmarshal(v, &sample); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}
				table.Append(toRow(sample))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func toRow(s repositories.DiskSample) []string {
	session := s.Session.String()
	if len(session) > 8 {
		session = session[:8]
	}
	return []string{
		session,
		s.ParticipantID,
		strconv.FormatInt(s.WorldTime, 10),
		orUnknown(s.Power, strconv.Itoa),
		orUnknown(s.HeartRate, strconv.Itoa),
		orUnknown(s.Cadence, strconv.Itoa),
		orUnknown(s.DistanceMeters, domain.FormatDistance),
		orUnknown(s.SpeedMetersPerSecond, domain.FormatSpeed),
		orUnknown(s.ElapsedSeconds, domain.FormatElapsed),
		s.At.Format("15:04:05.000"),
	}
}

func orUnknown[T any](v *T, format func(T) string) string {
	if v == nil {
		return domain.Unknown
	}
	return format(lo.FromPtr(v))
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		// A crashed writer left the value log dirty: let a write open truncate it, then reopen read-only.
		repairOpts := badger.DefaultOptions(path).
			WithLogger(nil).WithBypassLockGuard(true)
		repaired, err := badger.Open(repairOpts)
		if err != nil {
			return nil, fmt.Errorf("repair failed: %w", err)
		}
		_ = repaired.Close()
		return badger.Open(opts)
	}
	return db, err
}
