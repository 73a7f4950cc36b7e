// Package shell dispatches the commands accepted by the command line tool.
package shell

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cobaltdb/sqlitescan/pkg/engine"
)

// Run executes one command against db and writes its output to w.
//
//	.dbinfo      page size and number of tables
//	.tables      table names separated by spaces
//	select ...   one line per row, values separated by |
//
// Unknown commands print "Invalid command: <command>" and are not errors.
func Run(ctx context.Context, db *engine.DB, command string, w io.Writer) error {
	command = strings.TrimSpace(command)

	switch {
	case command == ".dbinfo":
		info := db.Info()
		_, err := fmt.Fprintf(w, "database page size: %d\nnumber of tables: %d\n", info.PageSize, info.TableCount)
		return err

	case command == ".tables":
		_, err := fmt.Fprintln(w, strings.Join(db.Tables(), " "))
		return err

	case isSelect(command):
		rows, err := db.Query(ctx, command)
		if err != nil {
			return err
		}
		defer rows.Close()
		return WriteRows(w, rows)

	default:
		_, err := fmt.Fprintf(w, "Invalid command: %s\n", command)
		return err
	}
}

// WriteRows prints each row with its values joined by |
func WriteRows(w io.Writer, rows *engine.Rows) error {
	var sb strings.Builder
	for rows.Next() {
		sb.Reset()
		for i, v := range rows.Values() {
			if i > 0 {
				sb.WriteByte('|')
			}
			sb.WriteString(v.String())
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func isSelect(command string) bool {
	fields := strings.Fields(command)
	return len(fields) > 0 && strings.EqualFold(fields[0], "select")
}
