package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/cobaltdb/sqlitescan/pkg/btree"
	"github.com/cobaltdb/sqlitescan/pkg/catalog"
	"github.com/cobaltdb/sqlitescan/pkg/query"
	"github.com/cobaltdb/sqlitescan/pkg/record"
)

// rowidPos marks a projection or predicate bound to the rowid
const rowidPos = -1

// Plan names the access path chosen for a query
type Plan string

const (
	PlanFullScan    Plan = "full-scan"
	PlanIndex       Plan = "index"
	PlanRowID       Plan = "rowid"
	PlanCountLeaves Plan = "count-leaves"
)

// selectPlan is a resolved SELECT: output columns, the filter and the path
type selectPlan struct {
	table   *catalog.TableDef
	columns []string
	project []int
	count   bool
	pred    *query.Predicate
	predPos int
	index   *catalog.IndexDef
	path    Plan
}

// executeSelect executes SELECT
func (db *DB) executeSelect(ctx context.Context, stmt *query.SelectStmt) (*Rows, error) {
	plan, err := db.planSelect(stmt)
	if err != nil {
		return nil, err
	}
	db.logger.DebugContext(ctx, "query plan",
		"table", plan.table.Name, "plan", string(plan.path), "index", indexName(plan.index))

	if plan.count {
		n, err := db.countRows(ctx, plan)
		if err != nil {
			return nil, err
		}
		return &Rows{
			columns: plan.columns,
			rows:    [][]record.Value{{record.Integer(int64(n))}},
			plan:    plan.path,
		}, nil
	}

	var out [][]record.Value
	err = db.matchingRows(ctx, plan, func(r btree.Row) error {
		out = append(out, plan.projectRow(r))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Rows{columns: plan.columns, rows: out, plan: plan.path}, nil
}

// planSelect resolves names against the catalog and picks an access path
func (db *DB) planSelect(stmt *query.SelectStmt) (*selectPlan, error) {
	table, err := db.catalog.Table(stmt.From.Name)
	if err != nil {
		return nil, err
	}
	plan := &selectPlan{table: table, path: PlanFullScan}

	for _, col := range stmt.Columns {
		switch c := col.(type) {
		case *query.StarExpr:
			for i, def := range table.Columns {
				plan.columns = append(plan.columns, def.Name)
				plan.project = append(plan.project, bindColumn(table, i))
			}
		case *query.Identifier:
			pos, err := resolveColumn(table, c.Name)
			if err != nil {
				return nil, err
			}
			plan.columns = append(plan.columns, c.Name)
			plan.project = append(plan.project, pos)
		case *query.FunctionCall:
			if !isCountStar(c) {
				return nil, fmt.Errorf("%w: function %s", ErrUnsupported, c.Name)
			}
			if len(stmt.Columns) != 1 {
				return nil, fmt.Errorf("%w: COUNT(*) mixed with columns", ErrUnsupported)
			}
			plan.count = true
			plan.columns = []string{"count(*)"}
		default:
			return nil, fmt.Errorf("%w: select item %T", ErrUnsupported, col)
		}
	}

	pred, err := stmt.Predicate()
	if err != nil {
		return nil, err
	}
	if pred == nil {
		if plan.count {
			plan.path = PlanCountLeaves
		}
		return plan, nil
	}

	pos, err := resolveColumn(table, pred.Column)
	if err != nil {
		return nil, err
	}
	if err := checkLiteral(table, pos, pred); err != nil {
		return nil, err
	}
	plan.pred = pred
	plan.predPos = pos

	if pred.Op != query.TokenEq {
		return plan, nil
	}
	switch {
	case pos == rowidPos:
		if pred.Literal.Kind() == record.KindInteger {
			plan.path = PlanRowID
		}
	default:
		if idx, ok := db.catalog.IndexFor(table.Name, table.Columns[pos].Name); ok {
			plan.index = idx
			plan.path = PlanIndex
		}
	}
	return plan, nil
}

// matchingRows passes every row satisfying the predicate to fn
func (db *DB) matchingRows(ctx context.Context, plan *selectPlan, fn func(btree.Row) error) error {
	types := plan.table.Types()
	root := plan.table.RootPageID

	switch plan.path {
	case PlanRowID:
		row, ok, err := db.walker.Lookup(ctx, root, plan.pred.Literal.Int(), types)
		if err != nil || !ok {
			return err
		}
		return fn(row)

	case PlanIndex:
		rowids, err := db.walker.ScanBound(ctx, plan.index.RootPageID, plan.pred.Literal)
		if err != nil {
			return fmt.Errorf("index %s: %w", plan.index.Name, err)
		}
		for _, id := range rowids {
			row, ok, err := db.walker.Lookup(ctx, root, id, types)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: index %s references missing rowid %d",
					btree.ErrCorruptTree, plan.index.Name, id)
			}
			if plan.matches(row) {
				if err := fn(row); err != nil {
					return err
				}
			}
		}
		return nil

	default:
		return db.walker.Each(ctx, root, types, func(row btree.Row) error {
			if plan.pred != nil && !plan.matches(row) {
				return nil
			}
			return fn(row)
		})
	}
}

// countRows counts every leaf cell, or the rows matching the predicate
func (db *DB) countRows(ctx context.Context, plan *selectPlan) (int, error) {
	if plan.pred == nil {
		return db.walker.Count(ctx, plan.table.RootPageID)
	}
	n := 0
	err := db.matchingRows(ctx, plan, func(btree.Row) error {
		n++
		return nil
	})
	return n, err
}

func (p *selectPlan) matches(row btree.Row) bool {
	return p.pred.Match(columnValue(row, p.predPos))
}

func (p *selectPlan) projectRow(row btree.Row) []record.Value {
	values := make([]record.Value, len(p.project))
	for i, pos := range p.project {
		values[i] = columnValue(row, pos)
	}
	return values
}

func columnValue(row btree.Row, pos int) record.Value {
	if pos == rowidPos {
		return record.Integer(row.RowID)
	}
	if pos < len(row.Values) {
		return row.Values[pos]
	}
	return record.Null()
}

// bindColumn maps column i to its value position, or to the rowid for an
// INTEGER PRIMARY KEY
func bindColumn(table *catalog.TableDef, i int) int {
	if table.Columns[i].IsRowIDAlias() {
		return rowidPos
	}
	return i
}

func resolveColumn(table *catalog.TableDef, name string) (int, error) {
	pos, err := table.ColumnIndex(name)
	if err == nil {
		return bindColumn(table, pos), nil
	}
	if strings.EqualFold(name, catalog.RowIDColumn) {
		return rowidPos, nil
	}
	return 0, err
}

// checkLiteral requires a numeric literal for integer and real columns and a
// string literal for text columns
func checkLiteral(table *catalog.TableDef, pos int, pred *query.Predicate) error {
	numeric := true
	if pos != rowidPos {
		numeric = table.Columns[pos].Type.Numeric()
	}
	if numeric == pred.Literal.IsNumeric() {
		return nil
	}
	want := "text"
	if numeric {
		want = "numeric"
	}
	return fmt.Errorf("%w: column %s needs a %s literal, got %s",
		ErrTypeMismatch, pred.Column, want, pred.Literal.Kind())
}

func isCountStar(fn *query.FunctionCall) bool {
	if fn.Name != "COUNT" || len(fn.Args) != 1 {
		return false
	}
	_, ok := fn.Args[0].(*query.StarExpr)
	return ok
}

func indexName(idx *catalog.IndexDef) string {
	if idx == nil {
		return ""
	}
	return idx.Name
}
