// Package stimulus loads the digit-triplet stimulus table.
//
// The table is read once before scheduling and is read-only afterwards. It is
// plain CSV with a fixed header:
//
//	block,digit_l,digit_c,digit_r,is_target,is_order
//
// block groups rows into stimulus sets; one set backs one task block.
package stimulus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// Row is one stimulus-table entry.
type Row struct {
	// Block is the stimulus group id (a positive integer).
	Block int

	// DigitL, DigitC, DigitR are the displayable digit values. Kept as
	// strings: the presenter never does arithmetic on them.
	DigitL string
	DigitC string
	DigitR string

	// IsTarget is 0 or 1 (control-condition correctness key).
	IsTarget int

	// IsOrder is -1, 0 or 1 (order-condition correctness key).
	IsOrder int
}

// Table is the loaded, validated stimulus table.
type Table struct {
	rows   []Row
	groups map[int][]Row
}

var header = []string{"block", "digit_l", "digit_c", "digit_r", "is_target", "is_order"}

// Load reads a stimulus table from a CSV file.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stimulus file: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("stimulus file %s: %w", path, err)
	}
	return t, nil
}

// Read parses a stimulus table from r.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(head) != len(header) {
		return nil, fmt.Errorf("header has %d columns, want %d", len(head), len(header))
	}
	for i, name := range header {
		if head[i] != name {
			return nil, fmt.Errorf("header column %d is %q, want %q", i+1, head[i], name)
		}
	}

	t := &Table{groups: make(map[int][]Row)}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.rows = append(t.rows, row)
		t.groups[row.Block] = append(t.groups[row.Block], row)
	}

	if len(t.rows) == 0 {
		return nil, fmt.Errorf("stimulus table is empty")
	}
	return t, nil
}

func parseRow(rec []string) (Row, error) {
	block, err := strconv.Atoi(rec[0])
	if err != nil || block <= 0 {
		return Row{}, fmt.Errorf("invalid block id %q", rec[0])
	}
	isTarget, err := strconv.Atoi(rec[4])
	if err != nil || (isTarget != 0 && isTarget != 1) {
		return Row{}, fmt.Errorf("is_target must be 0 or 1, got %q", rec[4])
	}
	isOrder, err := strconv.Atoi(rec[5])
	if err != nil || isOrder < -1 || isOrder > 1 {
		return Row{}, fmt.Errorf("is_order must be -1, 0 or 1, got %q", rec[5])
	}
	return Row{
		Block:    block,
		DigitL:   rec[1],
		DigitC:   rec[2],
		DigitR:   rec[3],
		IsTarget: isTarget,
		IsOrder:  isOrder,
	}, nil
}

// Group returns a copy of the rows belonging to one stimulus group.
func (t *Table) Group(block int) []Row {
	rows := t.groups[block]
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

// GroupIDs returns the sorted list of stimulus group ids present.
func (t *Table) GroupIDs() []int {
	ids := make([]int, 0, len(t.groups))
	for id := range t.groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the total number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Validate checks that the table can back a run of nBlocks blocks of nTrials
// trials: group ids 1..nBlocks must each hold exactly nTrials rows.
//
// This is a configuration error check and runs before any stimulus is shown.
func (t *Table) Validate(nBlocks, nTrials int) error {
	for id := 1; id <= nBlocks; id++ {
		rows, ok := t.groups[id]
		if !ok {
			return fmt.Errorf("stimulus group %d missing (need groups 1..%d)", id, nBlocks)
		}
		if len(rows) != nTrials {
			return fmt.Errorf("stimulus group %d has %d rows, want %d", id, len(rows), nTrials)
		}
	}
	return nil
}
