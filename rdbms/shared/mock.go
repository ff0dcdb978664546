package shared

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/relloyd/eltpipe/constants"
)

// MockRow is one row of a simulated table keyed by column name.
type MockRow map[string]interface{}

// MockConnection is an in-memory stand-in for a Snowflake connection.
// It records every statement and simulates the staging table so that tests can assert on the outcome of
// create table and merge statements with commit and rollback semantics.
// Merge statements are parsed for their join keys, update set list and insert column list.
// Statements other than create table and merge are recorded and otherwise ignored.
type MockConnection struct {
	mu              sync.Mutex
	DbType          string
	KeyCols         []string
	OtherCols       []string
	Source          []MockRow
	Target          map[string]MockRow // committed rows keyed by their key column values
	TargetExists    bool
	Statements      []string
	FailAtStatement int // fail the Nth statement executed (1-based); 0 disables
	FailOnCommit    bool
	Commits         int
	Rollbacks       int
	Closed          bool
	execCount       int
}

type mockState struct {
	exists bool
	rows   map[string]MockRow
}

type mockResult struct {
	rows int64
}

func (r mockResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (r mockResult) RowsAffected() (int64, error) {
	return r.rows, nil
}

// NewMockConnection returns a mock Snowflake connection whose simulated tables use the supplied key and
// other (value) columns.
func NewMockConnection(keyCols []string, otherCols []string) *MockConnection {
	return &MockConnection{
		DbType:    constants.ConnectionTypeSnowflake,
		KeyCols:   keyCols,
		OtherCols: otherCols,
		Target:    make(map[string]MockRow),
	}
}

// Connector:

func (c *MockConnection) Begin() (Transacter, error) {
	return c.BeginTx(context.Background())
}

func (c *MockConnection) BeginTx(ctx context.Context) (Transacter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed {
		return nil, sql.ErrConnDone
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &MockTx{conn: c, state: mockState{exists: c.TargetExists, rows: copyRows(c.Target)}}, nil
}

func (c *MockConnection) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

// ExecContext runs query outside of a transaction i.e. in autocommit mode.
func (c *MockConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := mockState{exists: c.TargetExists, rows: copyRows(c.Target)}
	r, err := c.exec(ctx, query, &s)
	if err != nil {
		return nil, err
	}
	c.TargetExists = s.exists
	c.Target = s.rows
	return r, nil
}

func (c *MockConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
}

// Reopen clears the closed flag so the mock can be handed out again.
func (c *MockConnection) Reopen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = false
}

func (c *MockConnection) GetType() string {
	return c.DbType
}

// TargetRows returns a copy of the committed target rows sorted by key.
func (c *MockConnection) TargetRows() []MockRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.Target))
	for k := range c.Target {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	retval := make([]MockRow, len(keys))
	for idx, k := range keys {
		retval[idx] = copyRow(c.Target[k])
	}
	return retval
}

// GetStatements returns a copy of the statements executed so far.
func (c *MockConnection) GetStatements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Statements...)
}

// exec records query and applies it to state s.
// The caller must hold c.mu.
func (c *MockConnection) exec(ctx context.Context, query string, s *mockState) (Result, error) {
	if c.Closed {
		return nil, sql.ErrConnDone
	}
	c.execCount++
	c.Statements = append(c.Statements, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.FailAtStatement > 0 && c.execCount == c.FailAtStatement {
		return nil, fmt.Errorf("mock failure at statement %v: %v", c.execCount, query)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(q, "create table if not exists"):
		s.exists = true
		return mockResult{}, nil
	case strings.HasPrefix(q, "merge into"):
		if !s.exists {
			return nil, fmt.Errorf("object does not exist or not authorized: %v", query)
		}
		return c.merge(query, s)
	}
	return mockResult{}, nil
}

var (
	reMockMergeOn     = regexp.MustCompile(`(?i) on (.+?)(?: when |$)`)
	reMockUpdateSet   = regexp.MustCompile(`(?i) when matched then update set (.+?)(?: when |$)`)
	reMockInsertCols  = regexp.MustCompile(`(?i) when not matched then insert \((.+?)\) values`)
	reMockAssignment  = regexp.MustCompile(`(?:tgt\.)?("(?:[^"]|"")+"|\w+) = src\.("(?:[^"]|"")+"|\w+)`)
	reMockIdentifiers = regexp.MustCompile(`"(?:[^"]|"")+"|\w+`)
)

// mockMerge holds the parts of a merge statement that the mock applies.
type mockMerge struct {
	keys    []string
	updates [][2]string // target column, source column
	inserts []string
}

func unquoteMockIdentifier(s string) string {
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) > 1 {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}

// parseMockMerge reads the join keys, the update set list and the insert column list from query.
func parseMockMerge(query string) (*mockMerge, error) {
	m := &mockMerge{}
	on := reMockMergeOn.FindStringSubmatch(query)
	if on == nil {
		return nil, fmt.Errorf("mock is unable to find the join condition in merge: %v", query)
	}
	for _, a := range reMockAssignment.FindAllStringSubmatch(on[1], -1) {
		if a[1] != a[2] {
			return nil, fmt.Errorf("mock only supports joins on equal column names, got %v = %v", a[1], a[2])
		}
		m.keys = append(m.keys, unquoteMockIdentifier(a[1]))
	}
	if set := reMockUpdateSet.FindStringSubmatch(query); set != nil {
		for _, a := range reMockAssignment.FindAllStringSubmatch(set[1], -1) {
			m.updates = append(m.updates, [2]string{unquoteMockIdentifier(a[1]), unquoteMockIdentifier(a[2])})
		}
	}
	if ins := reMockInsertCols.FindStringSubmatch(query); ins != nil {
		for _, col := range reMockIdentifiers.FindAllString(ins[1], -1) {
			m.inserts = append(m.inserts, unquoteMockIdentifier(col))
		}
	}
	return m, nil
}

// merge applies the Source rows to s.rows as described by query.
// The join columns must be the mock's key columns. Matched rows take the columns in the update set
// list and new keys are inserted with the columns in the insert list.
// Duplicate keys in Source fail the statement in the same way Snowflake rejects a nondeterministic merge.
func (c *MockConnection) merge(query string, s *mockState) (Result, error) {
	m, err := parseMockMerge(query)
	if err != nil {
		return nil, err
	}
	wantKeys := append([]string(nil), c.KeyCols...)
	gotKeys := append([]string(nil), m.keys...)
	sort.Strings(wantKeys)
	sort.Strings(gotKeys)
	if strings.Join(wantKeys, ",") != strings.Join(gotKeys, ",") {
		return nil, fmt.Errorf("merge joins on %v but the table key is %v", m.keys, c.KeyCols)
	}
	seen := make(map[string]struct{}, len(c.Source))
	for _, src := range c.Source {
		k := c.rowKey(src)
		if _, ok := seen[k]; ok {
			return nil, fmt.Errorf("duplicate row detected during DML action for key %v", k)
		}
		seen[k] = struct{}{}
	}
	var n int64
	for _, src := range c.Source {
		k := c.rowKey(src)
		if tgt, ok := s.rows[k]; ok { // if matched...
			if len(m.updates) == 0 {
				continue
			}
			for _, u := range m.updates {
				tgt[u[0]] = src[u[1]]
			}
			n++
		} else if len(m.inserts) > 0 { // else insert the listed columns...
			row := make(MockRow, len(m.inserts))
			for _, col := range m.inserts {
				row[col] = src[col]
			}
			s.rows[k] = row
			n++
		}
	}
	return mockResult{rows: n}, nil
}

func (c *MockConnection) rowKey(r MockRow) string {
	parts := make([]string, len(c.KeyCols))
	for idx, col := range c.KeyCols {
		parts[idx] = fmt.Sprint(r[col])
	}
	return strings.Join(parts, "|")
}

// Transacter:

// MockTx applies statements to a private copy of the committed state until Commit.
type MockTx struct {
	conn  *MockConnection
	state mockState
	done  bool
}

func (t *MockTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *MockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	if t.done {
		return nil, sql.ErrTxDone
	}
	return t.conn.exec(ctx, query, &t.state)
}

func (t *MockTx) Commit() error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	if t.conn.FailOnCommit {
		return fmt.Errorf("mock failure on commit")
	}
	t.done = true
	t.conn.TargetExists = t.state.exists
	t.conn.Target = t.state.rows
	t.conn.Commits++
	return nil
}

func (t *MockTx) Rollback() error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.conn.Rollbacks++
	return nil
}

func copyRows(m map[string]MockRow) map[string]MockRow {
	retval := make(map[string]MockRow, len(m))
	for k, v := range m {
		retval[k] = copyRow(v)
	}
	return retval
}

func copyRow(r MockRow) MockRow {
	retval := make(MockRow, len(r))
	for k, v := range r {
		retval[k] = v
	}
	return retval
}
