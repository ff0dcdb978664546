package components

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	om "github.com/cevaris/ordered_map"
	pkgerrors "github.com/pkg/errors"
	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/rdbms"
	"github.com/relloyd/eltpipe/rdbms/shared"
)

// ErrMissingDatabaseName is returned before any SQL is generated or executed when the upsert has no database.
var ErrMissingDatabaseName = errors.New("snowflake database name must be set to run the upsert")

type SnowflakeUpsertConfig struct {
	Log               logger.Logger     `errorTxt:"logger" mandatory:"yes"`
	Name              string            `errorTxt:"step name" mandatory:"yes"`
	Db                shared.Connector  `errorTxt:"Snowflake connection" mandatory:"yes"` // connection to target snowflake database abstracted via interface.
	RoleName          string            // optional role to use before merging.
	Warehouse         string            // optional warehouse to use before merging.
	DatabaseName      string            // database containing both source and target schemas.
	SourceSchemaTable rdbms.SchemaTable // the <schema>.<table> to read raw rows from.
	TargetSchemaTable rdbms.SchemaTable // the <schema>.<table> to create and merge into.
	TargetKeyCols     *om.OrderedMap    `errorTxt:"target key columns" mandatory:"yes"` // ordered map of: key = column name; value = column type
	TargetOtherCols   *om.OrderedMap    // ordered map of: key = column name; value = column type
	ConstraintName    string            // optional name of the primary key constraint.
}

var reColumnType = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*( ?\(\d+( ?, ?\d+)?\))?$`)

type upsertColumn struct {
	name    string // quoted
	colType string
}

// GetSqlSliceSnowflakeUpsert returns the SQL statements required to create the target schema and table if they
// are missing and merge the source table into it.
// Role, warehouse and database names are upper-cased and all identifiers are quoted.
// It is pure so the statements can be inspected before anything is sent to Snowflake.
func GetSqlSliceSnowflakeUpsert(cfg *SnowflakeUpsertConfig) ([]string, error) {
	if strings.TrimSpace(cfg.DatabaseName) == "" {
		return nil, ErrMissingDatabaseName
	}
	if cfg.SourceSchemaTable.GetTable() == "" || cfg.SourceSchemaTable.GetSchema() == "" {
		return nil, fmt.Errorf("source table must be of the form <schema>.<table>, got %q", cfg.SourceSchemaTable.String())
	}
	if cfg.TargetSchemaTable.GetTable() == "" || cfg.TargetSchemaTable.GetSchema() == "" {
		return nil, fmt.Errorf("target table must be of the form <schema>.<table>, got %q", cfg.TargetSchemaTable.String())
	}
	keyCols, err := getUpsertColumns(cfg.TargetKeyCols)
	if err != nil {
		return nil, err
	}
	if len(keyCols) == 0 {
		return nil, errors.New("at least one target key column is required")
	}
	otherCols, err := getUpsertColumns(cfg.TargetOtherCols)
	if err != nil {
		return nil, err
	}
	db := rdbms.QuoteIdentifier(cfg.DatabaseName)
	targetSchema := fmt.Sprintf("%v.%v", db, rdbms.QuoteIdentifier(cfg.TargetSchemaTable.GetSchema()))
	target := cfg.TargetSchemaTable.FullyQualified(cfg.DatabaseName)
	source := cfg.SourceSchemaTable.FullyQualified(cfg.DatabaseName)
	// Build column lists.
	keyNames := make([]string, 0, len(keyCols))
	allNames := make([]string, 0, len(keyCols)+len(otherCols))
	ddl := make([]string, 0, len(keyCols)+len(otherCols)+1)
	for _, c := range keyCols {
		keyNames = append(keyNames, c.name)
		allNames = append(allNames, c.name)
		ddl = append(ddl, c.name+" "+c.colType)
	}
	updates := make([]string, 0, len(otherCols))
	for _, c := range otherCols {
		allNames = append(allNames, c.name)
		ddl = append(ddl, c.name+" "+c.colType)
		updates = append(updates, fmt.Sprintf("%v = src.%v", c.name, c.name))
	}
	pk := fmt.Sprintf("primary key (%v)", strings.Join(keyNames, ", "))
	if cfg.ConstraintName != "" {
		pk = fmt.Sprintf("constraint %v %v", rdbms.QuoteIdentifier(cfg.ConstraintName), pk)
	}
	ddl = append(ddl, pk)
	// Generate statements.
	s := make([]string, 0, 6)
	if cfg.RoleName != "" {
		s = append(s, fmt.Sprintf("use role %v", rdbms.QuoteIdentifier(cfg.RoleName)))
	}
	if cfg.Warehouse != "" {
		s = append(s, fmt.Sprintf("use warehouse %v", rdbms.QuoteIdentifier(cfg.Warehouse)))
	}
	s = append(s, fmt.Sprintf("use database %v", db))
	s = append(s, fmt.Sprintf("create schema if not exists %v", targetSchema))
	s = append(s, fmt.Sprintf("create table if not exists %v (%v)", target, strings.Join(ddl, ", ")))
	merge := strings.Builder{}
	merge.WriteString(fmt.Sprintf("merge into %v as tgt using %v as src on %v",
		target, source, helper.GenerateStringOfColsEqualsCols(keyNames, "tgt", "src", " and ")))
	if len(updates) > 0 { // if there are value columns to overwrite...
		merge.WriteString(fmt.Sprintf(" when matched then update set %v", strings.Join(updates, ", ")))
	}
	merge.WriteString(fmt.Sprintf(" when not matched then insert (%v) values (%v)",
		strings.Join(allNames, ", "), strings.Join(helper.PrefixStrings(allNames, "src"), ", ")))
	s = append(s, merge.String())
	return s, nil
}

// getUpsertColumns quotes the column names in m and checks each type is a plain
// Snowflake type name with optional precision, e.g. NUMBER(38, 0).
func getUpsertColumns(m *om.OrderedMap) ([]upsertColumn, error) {
	if m == nil {
		return nil, nil
	}
	retval := make([]upsertColumn, 0, m.Len())
	iter := m.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		colType := strings.ToUpper(strings.TrimSpace(fmt.Sprint(kv.Value)))
		if !reColumnType.MatchString(colType) {
			return nil, fmt.Errorf("invalid type %q for column %v", colType, kv.Key)
		}
		retval = append(retval, upsertColumn{
			name:    rdbms.QuoteIdentifier(fmt.Sprint(kv.Key)),
			colType: colType,
		})
	}
	return retval, nil
}

// RunSnowflakeUpsert executes the statements from GetSqlSliceSnowflakeUpsert in a single transaction.
// Any failure rolls back so no partial merge persists. The connection is closed before returning.
func RunSnowflakeUpsert(ctx context.Context, cfg *SnowflakeUpsertConfig) (err error) {
	if cfg.Db != nil {
		defer cfg.Db.Close()
	}
	if strings.TrimSpace(cfg.DatabaseName) == "" { // check this first so the caller gets the explicit error...
		return ErrMissingDatabaseName
	}
	if err = helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	stmts, err := GetSqlSliceSnowflakeUpsert(cfg)
	if err != nil {
		return err
	}
	cfg.Log.Info(cfg.Name, " is running")
	// Start a transaction and set autocommit off.
	tx, err := cfg.Db.BeginTx(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, cfg.Name+" received error starting Snowflake transaction")
	}
	rollbackRequired := true
	defer snowflakeRollback(cfg.Log, cfg.Name, tx, &rollbackRequired)
	stmts = append([]string{"alter session set autocommit = false"}, stmts...)
	for _, stmt := range stmts { // for each SQL that we should execute...
		cfg.Log.Debug(cfg.Name, " executing query: ", stmt)
		res, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return pkgerrors.Wrapf(err, "%v error received while executing SQL '%v'", cfg.Name, stmt)
		}
		logRowsAffected(cfg.Log, cfg.Name, res)
	}
	// Commit changes.
	// If we don't get here the deferred func will rollback.
	if err = tx.Commit(); err != nil {
		return pkgerrors.Wrap(err, cfg.Name+" received error while executing commit")
	}
	rollbackRequired = false
	cfg.Log.Debug(cfg.Name, " commit complete")
	cfg.Log.Info(cfg.Name, " complete")
	return nil
}

func logRowsAffected(log logger.Logger, name string, res shared.Result) {
	if res == nil {
		return
	}
	if i, e := res.RowsAffected(); e == nil { // if we have the number of rows affected...
		log.Info(name, " rows affected: ", i)
	} // else the error is only concerned with number of rows affected, which can be 0 for DDL.
}

func snowflakeRollback(log logger.Logger, stepName string, tx shared.Transacter, rollbackRequired *bool) {
	log.Debug(stepName, " deferred rollback: required = ", *rollbackRequired)
	if *rollbackRequired { // if rollback is required...
		err := tx.Rollback()
		*rollbackRequired = false
		if err != nil { // the driver may have rolled back already if the context was cancelled.
			log.Warn(stepName, " received error while executing rollback: ", err)
			return
		}
		log.Info(stepName, " rollback complete")
	}
}
