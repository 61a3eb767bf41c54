package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"farmstead/internal/core"
	"farmstead/internal/log"
	"farmstead/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores cards, ledger entries and plantings in one table
// each. Cards carry an explicit position column; the board order is
// (status, position).
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

var (
	_ store.BoardStore     = (*SQLiteRepository)(nil)
	_ store.Ledger         = (*SQLiteRepository)(nil)
	_ store.TaxonomyReader = (*SQLiteRepository)(nil)
	_ store.PlantingStore  = (*SQLiteRepository)(nil)
	_ store.CardRows       = (*SQLiteRepository)(nil)
	_ store.RangeLister    = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger = logger.WithComponent(log.ComponentStorage)
	logger.Debug("SQLite schema ready", "path", dbPath, "version", version)
	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements the readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const cardColumns = `id, status, name, assignee, description, start_date, due_date, created_at`

// LoadBoard implements store.BoardStore
func (r *SQLiteRepository) LoadBoard(ctx context.Context) (core.Board, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY status, position`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return store.HomeCards(cards, r.logger), nil
}

// SaveBoard implements store.BoardStore. The table is rewritten in one
// transaction so the stored board always matches a single save.
func (r *SQLiteRepository) SaveBoard(ctx context.Context, b core.Board) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards`); err != nil {
		return fmt.Errorf("clear cards: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cards (`+cardColumns+`, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, lane := range core.Lanes() {
		for pos, c := range b[lane] {
			if _, err := stmt.ExecContext(ctx, cardArgs(c, lane, pos)...); err != nil {
				return fmt.Errorf("insert card %s: %w", c.ID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit board: %w", err)
	}
	r.logger.DebugContext(ctx, "Board saved to SQLite", log.FieldCardCount, b.Count())
	return nil
}

// InsertCard implements store.CardRows. It appends c at the end of its lane.
func (r *SQLiteRepository) InsertCard(ctx context.Context, c core.Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (`+cardColumns+`, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM cards WHERE status = ?))`,
		append(cardArgs(c, c.Status, 0)[:8], string(c.Status))...)
	if err != nil {
		return fmt.Errorf("insert card %s: %w", c.ID, err)
	}
	return nil
}

// UpdateCard rewrites the display fields of a card. Status and position only
// change through SaveBoard.
func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.Card) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cards SET name = ?, assignee = ?, description = ?, start_date = ?, due_date = ? WHERE id = ?`,
		c.Name, c.Assignee, c.Description, nullDate(c.StartDate), nullDate(c.DueDate), c.ID)
	if err != nil {
		return fmt.Errorf("update card %s: %w", c.ID, err)
	}
	return expectOne(res, "card", c.ID)
}

// DeleteCard removes a card by id.
func (r *SQLiteRepository) DeleteCard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	return expectOne(res, "card", id)
}

const entryColumns = `id, entry_date, type, amount_cents, category, description`

// AppendEntry implements store.LedgerWriter
func (r *SQLiteRepository) AppendEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date.String(), string(e.Type), e.Amount.Cents, e.Category, e.Description)
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}

	r.logger.LogAttrs(ctx, slog.LevelInfo, "Ledger entry saved to SQLite",
		log.EntryAttrs(e.ID, string(e.Type), e.Category, e.Amount.Cents)...)
	return e.ID, nil
}

// DeleteEntry implements store.LedgerDeleter
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return expectOne(res, "entry", id)
}

// ListEntries implements store.LedgerLister
func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	return r.queryEntries(ctx, `SELECT `+entryColumns+` FROM ledger_entries ORDER BY seq`)
}

// ListEntriesBetween returns entries dated within [start, end], pushing the
// range filter down to the index.
func (r *SQLiteRepository) ListEntriesBetween(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error) {
	return r.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE entry_date BETWEEN ? AND ? ORDER BY entry_date, seq`,
		start.String(), end.String())
}

// Categories implements store.TaxonomyReader
func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, []string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, category FROM ledger_entries GROUP BY type, category ORDER BY MIN(seq)`)
	if err != nil {
		return nil, nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	income, expense := []string{}, []string{}
	for rows.Next() {
		var typ, cat string
		if err := rows.Scan(&typ, &cat); err != nil {
			return nil, nil, fmt.Errorf("scan category: %w", err)
		}
		if core.EntryType(typ) == core.Income {
			income = append(income, cat)
		} else {
			expense = append(expense, cat)
		}
	}
	return income, expense, rows.Err()
}

const plantingColumns = `id, variety, location, planted_on, quantity`

// ListPlantings implements store.PlantingStore
func (r *SQLiteRepository) ListPlantings(ctx context.Context) ([]core.Planting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+plantingColumns+` FROM plantings ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query plantings: %w", err)
	}
	defer rows.Close()

	ps := []core.Planting{}
	for rows.Next() {
		var (
			p    core.Planting
			date string
		)
		if err := rows.Scan(&p.ID, &p.Variety, &p.Location, &date, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scan planting: %w", err)
		}
		if p.PlantedOn, err = core.ParseDate(date); err != nil {
			r.logger.WarnContext(ctx, "Skipping planting with invalid date", log.FieldPlantingID, p.ID, log.FieldError, err)
			continue
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

// AddPlanting implements store.PlantingStore
func (r *SQLiteRepository) AddPlanting(ctx context.Context, p core.Planting) (string, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plantings (`+plantingColumns+`) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Variety, p.Location, p.PlantedOn.String(), p.Quantity)
	if err != nil {
		return "", fmt.Errorf("insert planting: %w", err)
	}
	return p.ID, nil
}

// DeletePlanting implements store.PlantingStore
func (r *SQLiteRepository) DeletePlanting(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plantings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete planting %s: %w", id, err)
	}
	return expectOne(res, "planting", id)
}

func (r *SQLiteRepository) queryEntries(ctx context.Context, query string, args ...any) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []core.LedgerEntry{}
	for rows.Next() {
		var (
			e     core.LedgerEntry
			date  string
			typ   string
			cents int64
		)
		if err := rows.Scan(&e.ID, &date, &typ, &cents, &e.Category, &e.Description); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			r.logger.WarnContext(ctx, "Skipping entry with invalid date", log.FieldEntryID, e.ID, log.FieldError, err)
			continue
		}
		e.Type = core.EntryType(typ)
		e.Amount = core.Money{Cents: cents}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (core.Card, error) {
	var (
		c                     core.Card
		status                string
		start, due, createdAt sql.NullString
	)
	if err := s.Scan(&c.ID, &status, &c.Name, &c.Assignee, &c.Description, &start, &due, &createdAt); err != nil {
		return core.Card{}, err
	}
	c.Status = core.Lane(status)
	c.StartDate = parseNullDate(start)
	c.DueDate = parseNullDate(due)
	c.CreatedAt = parseNullDate(createdAt)
	return c, nil
}

func cardArgs(c core.Card, lane core.Lane, pos int) []any {
	return []any{
		c.ID, string(lane), c.Name, c.Assignee, c.Description,
		nullDate(c.StartDate), nullDate(c.DueDate), nullDate(c.CreatedAt), pos,
	}
}

func nullDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) core.Date {
	if !s.Valid {
		return core.Date{}
	}
	d, err := core.ParseDate(s.String)
	if err != nil {
		return core.Date{}
	}
	return d
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}
