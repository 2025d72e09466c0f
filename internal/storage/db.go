package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"inquiry/internal"
	"inquiry/internal/util"
)

// Raw mail lifecycle.
const (
	RawStatusFetched   = "fetched"
	RawStatusProcessed = "processed"
	RawStatusSkipped   = "skipped"
	RawStatusFailed    = "failed"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS products (
  name TEXT PRIMARY KEY,
  unitPrice REAL NOT NULL,
  unitOfMeasure TEXT NOT NULL DEFAULT '',
  position INTEGER NOT NULL,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_position ON products(position);

CREATE TABLE IF NOT EXISTS raw_emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS events (
  emailId TEXT PRIMARY KEY,
  sender TEXT,
  subject TEXT,
  currency TEXT,
  eventJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS acks (
  emailId TEXT PRIMARY KEY,
  recipient TEXT NOT NULL,
  subject TEXT NOT NULL,
  ackJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(emailId) REFERENCES events(emailId)
);

CREATE TABLE IF NOT EXISTS quotes (
  emailId TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  total REAL NOT NULL,
  quoteJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(emailId) REFERENCES events(emailId)
);

CREATE TABLE IF NOT EXISTS activity (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts TEXT NOT NULL,
  emailId TEXT,
  step TEXT NOT NULL,
  status TEXT NOT NULL,
  message TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  kind TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// UpsertProducts refreshes prices in place. New names are appended after the
// existing ones so ListProducts returns catalog order.
func (d *DB) UpsertProducts(products []internal.Product) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO products (name, unitPrice, unitOfMeasure, position, lastSeenAt)
VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM products), CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET
  unitPrice=excluded.unitPrice,
  unitOfMeasure=excluded.unitOfMeasure,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.Exec(p.Name, p.UnitPrice, p.UnitOfMeasure); err != nil {
			return fmt.Errorf("upsert product %q: %w", p.Name, err)
		}
	}

	return tx.Commit()
}

func (d *DB) ListProducts() ([]internal.Product, error) {
	rows, err := d.conn.Query(`SELECT name, unitPrice, unitOfMeasure FROM products ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Product
	for rows.Next() {
		var p internal.Product
		if err := rows.Scan(&p.Name, &p.UnitPrice, &p.UnitOfMeasure); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (d *DB) UpsertRawEmail(msg internal.FetchedMailMessage, hash, rawRef string) (internal.RawEmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO raw_emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, RawStatusFetched, rawRef)
	if err != nil {
		return internal.RawEmailRow{}, err
	}

	row, err := d.GetRawEmail(msg.Provider, msg.MessageID)
	if err != nil {
		return internal.RawEmailRow{}, err
	}
	if row == nil {
		return internal.RawEmailRow{}, errors.New("failed to upsert raw email")
	}
	return *row, nil
}

func (d *DB) GetRawEmail(provider, messageID string) (*internal.RawEmailRow, error) {
	var row internal.RawEmailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM raw_emails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListRawEmailsByStatus(status string, limit int) ([]internal.RawEmailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM raw_emails WHERE status = ? ORDER BY receivedAt ASC, id ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RawEmailRow
	for rows.Next() {
		var row internal.RawEmailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateRawEmailStatus(id int, status string) error {
	_, err := d.conn.Exec(`UPDATE raw_emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

func (d *DB) HasEvent(emailID string) (bool, error) {
	var n int
	if err := d.conn.QueryRow(`SELECT COUNT(1) FROM events WHERE emailId = ?`, emailID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveEvent reports false when an event with the same id is already stored.
func (d *DB) SaveEvent(event internal.Event) (bool, error) {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return false, err
	}
	result, err := d.conn.Exec(`
INSERT INTO events (emailId, sender, subject, currency, eventJson)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(emailId) DO NOTHING
`, event.EmailID, event.From.Value, event.Subject.Value, event.Currency.Value, string(eventJSON))
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *DB) GetEvent(emailID string) (*internal.Event, error) {
	var raw string
	err := d.conn.QueryRow(`SELECT eventJson FROM events WHERE emailId = ?`, emailID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var event internal.Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", emailID, err)
	}
	return &event, nil
}

func (d *DB) SaveAck(draft internal.AckDraft) error {
	ackJSON, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO acks (emailId, recipient, subject, ackJson) VALUES (?, ?, ?, ?)
ON CONFLICT(emailId) DO UPDATE SET recipient=excluded.recipient, subject=excluded.subject, ackJson=excluded.ackJson
`, draft.EmailID, draft.To, draft.Subject, string(ackJSON))
	return err
}

func (d *DB) SaveQuote(q internal.Quote) error {
	quoteJSON, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO quotes (emailId, status, total, quoteJson) VALUES (?, ?, ?, ?)
ON CONFLICT(emailId) DO UPDATE SET status=excluded.status, total=excluded.total, quoteJson=excluded.quoteJson
`, q.EmailID, string(q.Status), q.Total, string(quoteJSON))
	return err
}

func (d *DB) AppendActivity(a internal.Activity) error {
	_, err := d.conn.Exec(`INSERT INTO activity (ts, emailId, step, status, message) VALUES (?, ?, ?, ?, ?)`,
		a.Timestamp, a.EmailID, a.Step, a.Status, a.Message)
	return err
}

func (d *DB) ListActivity(limit int) ([]internal.Activity, error) {
	rows, err := d.conn.Query(`SELECT ts, emailId, step, status, message FROM activity ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Activity
	for rows.Next() {
		var a internal.Activity
		if err := rows.Scan(&a.Timestamp, &a.EmailID, &a.Step, &a.Status, &a.Message); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(traceID, kind string, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, kind, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, kind, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// GetExportRows flattens every stored event into one row per item, joined
// with its quote. Events without items yield a single row.
func (d *DB) GetExportRows() ([]internal.EventExportRow, error) {
	rows, err := d.conn.Query(`
SELECT e.eventJson, q.status, q.total
FROM events e
LEFT JOIN quotes q ON q.emailId = e.emailId
ORDER BY e.createdAt ASC, e.emailId ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EventExportRow
	for rows.Next() {
		var eventJSON string
		var quoteStatus sql.NullString
		var quoteTotal sql.NullFloat64
		if err := rows.Scan(&eventJSON, &quoteStatus, &quoteTotal); err != nil {
			return nil, err
		}

		var event internal.Event
		if err := json.Unmarshal([]byte(eventJSON), &event); err != nil {
			return nil, err
		}

		base := internal.EventExportRow{
			EmailID:       event.EmailID,
			Sender:        event.From.Value,
			Subject:       event.Subject.Value,
			Currency:      event.Currency.Value,
			MissingFields: strings.Join(event.MissingFields, "; "),
		}
		if quoteStatus.Valid {
			base.QuoteStatus = util.StringPtr(quoteStatus.String)
			base.QuoteTotal = util.FloatPtr(quoteTotal.Float64)
		}
		out = append(out, FlattenEvent(base, event.Items)...)
	}

	return out, rows.Err()
}

// FlattenEvent expands base into one export row per item.
func FlattenEvent(base internal.EventExportRow, items []internal.Item) []internal.EventExportRow {
	if len(items) == 0 {
		return []internal.EventExportRow{base}
	}
	out := make([]internal.EventExportRow, 0, len(items))
	for _, item := range items {
		row := base
		row.ProductName = item.ProductName.Value
		row.ProductConfidence = item.ProductName.Confidence
		row.ProductNotes = item.ProductName.Notes
		row.Quantity = item.Quantity.Value
		row.QuantityConfidence = item.Quantity.Confidence
		row.QuantityNotes = item.Quantity.Notes
		row.Unit = item.Unit.Value
		out = append(out, row)
	}
	return out
}
