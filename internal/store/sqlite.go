package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/peejay-git/stallions/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool, which
	// also gives each engine operation the run-to-completion execution the
	// lifecycle rules assume.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// encodeSkills serializes a skills list to JSON for storage. A nil slice is
// stored as an empty list so decoding round-trips cleanly.
func encodeSkills(skills []string) string {
	if skills == nil {
		skills = []string{}
	}
	data, err := json.Marshal(skills)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// --- Bounties ---

func (s *SQLiteStore) CreateBounty(ctx context.Context, b *models.Bounty) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bounties (id, title, description, category, reward_amount, reward_asset, owner, deadline, status, skills, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Description, b.Category, b.RewardAmount, b.RewardAsset,
		string(b.Owner), b.Deadline, string(b.Status), encodeSkills(b.Skills),
		b.Created, b.Updated,
	)
	if err != nil {
		return fmt.Errorf("create bounty: %w", err)
	}
	return nil
}

const bountyColumns = "id, title, description, category, reward_amount, reward_asset, owner, deadline, status, skills, created, updated"

// scanBounty scans one bounty row from a *sql.Row or *sql.Rows.
func scanBounty(row interface{ Scan(...any) error }) (*models.Bounty, error) {
	b := &models.Bounty{}
	var owner, status, skillsJSON string
	if err := row.Scan(&b.ID, &b.Title, &b.Description, &b.Category,
		&b.RewardAmount, &b.RewardAsset, &owner, &b.Deadline,
		&status, &skillsJSON, &b.Created, &b.Updated); err != nil {
		return nil, err
	}
	b.Owner = models.Principal(owner)
	b.Status = models.BountyStatus(status)
	if err := json.Unmarshal([]byte(skillsJSON), &b.Skills); err != nil {
		b.Skills = nil
	}
	return b, nil
}

func (s *SQLiteStore) GetBounty(ctx context.Context, id string) (*models.Bounty, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+bountyColumns+" FROM bounties WHERE id = ?", id)
	b, err := scanBounty(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bounty %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bounty: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) ListBounties(ctx context.Context) ([]*models.Bounty, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+bountyColumns+" FROM bounties ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("list bounties: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bounties []*models.Bounty
	for rows.Next() {
		b, err := scanBounty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bounty: %w", err)
		}
		bounties = append(bounties, b)
	}
	return bounties, rows.Err()
}

func (s *SQLiteStore) UpdateBounty(ctx context.Context, b *models.Bounty) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE bounties SET title=?, description=?, category=?, reward_amount=?, reward_asset=?, deadline=?, status=?, skills=?, updated=?
		WHERE id=?`,
		b.Title, b.Description, b.Category, b.RewardAmount, b.RewardAsset,
		b.Deadline, string(b.Status), encodeSkills(b.Skills), b.Updated, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update bounty: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("bounty %s: %w", b.ID, ErrNotFound)
	}
	return nil
}

// --- Submissions ---

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, bounty_id, applicant, content, status, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.BountyID, string(sub.Applicant), sub.Content,
		string(sub.Status), sub.Created,
	)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

const submissionColumns = "id, bounty_id, applicant, content, status, created"

func scanSubmission(row interface{ Scan(...any) error }) (*models.Submission, error) {
	sub := &models.Submission{}
	var applicant, status string
	if err := row.Scan(&sub.ID, &sub.BountyID, &applicant, &sub.Content,
		&status, &sub.Created); err != nil {
		return nil, err
	}
	sub.Applicant = models.Principal(applicant)
	sub.Status = models.SubmissionStatus(status)
	return sub, nil
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE id = ?", id)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, bountyID string) ([]*models.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE bounty_id = ? ORDER BY seq", bountyID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStore) UpdateSubmission(ctx context.Context, sub *models.Submission) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE submissions SET content=?, status=? WHERE id=?",
		sub.Content, string(sub.Status), sub.ID,
	)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("submission %s: %w", sub.ID, ErrNotFound)
	}
	return nil
}

// AcceptSubmission writes the accepted submission and the completed bounty
// in one transaction.
func (s *SQLiteStore) AcceptSubmission(ctx context.Context, sub *models.Submission, b *models.Bounty) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		"UPDATE submissions SET status=? WHERE id=?",
		string(sub.Status), sub.ID)
	if err != nil {
		return fmt.Errorf("accept submission: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("submission %s: %w", sub.ID, ErrNotFound)
	}

	result, err = tx.ExecContext(ctx,
		"UPDATE bounties SET status=?, updated=? WHERE id=?",
		string(b.Status), b.Updated, b.ID)
	if err != nil {
		return fmt.Errorf("complete bounty: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("bounty %s: %w", b.ID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- Ledger ---

func (s *SQLiteStore) AccountBalance(ctx context.Context, principal models.Principal, asset string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		"SELECT balance FROM accounts WHERE principal = ? AND asset = ?",
		string(principal), asset).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("account balance: %w", err)
	}
	return balance, nil
}

func (s *SQLiteStore) CreditAccount(ctx context.Context, principal models.Principal, asset string, amount int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (principal, asset, balance) VALUES (?, ?, ?)
		ON CONFLICT(principal, asset) DO UPDATE SET balance = balance + excluded.balance`,
		string(principal), asset, amount)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	return nil
}

// TransferAsset debits the source, credits the destination, and records the
// transfer, all in one transaction. Fails with ErrInsufficientBalance if the
// source cannot cover the amount.
func (s *SQLiteStore) TransferAsset(ctx context.Context, t *models.Transfer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var balance int64
	err = tx.QueryRowContext(ctx,
		"SELECT balance FROM accounts WHERE principal = ? AND asset = ?",
		string(t.From), t.Asset).Scan(&balance)
	if err == sql.ErrNoRows {
		balance = 0
		err = nil
	}
	if err != nil {
		return fmt.Errorf("read source balance: %w", err)
	}
	if balance < t.Amount {
		return fmt.Errorf("transfer %d %s from %s: %w", t.Amount, t.Asset, t.From, ErrInsufficientBalance)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance - ? WHERE principal = ? AND asset = ?",
		t.Amount, string(t.From), t.Asset); err != nil {
		return fmt.Errorf("debit source: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (principal, asset, balance) VALUES (?, ?, ?)
		ON CONFLICT(principal, asset) DO UPDATE SET balance = balance + excluded.balance`,
		string(t.To), t.Asset, t.Amount); err != nil {
		return fmt.Errorf("credit destination: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transfers (id, asset, from_account, to_account, amount, memo, created)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Asset, string(t.From), string(t.To), t.Amount, t.Memo, t.Created); err != nil {
		return fmt.Errorf("record transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListTransfers(ctx context.Context, principal models.Principal) ([]*models.Transfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, asset, from_account, to_account, amount, memo, created FROM transfers
		WHERE from_account = ? OR to_account = ? ORDER BY created DESC, id DESC`,
		string(principal), string(principal))
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transfers []*models.Transfer
	for rows.Next() {
		t := &models.Transfer{}
		var from, to string
		if err := rows.Scan(&t.ID, &t.Asset, &from, &to, &t.Amount, &t.Memo, &t.Created); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		t.From = models.Principal(from)
		t.To = models.Principal(to)
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}
