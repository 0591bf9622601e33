package replay

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS consumed_messages (
	emitter_chain   INTEGER        NOT NULL,
	emitter_address BYTEA          NOT NULL,
	sequence        NUMERIC(20, 0) NOT NULL,
	digest          BYTEA          NOT NULL,
	consumed_at     TIMESTAMPTZ    NOT NULL,
	PRIMARY KEY (emitter_chain, emitter_address, sequence)
)`

// PostgresRegistry persists consumed ids in PostgreSQL. Atomicity comes from
// the primary key: concurrent inserts of one id from any number of processes
// leave exactly one row and report one affected row to exactly one caller.
type PostgresRegistry struct {
	db  *sql.DB
	now func() time.Time
}

// OpenPostgresRegistry connects to dsn and makes sure the schema exists.
func OpenPostgresRegistry(ctx context.Context, dsn string) (*PostgresRegistry, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	r := NewPostgresRegistry(db)
	if err := r.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// NewPostgresRegistry wraps an existing connection pool.
func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db, now: time.Now}
}

// EnsureSchema creates the consumed_messages table if it is missing.
func (r *PostgresRegistry) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, postgresSchema); err != nil {
		return errors.Wrap(err, "create consumed_messages")
	}
	return nil
}

func (r *PostgresRegistry) Consume(ctx context.Context, id MessageID, digest common.Hash) (bool, error) {
	query := `
		INSERT INTO consumed_messages (emitter_chain, emitter_address, sequence, digest, consumed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		int(id.EmitterChain),
		id.EmitterAddress[:],
		strconv.FormatUint(id.Sequence, 10),
		digest.Bytes(),
		r.now().UTC(),
	)
	if err != nil {
		return false, errors.Wrap(err, "consume")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "consume rows affected")
	}
	return n == 1, nil
}

func (r *PostgresRegistry) Lookup(ctx context.Context, id MessageID) (*Record, error) {
	var (
		digest     []byte
		consumedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT digest, consumed_at FROM consumed_messages
		WHERE emitter_chain = $1 AND emitter_address = $2 AND sequence = $3
	`, int(id.EmitterChain), id.EmitterAddress[:], strconv.FormatUint(id.Sequence, 10)).Scan(&digest, &consumedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "lookup")
	}

	return &Record{Digest: common.BytesToHash(digest), ConsumedAt: consumedAt.UTC()}, nil
}

func (r *PostgresRegistry) Close() error {
	return r.db.Close()
}
