package session

import (
	"context"
	"embed"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const sessionTableName = `session_kv`

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

	// goose keeps its settings in package globals.
	gooseMu sync.Mutex
)

// Store keeps credentials in a local sqlite file.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewStore(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open session db %s", path)
	}
	if err := migrate(db, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		db:  db,
		log: log.Named("session"),
	}, nil
}

func migrate(db *sqlx.DB, log *zap.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{log: log.Named("goose").Sugar()})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return errors.Wrap(err, "goose up")
	}
	return nil
}

type kv struct {
	Name  string `db:"name"`
	Value string `db:"value"`
}

func (s *Store) Load(ctx context.Context) (Credentials, error) {
	query, args, err := qb.Select("name", "value").
		From(sessionTableName).
		Where(sq.Eq{"name": []string{KeyAccessToken, KeyRefreshToken, KeyUsername}}).
		ToSql()
	if err != nil {
		return Credentials{}, err
	}
	var rows []kv
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return Credentials{}, errors.Wrap(err, "load session")
	}
	var creds Credentials
	for _, row := range rows {
		switch row.Name {
		case KeyAccessToken:
			creds.AccessToken = row.Value
		case KeyRefreshToken:
			creds.RefreshToken = row.Value
		case KeyUsername:
			creds.Username = row.Value
		}
	}
	return creds, nil
}

func (s *Store) Save(ctx context.Context, creds Credentials) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback() //nolint:errcheck

	values := map[string]string{
		KeyAccessToken:  creds.AccessToken,
		KeyRefreshToken: creds.RefreshToken,
		KeyUsername:     creds.Username,
	}
	for name, value := range values {
		query, args, err := qb.Insert(sessionTableName).
			Columns("name", "value").
			Values(name, value).
			Suffix("ON CONFLICT(name) DO UPDATE SET value = excluded.value").
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrapf(err, "save %s", name)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	s.log.Debug("session saved", zap.String("username", creds.Username))
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	query, args, err := qb.Delete(sessionTableName).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "clear session")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatalf(format, v...)
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Debugf(format, v...)
}
