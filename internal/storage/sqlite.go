package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"stalkbot/internal/judge"
	logx "stalkbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) (*State, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	st := NewState()

	rows, err := s.db.QueryContext(ctx, `SELECT chat_id, cf, ac FROM nicks`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var chat int64
		var p Profile
		if err := rows.Scan(&chat, &p.CF, &p.AC); err != nil {
			rows.Close()
			return nil, err
		}
		st.Nicks[chat] = p
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT platform, chat_id, handle FROM tracks ORDER BY platform, chat_id, pos`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var tag, handle string
		var chat int64
		if err := rows.Scan(&tag, &chat, &handle); err != nil {
			rows.Close()
			return nil, err
		}
		p := judge.Platform(tag)
		if !p.Valid() {
			continue
		}
		if st.Tracks[p] == nil {
			st.Tracks[p] = make(map[int64][]string)
		}
		st.Tracks[p][chat] = append(st.Tracks[p][chat], handle)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT platform, handle, sub_id FROM last_seen`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var tag, handle, id string
		if err := rows.Scan(&tag, &handle, &id); err != nil {
			rows.Close()
			return nil, err
		}
		p := judge.Platform(tag)
		if !p.Valid() {
			continue
		}
		if st.LastSeen[p] == nil {
			st.LastSeen[p] = make(map[string]string)
		}
		st.LastSeen[p][handle] = id
	}
	return st, closeRows(rows)
}

// Save replaces the stored state wholesale inside one transaction.
func (s *sqliteStore) Save(ctx context.Context, st *State) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"nicks", "tracks", "last_seen"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	for chat, p := range st.Nicks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO nicks(chat_id, cf, ac) VALUES(?,?,?)`, chat, p.CF, p.AC); err != nil {
			return err
		}
	}
	for p, chats := range st.Tracks {
		for chat, handles := range chats {
			for pos, handle := range handles {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO tracks(platform, chat_id, handle, pos) VALUES(?,?,?,?)`,
					string(p), chat, handle, pos); err != nil {
					return err
				}
			}
		}
	}
	for p, seen := range st.LastSeen {
		for handle, id := range seen {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO last_seen(platform, handle, sub_id) VALUES(?,?,?)`,
				string(p), handle, id); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
