// Package store keeps the history of scrape runs in sqlite, locally or on a libsql server.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"statcrawl/internal/scraper"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// ErrNoRuns is returned when a run is requested from an empty store.
var ErrNoRuns = errors.New("no runs stored")

// Config selects the database, File for a local sqlite file or Url for a libsql server.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (c Config) Enabled() bool {
	return c.File != "" || c.Url != ""
}

func (c Config) openLocal() (*sql.DB, error) {
	_, statErr := os.Stat(c.File)
	if os.IsNotExist(statErr) {
		f, err := os.Create(c.File)
		if err != nil {
			return nil, err
		}
		f.Close()
	}

	db, err := sql.Open("sqlite", c.File)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (c Config) openRemote() (*sql.DB, error) {
	dsn, err := url.Parse(c.Url)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if c.AuthToken != "" {
		query := dsn.Query()
		query.Set("authToken", c.AuthToken)
		dsn.RawQuery = query.Encode()
	}
	return sql.Open("libsql", dsn.String())
}

// OpenDB opens the configured database, a local file wins over a url.
func (c Config) OpenDB() (*sql.DB, error) {
	switch {
	case c.File != "":
		return c.openLocal()
	case c.Url != "":
		return c.openRemote()
	}
	return nil, fmt.Errorf("neither a file nor a url was specified")
}

// Player is a stored PlayerResult. Enumerations are stored by name.
type Player struct {
	Name     string
	School   string
	Position string
	Status   string
	FailedAt string
	Result   string
	Error    string
	Records  []scraper.StatRecord
}

func (p Player) Key() string {
	return p.Name + "_" + p.School
}

type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Source     string
	Players    []Player
}

type Store struct {
	db *sql.DB
}

// Open opens the database and makes sure the schema exists.
func Open(ctx context.Context, config Config) (Store, error) {
	db, err := config.OpenDB()
	if err != nil {
		return Store{}, err
	}
	_, err = db.ExecContext(ctx, Schema)
	if err != nil {
		db.Close()
		return Store{}, fmt.Errorf("create schema: %w", err)
	}
	return Store{db: db}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// SaveRun stores every result of a run in results order and returns the run id.
func (s Store) SaveRun(ctx context.Context, startedAt, finishedAt time.Time, source string, results *scraper.Results) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		"insert into run(started_at, finished_at, source) values (?, ?, ?)",
		startedAt.Unix(), finishedAt.Unix(), source,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, result := range results.All() {
		records := result.Records
		if records == nil {
			records = []scraper.StatRecord{}
		}
		encoded, err := json.Marshal(records)
		if err != nil {
			return 0, fmt.Errorf("encode records of %s: %w", result.Query.Key(), err)
		}
		errText := ""
		if result.Err != nil {
			errText = result.Err.Error()
		}

		_, err = tx.ExecContext(
			ctx,
			`insert into player(run_id, idx, name, school, position, status, failed_at, result, error, records)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i,
			result.Query.Name,
			result.Query.School,
			result.Query.Position.String(),
			result.Status.String(),
			result.FailedAt.String(),
			result.Result.String(),
			errText,
			string(encoded),
		)
		if err != nil {
			return 0, fmt.Errorf("insert player %s: %w", result.Query.Key(), err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return 0, err
	}
	return runID, nil
}

// LatestRun loads the most recently stored run.
func (s Store) LatestRun(ctx context.Context) (Run, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "select id from run order by id desc limit 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, err
	}
	return s.LoadRun(ctx, id)
}

func (s Store) LoadRun(ctx context.Context, id int64) (Run, error) {
	run := Run{ID: id}

	var startedAt, finishedAt int64
	err := s.db.QueryRowContext(
		ctx,
		"select started_at, finished_at, source from run where id = ?",
		id,
	).Scan(&startedAt, &finishedAt, &run.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %d: %w", id, ErrNoRuns)
	}
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = time.Unix(startedAt, 0)
	run.FinishedAt = time.Unix(finishedAt, 0)

	rows, err := s.db.QueryContext(
		ctx,
		`select name, school, position, status, failed_at, result, error, records
		from player where run_id = ? order by idx`,
		id,
	)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var p Player
		var records string
		err = rows.Scan(&p.Name, &p.School, &p.Position, &p.Status, &p.FailedAt, &p.Result, &p.Error, &records)
		if err != nil {
			return Run{}, err
		}
		err = json.Unmarshal([]byte(records), &p.Records)
		if err != nil {
			return Run{}, fmt.Errorf("decode records of %s: %w", p.Key(), err)
		}
		run.Players = append(run.Players, p)
	}
	return run, rows.Err()
}

// RunSummary is a run without its players.
type RunSummary struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Source     string
	Players    int
	Ok         int
}

func (s Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		select run.id, run.started_at, run.finished_at, run.source,
			count(player.idx),
			coalesce(sum(case when player.status = ? then 1 else 0 end), 0)
		from run left join player on player.run_id = run.id
		group by run.id
		order by run.id`,
		scraper.StatusOk.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var startedAt, finishedAt int64
		err = rows.Scan(&r.ID, &startedAt, &finishedAt, &r.Source, &r.Players, &r.Ok)
		if err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(startedAt, 0)
		r.FinishedAt = time.Unix(finishedAt, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}
