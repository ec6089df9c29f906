// Package postgres is the PostgreSQL store backend. It talks to the database
// through database/sql with the pgx stdlib driver; the schema is managed by
// embedded golang-migrate migrations (see Migrate).
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"

	"github.com/mohamedmalandi/nova/internal/admin"
	"github.com/mohamedmalandi/nova/internal/catalog"
)

// Store implements admin.Store, catalog.ProductRepository and
// catalog.EventRepository on a *sql.DB.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &Store{db: db}, nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// validID reports whether id can name a row. Anything that is not a UUID is
// treated as an unknown id rather than sent to the server.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Admins

const adminColumns = `id, username, email, password_hash, created_at, updated_at`

func scanAdmin(row interface{ Scan(...any) error }) (*admin.Admin, error) {
	var a admin.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*admin.Admin, error) {
	a, err := scanAdmin(s.db.QueryRowContext(ctx, `select `+adminColumns+` from admins where email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, admin.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find admin by email")
	}
	return a, nil
}

func (s *Store) FindAdminByID(ctx context.Context, id string) (*admin.Admin, error) {
	if !validID(id) {
		return nil, admin.ErrNotFound
	}
	a, err := scanAdmin(s.db.QueryRowContext(ctx, `select `+adminColumns+` from admins where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, admin.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find admin by id")
	}
	return a, nil
}

func (s *Store) InsertAdmin(ctx context.Context, a *admin.Admin) error {
	id := uuid.NewString()
	err := s.db.QueryRowContext(ctx, `
		insert into admins (id, username, email, password_hash, created_at, updated_at)
		values ($1, $2, $3, $4, now(), now())
		returning created_at, updated_at
	`, id, a.Username, a.Email, a.PasswordHash).Scan(&a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return admin.ErrAlreadyExists
	}
	if err != nil {
		return errors.Wrap(err, "insert admin")
	}
	a.ID = id
	return nil
}

func (s *Store) UpdateAdminPassword(ctx context.Context, id, hash string) error {
	if !validID(id) {
		return admin.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `update admins set password_hash = $1, updated_at = now() where id = $2`, hash, id)
	if err != nil {
		return errors.Wrap(err, "update admin password")
	}
	return expectOne(res, admin.ErrNotFound)
}

func (s *Store) ListAdmins(ctx context.Context) ([]admin.Admin, error) {
	rows, err := s.db.QueryContext(ctx, `select `+adminColumns+` from admins order by created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "list admins")
	}
	defer rows.Close()

	var out []admin.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan admin")
		}
		out = append(out, *a)
	}
	return out, errors.Wrap(rows.Err(), "list admins")
}

// Products

const productColumns = `id, name, type, category, price, description, image, options, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*catalog.Product, error) {
	var (
		p       catalog.Product
		options []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Category, &p.Price, &p.Description, &p.Image, &options, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if options != nil {
		if err := json.Unmarshal(options, &p.Options); err != nil {
			return nil, errors.Wrap(err, "decode product options")
		}
	}
	return &p, nil
}

func encodeOptions(opts map[string][]string) (any, error) {
	if opts == nil {
		return nil, nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return nil, errors.Wrap(err, "encode product options")
	}
	return string(b), nil
}

// likePattern escapes LIKE metacharacters so keyword matches literally.
func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(keyword) + "%"
}

func (s *Store) ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.ActiveOnly {
		where = append(where, "is_active")
	}
	if filter.Keyword != "" {
		args = append(args, likePattern(filter.Keyword))
		where = append(where, `name ilike $1 escape '\'`)
	}

	query := `select ` + productColumns + ` from products`
	if len(where) > 0 {
		query += ` where ` + strings.Join(where, " and ")
	}
	query += ` order by seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	out := []catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		out = append(out, *p)
	}
	return out, errors.Wrap(rows.Err(), "list products")
}

func (s *Store) FindProduct(ctx context.Context, id string) (*catalog.Product, error) {
	if !validID(id) {
		return nil, catalog.ErrNotFound
	}
	p, err := scanProduct(s.db.QueryRowContext(ctx, `select `+productColumns+` from products where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product")
	}
	return p, nil
}

func (s *Store) InsertProduct(ctx context.Context, p *catalog.Product) error {
	options, err := encodeOptions(p.Options)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		insert into products (id, name, type, category, price, description, image, options, is_active, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, id, p.Name, string(p.Type), string(p.Category), p.Price, p.Description, p.Image, options, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert product")
	}
	p.ID = id
	return nil
}

func (s *Store) ReplaceProduct(ctx context.Context, p *catalog.Product) error {
	if !validID(p.ID) {
		return catalog.ErrNotFound
	}
	options, err := encodeOptions(p.Options)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		update products
		set name = $2, type = $3, category = $4, price = $5, description = $6,
		    image = $7, options = $8, is_active = $9, updated_at = $10
		where id = $1
	`, p.ID, p.Name, string(p.Type), string(p.Category), p.Price, p.Description, p.Image, options, p.IsActive, p.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	return expectOne(res, catalog.ErrNotFound)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if !validID(id) {
		return catalog.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `delete from products where id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	return expectOne(res, catalog.ErrNotFound)
}

func (s *Store) ToggleProduct(ctx context.Context, id string) (*catalog.Product, error) {
	if !validID(id) {
		return nil, catalog.ErrNotFound
	}
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		update products
		set is_active = not is_active, updated_at = now()
		where id = $1
		returning `+productColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "toggle product")
	}
	return p, nil
}

// Events

const eventColumns = `id, title, description, date, image, is_active, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*catalog.Event, error) {
	var e catalog.Event
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Image, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	return &e, nil
}

func (s *Store) ListEvents(ctx context.Context, filter catalog.EventFilter) ([]catalog.Event, error) {
	query := `select ` + eventColumns + ` from events`
	if filter.ActiveOnly {
		query += ` where is_active`
	}
	query += ` order by date, created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	defer rows.Close()

	out := []catalog.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		out = append(out, *e)
	}
	return out, errors.Wrap(rows.Err(), "list events")
}

func (s *Store) FindEvent(ctx context.Context, id string) (*catalog.Event, error) {
	if !validID(id) {
		return nil, catalog.ErrNotFound
	}
	e, err := scanEvent(s.db.QueryRowContext(ctx, `select `+eventColumns+` from events where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find event")
	}
	return e, nil
}

func (s *Store) InsertEvent(ctx context.Context, e *catalog.Event) error {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		insert into events (id, title, description, date, image, is_active, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, e.Title, e.Description, e.Date, e.Image, e.IsActive, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert event")
	}
	e.ID = id
	return nil
}

func (s *Store) ReplaceEvent(ctx context.Context, e *catalog.Event) error {
	if !validID(e.ID) {
		return catalog.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		update events
		set title = $2, description = $3, date = $4, image = $5, is_active = $6, updated_at = $7
		where id = $1
	`, e.ID, e.Title, e.Description, e.Date, e.Image, e.IsActive, e.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "update event")
	}
	return expectOne(res, catalog.ErrNotFound)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	if !validID(id) {
		return catalog.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `delete from events where id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete event")
	}
	return expectOne(res, catalog.ErrNotFound)
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
