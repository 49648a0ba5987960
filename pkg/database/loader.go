package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"return-insight/pkg/dataset"
	"return-insight/pkg/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultTable est la table des ventes lue quand aucune n'est configurée.
const DefaultTable = "sales"

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open DSN mariadb://, mysql:// ou sqlite:// → driver + DSN natif
func Open(dsn string) (*sql.DB, string, error) {
	driver, nativeDSN, err := toDriverDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(driver, nativeDSN)
	if err != nil {
		return nil, "", err
	}
	if driver == "sqlite3" {
		// une seule connexion : une base :memory: n'est pas partagée entre connexions
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nativeDSN, nil
}

// Redact masque le mot de passe d'un DSN (forme URL ou native user:pass@tcp(...)/db).
func Redact(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	if colon := strings.Index(dsn[:at], ":"); colon >= 0 {
		return dsn[:colon+1] + "xxxxx" + dsn[at:]
	}
	return dsn
}

func toDriverDSN(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "sqlite://") {
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("dsn sqlite sans chemin")
		}
		return "sqlite3", path, nil
	}
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return "", "", err
	}
	return "mysql", mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// LoadSales lit la table des ventes et la présente comme un dataset.Frame.
// Mêmes règles que le CSV : Product et Returned obligatoires, Category optionnelle.
func LoadSales(ctx context.Context, db *sql.DB, tableName string) (*dataset.Frame, error) {
	source := "table " + tableName
	if !tableNameRe.MatchString(tableName) {
		return nil, &dataset.DataLoadError{Path: source, Err: fmt.Errorf("table invalide")}
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", tableName))
	if err != nil {
		return nil, &dataset.DataLoadError{Path: source, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &dataset.DataLoadError{Path: source, Err: err}
	}
	idx := map[string]int{}
	for i, c := range cols {
		idx[c] = i
	}
	prodIdx, okProd := idx[dataset.ColumnProduct]
	retIdx, okRet := idx[dataset.ColumnReturned]
	if !okProd || !okRet {
		return nil, &dataset.DataLoadError{Path: source, Err: fmt.Errorf("missing required columns (need %s, %s; got %v)",
			dataset.ColumnProduct, dataset.ColumnReturned, cols)}
	}
	catIdx, hasCat := idx[dataset.ColumnCategory]

	// Toutes les colonnes sont scannées en texte, puis converties comme dans le CSV.
	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	var out []models.SaleRow
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, &dataset.DataLoadError{Path: source, Err: err}
		}
		returned, err := dataset.ParseReturned(values[retIdx].String)
		if err != nil {
			return nil, &dataset.DataLoadError{Path: source, Err: fmt.Errorf("row %d: %w", len(out)+1, err)}
		}
		row := models.SaleRow{Product: values[prodIdx].String, Returned: returned}
		if hasCat {
			row.Category = values[catIdx].String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &dataset.DataLoadError{Path: source, Err: err}
	}

	return dataset.NewFrame(source, cols, out), nil
}
