package service

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// DataSourceConfig holds connection details
type DataSourceConfig struct {
	Type     string `json:"type"` // "postgres", "mysql"
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"` // "disable", "require"
	DSN      string `json:"dsn"`     // overrides the fields above when set
}

// DataSource defines the interface for catalog data sources
type DataSource interface {
	Connect(ctx context.Context, config DataSourceConfig) error
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	PreviewData(ctx context.Context, tableName string, limit int) ([]map[string]interface{}, error)
}

// NewDataSource returns the driver-specific source for config.Type.
func NewDataSource(kind string) (DataSource, error) {
	switch strings.ToLower(kind) {
	case "", "postgres", "postgresql":
		return &sqlDataSource{driver: "postgres", dialect: postgresDialect{}}, nil
	case "mysql", "mariadb":
		return &sqlDataSource{driver: "mysql", dialect: mysqlDialect{}}, nil
	}
	return nil, fmt.Errorf("unsupported database type %q", kind)
}

type dialect interface {
	dsn(config DataSourceConfig) (string, error)
	listTablesQuery() string
	quote(ident string) string
}

type sqlDataSource struct {
	driver  string
	dialect dialect
	db      *sql.DB
}

func (s *sqlDataSource) Connect(ctx context.Context, config DataSourceConfig) error {
	dsn, err := s.dialect.dsn(config)
	if err != nil {
		return err
	}
	db, err := sql.Open(s.driver, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.driver, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("ping %s: %w", s.driver, err)
	}
	s.db = db
	return nil
}

func (s *sqlDataSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *sqlDataSource) ListTables(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.listTablesQuery())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

func (s *sqlDataSource) PreviewData(ctx context.Context, tableName string, limit int) ([]map[string]interface{}, error) {
	if s.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	if !tableNamePattern.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name %q", tableName)
	}
	if limit <= 0 {
		limit = 1000
	}
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", s.dialect.quote(tableName), limit)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		rowMap := make(map[string]interface{})
		for i, col := range columns {
			// drivers hand text back as []byte
			if b, ok := values[i].([]byte); ok {
				rowMap[col] = string(b)
			} else {
				rowMap[col] = values[i]
			}
		}
		result = append(result, rowMap)
	}
	return result, rows.Err()
}

type postgresDialect struct{}

func (postgresDialect) dsn(config DataSourceConfig) (string, error) {
	if config.DSN != "" {
		return config.DSN, nil
	}
	if config.Host == "" || config.DBName == "" {
		return "", fmt.Errorf("postgres: host and dbname are required")
	}
	port := config.Port
	if port == 0 {
		port = 5432
	}
	sslmode := config.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, port, config.User, config.Password, config.DBName, sslmode), nil
}

func (postgresDialect) listTablesQuery() string {
	return `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name;
	`
}

func (postgresDialect) quote(ident string) string { return `"` + ident + `"` }

type mysqlDialect struct{}

func (mysqlDialect) dsn(config DataSourceConfig) (string, error) {
	if config.DSN != "" {
		return ToMySQLDSN(config.DSN)
	}
	if config.Host == "" || config.DBName == "" {
		return "", fmt.Errorf("mysql: host and dbname are required")
	}
	port := config.Port
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.User = config.User
	cfg.Passwd = config.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(config.Host, strconv.Itoa(port))
	cfg.DBName = config.DBName
	cfg.ParseTime = true
	cfg.InterpolateParams = true
	return cfg.FormatDSN(), nil
}

func (mysqlDialect) listTablesQuery() string {
	return `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		ORDER BY table_name;
	`
}

func (mysqlDialect) quote(ident string) string { return "`" + ident + "`" }

// ToMySQLDSN converts mysql:// and mariadb:// URLs to a driver DSN. Anything
// else is validated as a driver DSN and returned unchanged.
func ToMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		cfg := mysql.NewConfig()
		if u.User != nil {
			cfg.User = u.User.Username()
			cfg.Passwd, _ = u.User.Password()
		}
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		if cfg.User == "" || cfg.Addr == "" || cfg.DBName == "" {
			return "", fmt.Errorf("incomplete dsn: user, host and database are required")
		}
		cfg.ParseTime = true
		cfg.InterpolateParams = true
		return cfg.FormatDSN(), nil
	}
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	return dsn, nil
}
