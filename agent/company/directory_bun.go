package company

import (
	"context"
	"database/sql"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type knownCompanyRow struct {
	bun.BaseModel `bun:"table:known_companies,alias:kc"`

	CompanyName    string   `bun:"company_name,pk"`
	ProjectDetails string   `bun:"project_details"`
	WorkedWith     string   `bun:"worked_with"`
	Contacts       []string `bun:"contacts,array"`
}

// OpenDB opens a Postgres connection for the known-company dataset.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// LoadDirectoryDB loads the known-company dataset from Postgres. Like the
// file loader it runs once at startup; the resulting Directory is immutable.
func LoadDirectoryDB(ctx context.Context, db bun.IDB) (*Directory, error) {
	var rows []knownCompanyRow
	if err := db.NewSelect().
		Model(&rows).
		Order("company_name ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("select known companies: %w", err)
	}

	records := make([]contractx.KnownCompanyRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, contractx.KnownCompanyRecord{
			CompanyName:    row.CompanyName,
			ProjectDetails: row.ProjectDetails,
			WorkedWith:     row.WorkedWith,
			Contacts:       row.Contacts,
		})
	}
	return NewDirectory(records), nil
}
