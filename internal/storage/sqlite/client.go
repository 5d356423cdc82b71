package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/storage"
	"github.com/sourcing-buddy/backend/internal/storage/models"
	"github.com/sourcing-buddy/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

// searchableColumns whitelists the fields a predicate may reference.
var searchableColumns = map[string]bool{
	"material_number":     true,
	"description":         true,
	"old_description":     true,
	"basic_material":      true,
	"material_group":      true,
	"material_type":       true,
	"ext_material_group":  true,
	"size_dimension":      true,
	"vendor_code":         true,
	"vendor_name":         true,
	"purchasing_org":      true,
	"division":            true,
	"organizational_unit": true,
	"grade":               true,
	"company_created":     true,
}

const partColumns = `id, material_number, description, old_description, basic_material,
	material_group, material_type, ext_material_group, size_dimension,
	vendor_code, vendor_name, business_partner, purchasing_document,
	purchase_doc_item, purchasing_org, division, organizational_unit,
	po_value, po_quantity, quantity, in_stock, location, price, weight,
	grade, certifications, created_by, changed_by, created_on, changed_on,
	company_created`

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS parts_data (
		id TEXT PRIMARY KEY,
		material_number TEXT NOT NULL,
		description TEXT,
		old_description TEXT,
		basic_material TEXT,
		material_group TEXT,
		material_type TEXT,
		ext_material_group TEXT,
		size_dimension TEXT,
		vendor_code TEXT,
		vendor_name TEXT,
		business_partner TEXT,
		purchasing_document TEXT,
		purchase_doc_item TEXT,
		purchasing_org TEXT,
		division TEXT,
		organizational_unit TEXT,
		po_value REAL,
		po_quantity REAL,
		quantity REAL,
		in_stock INTEGER DEFAULT 0,
		location TEXT,
		price REAL,
		weight REAL,
		grade TEXT,
		certifications TEXT,
		created_by TEXT,
		changed_by TEXT,
		created_on TEXT,
		changed_on TEXT,
		company_created TEXT,
		imported_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_parts_material_number ON parts_data(material_number);
	CREATE INDEX IF NOT EXISTS idx_parts_material_group ON parts_data(material_group);
	CREATE INDEX IF NOT EXISTS idx_parts_vendor ON parts_data(vendor_code);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// QueryParts executes an AND-of-OR-of-contains predicate against the parts
// table in insertion order, capped at limit. An empty predicate matches all.
func (c *Client) QueryParts(ctx context.Context, pred storage.Predicate, limit int) ([]models.PartRecord, error) {
	var (
		where strings.Builder
		args  []interface{}
	)

	written := 0
	for _, clause := range pred {
		if len(clause) == 0 {
			continue
		}
		if written > 0 {
			where.WriteString(" AND ")
		}
		written++
		where.WriteString("(")
		for j, test := range clause {
			if !searchableColumns[test.Field] {
				return nil, fmt.Errorf("%w: unsearchable field %q", storage.ErrStoreUnavailable, test.Field)
			}
			if j > 0 {
				where.WriteString(" OR ")
			}
			where.WriteString(fmt.Sprintf("LOWER(COALESCE(%s, '')) LIKE ?", test.Field))
			args = append(args, "%"+strings.ToLower(test.Value)+"%")
		}
		where.WriteString(")")
	}

	query := fmt.Sprintf("SELECT %s FROM parts_data", partColumns)
	if where.Len() > 0 {
		query += " WHERE " + where.String()
	}
	query += " LIMIT ?"
	args = append(args, limit)

	return c.queryRecords(ctx, query, args...)
}

// ListParts returns up to limit parts in insertion order, no predicate.
func (c *Client) ListParts(ctx context.Context, limit int) ([]models.PartRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM parts_data LIMIT ?", partColumns)
	return c.queryRecords(ctx, query, limit)
}

// SharedAttributeParts returns candidates sharing a material group, basic
// material or external material group with the focal part, excluding the
// focal part's own material number. Returns nil without querying when the
// focal part has none of the three attributes.
func (c *Client) SharedAttributeParts(ctx context.Context, focal models.PartRecord, limit int) ([]models.PartRecord, error) {
	var (
		ors  []string
		args []interface{}
	)

	for col, val := range map[string]string{
		"material_group":     focal.MaterialGroup,
		"basic_material":     focal.BasicMaterial,
		"ext_material_group": focal.ExtMaterialGroup,
	} {
		if val == "" {
			continue
		}
		ors = append(ors, fmt.Sprintf("LOWER(COALESCE(%s, '')) LIKE ?", col))
		args = append(args, "%"+strings.ToLower(val)+"%")
	}

	if len(ors) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT %s FROM parts_data WHERE material_number != ? AND (%s) LIMIT ?",
		partColumns, strings.Join(ors, " OR "),
	)
	allArgs := append([]interface{}{focal.MaterialNumber}, args...)
	allArgs = append(allArgs, limit)

	return c.queryRecords(ctx, query, allArgs...)
}

func (c *Client) GetPartByMaterialNumber(ctx context.Context, materialNumber string) (*models.PartRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM parts_data WHERE material_number = ? LIMIT 1", partColumns)

	records, err := c.queryRecords(ctx, query, materialNumber)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ReplaceAll clears the parts table and inserts the given rows in batches.
func (c *Client) ReplaceAll(ctx context.Context, rows []models.PartRecord, batchSize int, importedAt int64) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin import: %v", storage.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM parts_data"); err != nil {
		return 0, fmt.Errorf("%w: clear parts: %v", storage.ErrStoreUnavailable, err)
	}

	insert := `INSERT INTO parts_data (` + partColumns + `, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare import: %v", storage.ErrStoreUnavailable, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, row := range rows {
		certsJSON, _ := json.Marshal(row.Certifications)
		inStock := 0
		if row.InStock {
			inStock = 1
		}

		_, err := stmt.ExecContext(ctx,
			row.ID, row.MaterialNumber, row.Description, row.OldDescription,
			row.BasicMaterial, row.MaterialGroup, row.MaterialType,
			row.ExtMaterialGroup, row.SizeDimension, row.VendorCode,
			row.VendorName, row.BusinessPartner, row.PurchasingDocument,
			row.PurchaseDocItem, row.PurchasingOrg, row.Division,
			row.OrganizationalUnit, row.POValue, row.POQuantity, row.Quantity,
			inStock, row.Location, row.Price, row.Weight, row.Grade,
			string(certsJSON), row.CreatedBy, row.ChangedBy, row.CreatedOn,
			row.ChangedOn, row.CompanyCreated, importedAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("%w: insert part %s: %v", storage.ErrStoreUnavailable, row.MaterialNumber, err)
		}

		inserted++
		if batchSize > 0 && inserted%batchSize == 0 {
			logger.Debug("Import batch committed", zap.Int("inserted", inserted))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit import: %v", storage.ErrStoreUnavailable, err)
	}

	logger.Info("Parts table replaced", zap.Int("rows", inserted))
	return inserted, nil
}

func (c *Client) queryRecords(ctx context.Context, query string, args ...interface{}) ([]models.PartRecord, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query parts: %v", storage.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var records []models.PartRecord
	for rows.Next() {
		record, err := scanPart(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan part: %v", storage.ErrStoreUnavailable, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate parts: %v", storage.ErrStoreUnavailable, err)
	}

	return records, nil
}

func scanPart(rows *sql.Rows) (models.PartRecord, error) {
	var (
		r         models.PartRecord
		opt       [22]sql.NullString
		poValue   sql.NullFloat64
		poQty     sql.NullFloat64
		quantity  sql.NullFloat64
		price     sql.NullFloat64
		weight    sql.NullFloat64
		inStock   sql.NullInt64
		certsJSON sql.NullString
	)

	err := rows.Scan(
		&r.ID, &r.MaterialNumber, &opt[0], &opt[1], &opt[2], &opt[3], &opt[4],
		&opt[5], &opt[6], &opt[7], &opt[8], &opt[9], &opt[10], &opt[11],
		&opt[12], &opt[13], &opt[14], &poValue, &poQty, &quantity, &inStock,
		&opt[15], &price, &weight, &opt[16], &certsJSON, &opt[17], &opt[18],
		&opt[19], &opt[20], &opt[21],
	)
	if err != nil {
		return r, err
	}

	r.Description = opt[0].String
	r.OldDescription = opt[1].String
	r.BasicMaterial = opt[2].String
	r.MaterialGroup = opt[3].String
	r.MaterialType = opt[4].String
	r.ExtMaterialGroup = opt[5].String
	r.SizeDimension = opt[6].String
	r.VendorCode = opt[7].String
	r.VendorName = opt[8].String
	r.BusinessPartner = opt[9].String
	r.PurchasingDocument = opt[10].String
	r.PurchaseDocItem = opt[11].String
	r.PurchasingOrg = opt[12].String
	r.Division = opt[13].String
	r.OrganizationalUnit = opt[14].String
	r.Location = opt[15].String
	r.Grade = opt[16].String
	r.CreatedBy = opt[17].String
	r.ChangedBy = opt[18].String
	r.CreatedOn = opt[19].String
	r.ChangedOn = opt[20].String
	r.CompanyCreated = opt[21].String

	if poValue.Valid {
		r.POValue = &poValue.Float64
	}
	if poQty.Valid {
		r.POQuantity = &poQty.Float64
	}
	if quantity.Valid {
		r.Quantity = &quantity.Float64
	}
	if price.Valid {
		r.Price = &price.Float64
	}
	if weight.Valid {
		r.Weight = &weight.Float64
	}
	r.InStock = inStock.Valid && inStock.Int64 != 0

	if certsJSON.Valid && certsJSON.String != "" {
		json.Unmarshal([]byte(certsJSON.String), &r.Certifications)
	}

	return r, nil
}
