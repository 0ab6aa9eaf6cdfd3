package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/okian/outreach/internal/domain/contact"
	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/types"
)

// Querier is the statement surface shared by a pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the subset of *pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	pool Pool
	now  func() time.Time
}

// NewPostgres opens a connection pool and verifies it with a ping.
func NewPostgres(ctx context.Context, connString string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return NewPostgresWithPool(pool), nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var filingColumns = []string{
	"id", "dedup_hash", "hcp_number", "application_number", "clinic_name",
	"address", "city", "state", "zip",
	"contact_name", "contact_title", "contact_email", "contact_phone",
	"mail_contact_first_name", "mail_contact_last_name", "mail_contact_org_name", "mail_contact_email", "mail_contact_phone",
	"filing_date", "posting_date", "allowable_contract_start_date", "funding_year", "program_type",
	"application_type", "service_type", "description_of_services", "contract_length_months", "bandwidth_mbps", "pdf_url",
	"is_consultant", "consultant_company", "consultant_email_domain", "consultant_detection_method",
	"requested_service_category",
	"year1_funding", "year2_funding", "year3_funding", "total_3yr_funding", "funding_threshold",
	"priority_score", "priority_label", "abc_route", "route_reasoning", "email_template_type",
	"contact_is_consultant", "mail_contact_is_consultant", "outreach_status", "notes",
	"belongs_to_group_id", "created_at", "updated_at",
}

var (
	selectFilingSQL = "SELECT " + strings.Replace(strings.Join(filingColumns, ", "),
		"belongs_to_group_id", "COALESCE(belongs_to_group_id, '')", 1) + " FROM filings"

	insertFilingSQL = "INSERT INTO filings (" + strings.Join(filingColumns, ", ") + ") VALUES (" +
		placeholders(1, len(filingColumns)) + ") ON CONFLICT (dedup_hash) DO NOTHING"
)

const saveClassificationSQL = `UPDATE filings SET
	is_consultant = $2, consultant_company = $3, consultant_email_domain = $4, consultant_detection_method = $5,
	requested_service_category = $6,
	year1_funding = $7, year2_funding = $8, year3_funding = $9, total_3yr_funding = $10, funding_threshold = $11,
	priority_score = $12, priority_label = $13, abc_route = $14, route_reasoning = $15, email_template_type = $16,
	updated_at = $17
WHERE id = $1`

const bulkRetagSQL = `UPDATE filings SET
	is_consultant = true, consultant_company = $2, consultant_email_domain = $3,
	consultant_detection_method = 'auto_domain', updated_at = $4
WHERE id <> $1
	AND (lower(trim(split_part(mail_contact_email, '@', 2))) = $3 OR consultant_email_domain = $3)
	AND consultant_detection_method NOT IN ('manual_tagged', 'manual_untagged')
RETURNING id`

const upsertDomainSQL = `INSERT INTO consultant_email_domains (domain, associated_company, added_by, is_active, notes, updated_at)
VALUES ($1, $2, $3, true, '', $4)
ON CONFLICT (domain) DO UPDATE SET
	associated_company = EXCLUDED.associated_company,
	added_by = EXCLUDED.added_by,
	is_active = true,
	updated_at = EXCLUDED.updated_at`

const deactivateDomainSQL = `UPDATE consultant_email_domains SET is_active = false, notes = $2, updated_at = $3 WHERE domain = $1`

func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}

func (s *PostgresStore) InsertFiling(ctx context.Context, f model.Filing) (model.Filing, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := s.now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.OutreachStatus == "" {
		f.OutreachStatus = model.OutreachPending
	}
	if f.Notes == nil {
		f.Notes = []model.Note{}
	}
	f.HistoricalFunding = nil

	notes, err := json.Marshal(f.Notes)
	if err != nil {
		return model.Filing{}, eris.Wrap(err, "postgres: marshal notes")
	}
	var groupID *string
	if f.GroupID != "" {
		groupID = &f.GroupID
	}

	tag, err := s.pool.Exec(ctx, insertFilingSQL,
		f.ID, f.DedupHash, f.HCPNumber, f.ApplicationNumber, f.ClinicName,
		f.Address, f.City, f.State, f.Zip,
		f.ContactName, f.ContactTitle, f.ContactEmail, f.ContactPhone,
		f.MailContactFirstName, f.MailContactLastName, f.MailContactOrgName, f.MailContactEmail, f.MailContactPhone,
		f.FilingDate, f.PostingDate, f.AllowableContractStartDate, f.FundingYear, f.ProgramType,
		f.ApplicationType, f.ServiceTypeRaw, f.DescriptionOfServices, f.ContractLengthMonths, f.BandwidthMbps, f.PDFURL,
		f.IsConsultant, f.ConsultantCompany, f.ConsultantEmailDomain, string(f.ConsultantDetectionMethod),
		string(f.ServiceCategory),
		f.Year1Funding, f.Year2Funding, f.Year3Funding, f.Total3yrFunding, string(f.FundingThreshold),
		f.PriorityScore, string(f.PriorityLabel), string(f.Route), f.RouteReasoning, string(f.EmailTemplateType),
		f.ContactIsConsultant, f.MailContactIsConsultant, string(f.OutreachStatus), notes,
		groupID, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Filing{}, ErrDuplicate
		}
		return model.Filing{}, eris.Wrap(err, "postgres: insert filing")
	}
	if tag.RowsAffected() == 0 {
		return model.Filing{}, ErrDuplicate
	}
	return f, nil
}

func (s *PostgresStore) Filing(ctx context.Context, id string) (model.Filing, error) {
	f, err := scanFiling(s.pool.QueryRow(ctx, selectFilingSQL+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Filing{}, ErrNotFound
	}
	return f, eris.Wrap(err, "postgres: get filing")
}

func (s *PostgresStore) FilingByHash(ctx context.Context, hash string) (model.Filing, error) {
	f, err := scanFiling(s.pool.QueryRow(ctx, selectFilingSQL+" WHERE dedup_hash = $1", hash))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Filing{}, ErrNotFound
	}
	return f, eris.Wrap(err, "postgres: get filing by hash")
}

func (s *PostgresStore) ListFilings(ctx context.Context, flt Filter) ([]model.Filing, int, error) {
	if flt.Limit < 1 || flt.Offset < 0 {
		return nil, 0, ErrInvalidLimit
	}
	where, args := filterClause(&flt)

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM filings"+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "postgres: count filings")
	}

	n := len(args)
	query := fmt.Sprintf("%s%s ORDER BY priority_score DESC, id ASC LIMIT $%d OFFSET $%d",
		selectFilingSQL, where, n+1, n+2)
	args = append(args, flt.Limit, flt.Offset)

	out, err := s.queryFilings(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "postgres: list filings")
	}
	return out, total, nil
}

// filterClause renders the WHERE clause for a filter, numbering placeholders from $1.
func filterClause(flt *Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if flt.State != "" {
		add("upper(state) = upper($%d)", flt.State)
	}
	if flt.ServiceCategory != "" {
		add("requested_service_category = $%d", string(flt.ServiceCategory))
	}
	if flt.Consultant != nil {
		add("is_consultant = $%d", *flt.Consultant)
	}
	if flt.Route != "" {
		add("abc_route = $%d", string(flt.Route))
	}
	if flt.PriorityLabel != "" {
		add("priority_label = $%d", string(flt.PriorityLabel))
	}
	if flt.OutreachStatus != "" {
		add("outreach_status = $%d", string(flt.OutreachStatus))
	}
	if flt.HCPNumber != "" {
		add("hcp_number = $%d", flt.HCPNumber)
	}
	if flt.FilingDateFrom != "" {
		add("left(filing_date, 10) >= $%d", flt.FilingDateFrom)
	}
	if flt.FilingDateTo != "" {
		add("left(filing_date, 10) <= $%d", flt.FilingDateTo)
	}
	if flt.Search != "" {
		args = append(args, "%"+flt.Search+"%")
		i := len(args)
		conds = append(conds, fmt.Sprintf(
			"(clinic_name ILIKE $%d OR hcp_number ILIKE $%d OR application_number ILIKE $%d)", i, i, i))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) FilingsByProvider(ctx context.Context, hcpNumber string) ([]model.Filing, error) {
	out, err := s.queryFilings(ctx, selectFilingSQL+" WHERE hcp_number = $1 ORDER BY filing_date, id", hcpNumber)
	return out, eris.Wrap(err, "postgres: filings by provider")
}

func (s *PostgresStore) queryFilings(ctx context.Context, query string, args ...any) ([]model.Filing, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Filing
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFiling(row scannable) (model.Filing, error) {
	var (
		f                                               model.Filing
		method, category, threshold, label, route, tmpl string
		status                                          string
		notes                                           []byte
	)
	err := row.Scan(
		&f.ID, &f.DedupHash, &f.HCPNumber, &f.ApplicationNumber, &f.ClinicName,
		&f.Address, &f.City, &f.State, &f.Zip,
		&f.ContactName, &f.ContactTitle, &f.ContactEmail, &f.ContactPhone,
		&f.MailContactFirstName, &f.MailContactLastName, &f.MailContactOrgName, &f.MailContactEmail, &f.MailContactPhone,
		&f.FilingDate, &f.PostingDate, &f.AllowableContractStartDate, &f.FundingYear, &f.ProgramType,
		&f.ApplicationType, &f.ServiceTypeRaw, &f.DescriptionOfServices, &f.ContractLengthMonths, &f.BandwidthMbps, &f.PDFURL,
		&f.IsConsultant, &f.ConsultantCompany, &f.ConsultantEmailDomain, &method,
		&category,
		&f.Year1Funding, &f.Year2Funding, &f.Year3Funding, &f.Total3yrFunding, &threshold,
		&f.PriorityScore, &label, &route, &f.RouteReasoning, &tmpl,
		&f.ContactIsConsultant, &f.MailContactIsConsultant, &status, &notes,
		&f.GroupID, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return model.Filing{}, err
	}
	f.ConsultantDetectionMethod = model.DetectionMethod(method)
	f.ServiceCategory = model.ServiceCategory(category)
	f.FundingThreshold = model.FundingThreshold(threshold)
	f.PriorityLabel = model.PriorityLabel(label)
	f.Route = model.Route(route)
	f.EmailTemplateType = model.TemplateType(tmpl)
	f.OutreachStatus = model.OutreachStatus(status)
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &f.Notes); err != nil {
			return model.Filing{}, eris.Wrap(err, "postgres: unmarshal notes")
		}
	}
	return f, nil
}

func classificationArgs(id string, c *model.Classification, now time.Time) []any {
	return []any{
		id,
		c.IsConsultant, c.ConsultantCompany, c.ConsultantEmailDomain, string(c.ConsultantDetectionMethod),
		string(c.ServiceCategory),
		c.Year1Funding, c.Year2Funding, c.Year3Funding, c.Total3yrFunding, string(c.FundingThreshold),
		c.PriorityScore, string(c.PriorityLabel), string(c.Route), c.RouteReasoning, string(c.EmailTemplateType),
		now,
	}
}

func (s *PostgresStore) Reclassify(ctx context.Context, id string, derive Deriver) (model.Filing, bool, error) {
	var (
		out     model.Filing
		changed bool
	)
	err := s.inTx(ctx, "reclassify", func(tx pgx.Tx) error {
		f, err := scanFiling(tx.QueryRow(ctx, selectFilingSQL+" WHERE id = $1 FOR UPDATE", id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return eris.Wrap(err, "postgres: lock filing")
		}
		history, err := providerFunding(ctx, tx, f.HCPNumber)
		if err != nil {
			return err
		}

		out = f
		c := derive(&f, history)
		if c == out.Classification {
			return nil
		}
		now := s.now()
		if err := saveClassification(ctx, tx, id, &c, now); err != nil {
			return err
		}
		out.Classification = c
		out.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return model.Filing{}, false, err
	}
	return out, changed, nil
}

func saveClassification(ctx context.Context, q Querier, id string, c *model.Classification, now time.Time) error {
	tag, err := q.Exec(ctx, saveClassificationSQL, classificationArgs(id, c, now)...)
	if err != nil {
		return eris.Wrap(err, "postgres: save classification")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetProviderFunding(ctx context.Context, hcpNumber string, years []model.FundingYear) error {
	return s.inTx(ctx, "set provider funding", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM provider_funding WHERE hcp_number = $1`, hcpNumber); err != nil {
			return eris.Wrap(err, "postgres: clear provider funding")
		}
		for _, y := range years {
			locs := y.Locations
			if locs == nil {
				locs = []model.FundingLocation{}
			}
			raw, err := json.Marshal(locs)
			if err != nil {
				return eris.Wrap(err, "postgres: marshal locations")
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO provider_funding (hcp_number, year, amount, locations) VALUES ($1, $2, $3, $4)
				ON CONFLICT (hcp_number, year) DO UPDATE SET amount = EXCLUDED.amount, locations = EXCLUDED.locations`,
				hcpNumber, y.Year, y.Amount, raw,
			); err != nil {
				return eris.Wrapf(err, "postgres: insert funding year %d", y.Year)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ProviderFunding(ctx context.Context, hcpNumber string) ([]model.FundingYear, error) {
	return providerFunding(ctx, s.pool, hcpNumber)
}

func providerFunding(ctx context.Context, q Querier, hcpNumber string) ([]model.FundingYear, error) {
	rows, err := q.Query(ctx,
		`SELECT year, amount, locations FROM provider_funding WHERE hcp_number = $1 ORDER BY year DESC`, hcpNumber)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: provider funding")
	}
	defer rows.Close()

	var out []model.FundingYear
	for rows.Next() {
		var (
			y   model.FundingYear
			raw []byte
		)
		if err := rows.Scan(&y.Year, &y.Amount, &raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan funding year")
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &y.Locations); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal locations")
			}
		}
		if len(y.Locations) == 0 {
			y.Locations = nil
		}
		out = append(out, y)
	}
	return out, eris.Wrap(rows.Err(), "postgres: provider funding iterate")
}

func (s *PostgresStore) ApplyConsultantTag(ctx context.Context, tagged model.Filing, bulk contact.BulkRetag) ([]string, error) {
	var retagged []string
	err := s.inTx(ctx, "consultant tag", func(tx pgx.Tx) error {
		now := s.now()
		if err := saveClassification(ctx, tx, tagged.ID, &tagged.Classification, now); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, bulkRetagSQL, bulk.ExcludeID, bulk.Company, bulk.Domain, now)
		if err != nil {
			return eris.Wrap(err, "postgres: bulk retag")
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return eris.Wrap(err, "postgres: scan retagged id")
			}
			retagged = append(retagged, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return eris.Wrap(err, "postgres: bulk retag iterate")
		}

		entry := bulk.Registry()
		if _, err := tx.Exec(ctx, upsertDomainSQL, entry.Domain, entry.AssociatedCompany, entry.AddedBy, now); err != nil {
			return eris.Wrap(err, "postgres: upsert consultant domain")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return retagged, nil
}

func (s *PostgresStore) ApplyConsultantUntag(ctx context.Context, untagged model.Filing, domain string) error {
	return s.inTx(ctx, "consultant untag", func(tx pgx.Tx) error {
		now := s.now()
		if err := saveClassification(ctx, tx, untagged.ID, &untagged.Classification, now); err != nil {
			return err
		}
		if domain == "" {
			return nil
		}
		if _, err := tx.Exec(ctx, deactivateDomainSQL, domain, deactivatedNote, now); err != nil {
			return eris.Wrap(err, "postgres: deactivate consultant domain")
		}
		return nil
	})
}

func (s *PostgresStore) SetContactFlags(ctx context.Context, id string, primary, mail bool) error {
	return s.execOne(ctx, "set contact flags",
		`UPDATE filings SET contact_is_consultant = $2, mail_contact_is_consultant = $3, updated_at = $4 WHERE id = $1`,
		id, primary, mail, s.now())
}

func (s *PostgresStore) AppendNote(ctx context.Context, id string, note model.Note) error {
	raw, err := json.Marshal([]model.Note{note})
	if err != nil {
		return eris.Wrap(err, "postgres: marshal note")
	}
	return s.execOne(ctx, "append note",
		`UPDATE filings SET notes = notes || $2::jsonb, updated_at = $3 WHERE id = $1`,
		id, raw, s.now())
}

func (s *PostgresStore) SetOutreachStatus(ctx context.Context, id string, status model.OutreachStatus) error {
	return s.execOne(ctx, "set outreach status",
		`UPDATE filings SET outreach_status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), s.now())
}

// execOne runs an update that must touch exactly one filing.
func (s *PostgresStore) execOne(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: %s", op)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateGroup(ctx context.Context, g model.Group) (model.Group, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	err := s.inTx(ctx, "create group", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO filing_groups (id, group_name, primary_clinic_id, clinic_ids, total_funding_amount, location_count, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			g.ID, g.Name, g.PrimaryFilingID, g.FilingIDs, g.TotalFundingAmount, g.LocationCount, g.CreatedAt,
		); err != nil {
			return eris.Wrap(err, "postgres: insert group")
		}
		tag, err := tx.Exec(ctx,
			`UPDATE filings SET belongs_to_group_id = $1, updated_at = $3 WHERE id = ANY($2)`,
			g.ID, g.FilingIDs, g.CreatedAt)
		if err != nil {
			return eris.Wrap(err, "postgres: assign group members")
		}
		if int(tag.RowsAffected()) != len(g.FilingIDs) {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return model.Group{}, err
	}
	return g, nil
}

const selectGroupSQL = `SELECT id, group_name, primary_clinic_id, clinic_ids, total_funding_amount, location_count, created_at FROM filing_groups`

func scanGroup(row scannable) (model.Group, error) {
	var g model.Group
	err := row.Scan(&g.ID, &g.Name, &g.PrimaryFilingID, &g.FilingIDs, &g.TotalFundingAmount, &g.LocationCount, &g.CreatedAt)
	return g, err
}

func (s *PostgresStore) Group(ctx context.Context, id string) (model.Group, error) {
	g, err := scanGroup(s.pool.QueryRow(ctx, selectGroupSQL+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Group{}, ErrNotFound
	}
	return g, eris.Wrap(err, "postgres: get group")
}

func (s *PostgresStore) Groups(ctx context.Context) ([]model.Group, error) {
	rows, err := s.pool.Query(ctx, selectGroupSQL+" ORDER BY created_at DESC, id ASC")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list groups")
	}
	defer rows.Close()

	out := []model.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan group")
		}
		out = append(out, g)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list groups iterate")
}

func (s *PostgresStore) ConsultantDomains(ctx context.Context) ([]model.ConsultantDomain, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT domain, associated_company, added_by, is_active, notes, updated_at FROM consultant_email_domains ORDER BY domain`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list consultant domains")
	}
	defer rows.Close()

	out := []model.ConsultantDomain{}
	for rows.Next() {
		var d model.ConsultantDomain
		if err := rows.Scan(&d.Domain, &d.AssociatedCompany, &d.AddedBy, &d.IsActive, &d.Notes, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan consultant domain")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list consultant domains iterate")
}

func (s *PostgresStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, clinic_name, priority_score, priority_label, abc_route FROM filings
		ORDER BY priority_score DESC, id ASC LIMIT $1`, n)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: top filings")
	}
	defer rows.Close()

	out := make([]types.Entry, 0, n)
	for rows.Next() {
		var (
			e            types.Entry
			label, route string
		)
		if err := rows.Scan(&e.FilingID, &e.ClinicName, &e.Score, &label, &route); err != nil {
			return nil, eris.Wrap(err, "postgres: scan top filing")
		}
		e.Rank = len(out) + 1
		e.Label = model.PriorityLabel(label)
		e.Route = model.Route(route)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: top filings iterate")
}

func (s *PostgresStore) Rank(ctx context.Context, id string) (types.Entry, error) {
	var (
		e            types.Entry
		label, route string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT rank, id, clinic_name, priority_score, priority_label, abc_route FROM (
			SELECT id, clinic_name, priority_score, priority_label, abc_route,
				ROW_NUMBER() OVER (ORDER BY priority_score DESC, id ASC) AS rank
			FROM filings
		) ranked WHERE id = $1`, id,
	).Scan(&e.Rank, &e.FilingID, &e.ClinicName, &e.Score, &label, &route)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Entry{}, ErrNotFound
	}
	if err != nil {
		return types.Entry{}, eris.Wrap(err, "postgres: rank filing")
	}
	e.Label = model.PriorityLabel(label)
	e.Route = model.Route(route)
	return e, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM filings`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count filings")
}

// inTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *PostgresStore) inTx(ctx context.Context, op string, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrapf(err, "postgres: %s: begin tx", op)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return eris.Wrapf(tx.Commit(ctx), "postgres: %s: commit tx", op)
}
