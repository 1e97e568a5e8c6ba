package fleet

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence for the fleet ledgers.
type Repository interface {
	ListFuelLogs(ctx context.Context, filters FuelLogFilters) ([]FuelLog, error)
	FuelLogsForAverages(ctx context.Context) ([]FuelLog, error)
	CreateFuelLog(ctx context.Context, log FuelLog) (int64, error)
	UpdateFuelLog(ctx context.Context, log FuelLog) error
	DeleteFuelLog(ctx context.Context, id int64) error

	ListFuelPrices(ctx context.Context) ([]FuelPrice, error)
	CreateFuelPrice(ctx context.Context, price FuelPrice) (int64, error)
	UpdateFuelPrice(ctx context.Context, fuel string, price float64) error

	ListMaintenance(ctx context.Context, status string) ([]Maintenance, error)
	CreateMaintenance(ctx context.Context, m Maintenance) (int64, error)
	UpdateMaintenance(ctx context.Context, m Maintenance) error
	DeleteMaintenance(ctx context.Context, id int64) error
	MaintenanceStats(ctx context.Context) (MaintenanceStats, error)

	ListOilChanges(ctx context.Context) ([]OilChange, error)
	GetOilChange(ctx context.Context, unit, oilType string) (OilChange, error)
	UpsertOilChange(ctx context.Context, oc OilChange) error
	DeleteOilChange(ctx context.Context, unit, oilType string) error

	ListTolls(ctx context.Context, from, to string) ([]Toll, error)
	CreateToll(ctx context.Context, toll Toll) (int64, error)
	UpdateToll(ctx context.Context, toll Toll) error
	DeleteToll(ctx context.Context, id int64) error

	ListChecklists(ctx context.Context, unit string) ([]Checklist, error)
	CreateChecklist(ctx context.Context, c Checklist) (int64, error)
	UpdateChecklist(ctx context.Context, c Checklist) error
	DeleteChecklist(ctx context.Context, id int64) error
	LatestReading(ctx context.Context, unit string) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const fuelLogColumns = `id, date, plate, km, fuel, litres, cost_per_litre, gross_cost, discount, net_cost,
station, driver, cost_center, notes`

// ListFuelLogs returns the filtered fuel ledger, newest first.
func (r *PGRepository) ListFuelLogs(ctx context.Context, filters FuelLogFilters) ([]FuelLog, error) {
	query := `SELECT ` + fuelLogColumns + ` FROM fuel_logs WHERE 1=1`
	args := []any{}
	argNum := 0

	if !filters.From.IsZero() {
		argNum++
		query += ` AND date >= $` + strconv.Itoa(argNum)
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argNum++
		query += ` AND date <= $` + strconv.Itoa(argNum)
		args = append(args, filters.To)
	}
	for _, f := range []struct {
		column string
		value  string
	}{
		{"plate", filters.Plate},
		{"fuel", filters.Fuel},
		{"station", filters.Station},
		{"cost_center", filters.CostCenter},
	} {
		if f.value != "" {
			argNum++
			query += ` AND ` + f.column + ` = $` + strconv.Itoa(argNum)
			args = append(args, f.value)
		}
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []FuelLog
	for rows.Next() {
		log, err := scanFuelLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// FuelLogsForAverages returns fill-ups ordered by plate then odometer, the
// ordering the consumption calculation depends on.
func (r *PGRepository) FuelLogsForAverages(ctx context.Context) ([]FuelLog, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+fuelLogColumns+` FROM fuel_logs ORDER BY plate, km`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []FuelLog
	for rows.Next() {
		log, err := scanFuelLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// CreateFuelLog inserts a fill-up entry.
func (r *PGRepository) CreateFuelLog(ctx context.Context, log FuelLog) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO fuel_logs (date, plate, km, fuel, litres, cost_per_litre,
gross_cost, discount, net_cost, station, driver, cost_center, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
		log.Date, log.Plate, log.KM, log.Fuel, log.Litres, log.CostPerLitre,
		log.GrossCost, log.Discount, log.NetCost, log.Station, log.Driver, log.CostCenter, log.Notes).Scan(&id)
	return id, err
}

// UpdateFuelLog rewrites a fill-up entry.
func (r *PGRepository) UpdateFuelLog(ctx context.Context, log FuelLog) error {
	tag, err := r.pool.Exec(ctx, `UPDATE fuel_logs SET date=$1, plate=$2, km=$3, fuel=$4, litres=$5,
cost_per_litre=$6, gross_cost=$7, discount=$8, net_cost=$9, station=$10, driver=$11, cost_center=$12, notes=$13
WHERE id=$14`,
		log.Date, log.Plate, log.KM, log.Fuel, log.Litres, log.CostPerLitre,
		log.GrossCost, log.Discount, log.NetCost, log.Station, log.Driver, log.CostCenter, log.Notes, log.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFuelLog removes a fill-up entry.
func (r *PGRepository) DeleteFuelLog(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "fuel_logs", id)
}

// ListFuelPrices returns all reference prices ordered by fuel.
func (r *PGRepository) ListFuelPrices(ctx context.Context) ([]FuelPrice, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, fuel, price FROM fuel_prices ORDER BY fuel`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var prices []FuelPrice
	for rows.Next() {
		var p FuelPrice
		if err := rows.Scan(&p.ID, &p.Fuel, &p.Price); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// CreateFuelPrice inserts a reference price; the fuel name is unique.
func (r *PGRepository) CreateFuelPrice(ctx context.Context, price FuelPrice) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO fuel_prices (fuel, price) VALUES ($1, $2) RETURNING id`,
		price.Fuel, price.Price).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// UpdateFuelPrice adjusts the price of an existing fuel.
func (r *PGRepository) UpdateFuelPrice(ctx context.Context, fuel string, price float64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE fuel_prices SET price=$1 WHERE fuel=$2`, price, fuel)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMaintenance returns tickets, optionally filtered by status.
func (r *PGRepository) ListMaintenance(ctx context.Context, status string) ([]Maintenance, error) {
	query := `SELECT id, date, plate, type, description, cost, status FROM maintenance`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []Maintenance
	for rows.Next() {
		var m Maintenance
		if err := rows.Scan(&m.ID, &m.Date, &m.Plate, &m.Type, &m.Description, &m.Cost, &m.Status); err != nil {
			return nil, err
		}
		tickets = append(tickets, m)
	}
	return tickets, rows.Err()
}

// CreateMaintenance inserts a ticket.
func (r *PGRepository) CreateMaintenance(ctx context.Context, m Maintenance) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO maintenance (date, plate, type, description, cost, status)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		m.Date, m.Plate, m.Type, m.Description, m.Cost, m.Status).Scan(&id)
	return id, err
}

// UpdateMaintenance rewrites a ticket.
func (r *PGRepository) UpdateMaintenance(ctx context.Context, m Maintenance) error {
	tag, err := r.pool.Exec(ctx, `UPDATE maintenance SET date=$1, plate=$2, type=$3, description=$4,
cost=$5, status=$6 WHERE id=$7`, m.Date, m.Plate, m.Type, m.Description, m.Cost, m.Status, m.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMaintenance removes a ticket.
func (r *PGRepository) DeleteMaintenance(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "maintenance", id)
}

// MaintenanceStats aggregates ticket counts and total cost.
func (r *PGRepository) MaintenanceStats(ctx context.Context) (MaintenanceStats, error) {
	var stats MaintenanceStats
	err := r.pool.QueryRow(ctx, `SELECT
COUNT(*) FILTER (WHERE status = $1),
COUNT(*) FILTER (WHERE status = $2),
COALESCE(SUM(cost), 0) FROM maintenance`, MaintenanceOpen, MaintenanceFinished).
		Scan(&stats.Open, &stats.Finished, &stats.TotalCost)
	return stats, err
}

const oilChangeColumns = `id, unit, oil_type, changed_at, km, hours, next_km, next_hours`

// ListOilChanges returns all oil change records ordered by unit.
func (r *PGRepository) ListOilChanges(ctx context.Context) ([]OilChange, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+oilChangeColumns+` FROM oil_changes ORDER BY unit, oil_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var changes []OilChange
	for rows.Next() {
		oc, err := scanOilChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, oc)
	}
	return changes, rows.Err()
}

// GetOilChange fetches the record for a (unit, oil type) pair.
func (r *PGRepository) GetOilChange(ctx context.Context, unit, oilType string) (OilChange, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+oilChangeColumns+` FROM oil_changes WHERE unit=$1 AND oil_type=$2`, unit, oilType)
	oc, err := scanOilChange(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OilChange{}, ErrNotFound
		}
		return OilChange{}, err
	}
	return oc, nil
}

// UpsertOilChange inserts or replaces the record for the (unit, oil type) key.
func (r *PGRepository) UpsertOilChange(ctx context.Context, oc OilChange) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO oil_changes (unit, oil_type, changed_at, km, hours, next_km, next_hours)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (unit, oil_type) DO UPDATE SET changed_at=$3, km=$4, hours=$5, next_km=$6, next_hours=$7`,
		oc.Unit, oc.OilType, oc.ChangedAt, oc.KM, oc.Hours, oc.NextKM, oc.NextHours)
	return err
}

// DeleteOilChange removes the record for a (unit, oil type) pair.
func (r *PGRepository) DeleteOilChange(ctx context.Context, unit, oilType string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM oil_changes WHERE unit=$1 AND oil_type=$2`, unit, oilType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTolls returns toll charges, optionally bounded by ISO dates.
func (r *PGRepository) ListTolls(ctx context.Context, from, to string) ([]Toll, error) {
	query := `SELECT id, date, plate, value, location FROM tolls WHERE 1=1`
	args := []any{}
	argNum := 0
	if from != "" {
		argNum++
		query += ` AND date >= $` + strconv.Itoa(argNum)
		args = append(args, from)
	}
	if to != "" {
		argNum++
		query += ` AND date <= $` + strconv.Itoa(argNum)
		args = append(args, to)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tolls []Toll
	for rows.Next() {
		var toll Toll
		if err := rows.Scan(&toll.ID, &toll.Date, &toll.Plate, &toll.Value, &toll.Location); err != nil {
			return nil, err
		}
		tolls = append(tolls, toll)
	}
	return tolls, rows.Err()
}

// CreateToll inserts a toll charge.
func (r *PGRepository) CreateToll(ctx context.Context, toll Toll) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO tolls (date, plate, value, location)
VALUES ($1, $2, $3, $4) RETURNING id`, toll.Date, toll.Plate, toll.Value, toll.Location).Scan(&id)
	return id, err
}

// UpdateToll rewrites a toll charge.
func (r *PGRepository) UpdateToll(ctx context.Context, toll Toll) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tolls SET date=$1, plate=$2, value=$3, location=$4 WHERE id=$5`,
		toll.Date, toll.Plate, toll.Value, toll.Location, toll.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteToll removes a toll charge.
func (r *PGRepository) DeleteToll(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "tolls", id)
}

// ListChecklists returns inspection records, optionally for one unit.
func (r *PGRepository) ListChecklists(ctx context.Context, unit string) ([]Checklist, error) {
	query := `SELECT id, date, unit, vehicle_type, reading, status, notes FROM checklists`
	args := []any{}
	if unit != "" {
		query += ` WHERE unit = $1`
		args = append(args, unit)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var checklists []Checklist
	for rows.Next() {
		var c Checklist
		if err := rows.Scan(&c.ID, &c.Date, &c.Unit, &c.VehicleType, &c.Reading, &c.Status, &c.Notes); err != nil {
			return nil, err
		}
		checklists = append(checklists, c)
	}
	return checklists, rows.Err()
}

// CreateChecklist inserts an inspection record.
func (r *PGRepository) CreateChecklist(ctx context.Context, c Checklist) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO checklists (date, unit, vehicle_type, reading, status, notes)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.Date, c.Unit, c.VehicleType, c.Reading, c.Status, c.Notes).Scan(&id)
	return id, err
}

// UpdateChecklist rewrites an inspection record.
func (r *PGRepository) UpdateChecklist(ctx context.Context, c Checklist) error {
	tag, err := r.pool.Exec(ctx, `UPDATE checklists SET date=$1, unit=$2, vehicle_type=$3, reading=$4,
status=$5, notes=$6 WHERE id=$7`, c.Date, c.Unit, c.VehicleType, c.Reading, c.Status, c.Notes, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChecklist removes an inspection record.
func (r *PGRepository) DeleteChecklist(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "checklists", id)
}

// LatestReading returns the most recent checklist odometer/hour-meter reading
// for a unit, zero when none exists.
func (r *PGRepository) LatestReading(ctx context.Context, unit string) (int64, error) {
	var reading int64
	err := r.pool.QueryRow(ctx, `SELECT reading FROM checklists WHERE unit=$1 ORDER BY date DESC, id DESC LIMIT 1`, unit).Scan(&reading)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return reading, nil
}

func (r *PGRepository) deleteByID(ctx context.Context, table string, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFuelLog(row pgx.Row) (FuelLog, error) {
	var log FuelLog
	err := row.Scan(&log.ID, &log.Date, &log.Plate, &log.KM, &log.Fuel, &log.Litres, &log.CostPerLitre,
		&log.GrossCost, &log.Discount, &log.NetCost, &log.Station, &log.Driver, &log.CostCenter, &log.Notes)
	return log, err
}

func scanOilChange(row pgx.Row) (OilChange, error) {
	var oc OilChange
	err := row.Scan(&oc.ID, &oc.Unit, &oc.OilType, &oc.ChangedAt, &oc.KM, &oc.Hours, &oc.NextKM, &oc.NextHours)
	return oc, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
