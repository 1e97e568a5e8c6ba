// Package fleet covers the operational ledgers around the vehicles: fuel,
// maintenance, oil changes, tolls and checklists.
package fleet

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/frotadesk/frotadesk/internal/shared"
)

// Thresholds for flagging an upcoming oil change.
const (
	oilKMMargin   = 500
	oilHourMargin = 50
)

// Service wraps fleet business rules over a Repository.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListFuelLogs returns the filtered fuel ledger.
func (s *Service) ListFuelLogs(ctx context.Context, filters FuelLogFilters) ([]FuelLog, error) {
	return s.repo.ListFuelLogs(ctx, filters)
}

// CreateFuelLog validates and records a fill-up. The net cost defaults to
// gross minus discount when absent.
func (s *Service) CreateFuelLog(ctx context.Context, log FuelLog) (FuelLog, error) {
	if err := validateFuelLog(&log); err != nil {
		return FuelLog{}, err
	}
	id, err := s.repo.CreateFuelLog(ctx, log)
	if err != nil {
		return FuelLog{}, err
	}
	log.ID = id
	return log, nil
}

// UpdateFuelLog validates and rewrites a fill-up.
func (s *Service) UpdateFuelLog(ctx context.Context, log FuelLog) error {
	if err := validateFuelLog(&log); err != nil {
		return err
	}
	return s.repo.UpdateFuelLog(ctx, log)
}

// DeleteFuelLog removes a fill-up.
func (s *Service) DeleteFuelLog(ctx context.Context, id int64) error {
	return s.repo.DeleteFuelLog(ctx, id)
}

// ConsumptionAverages computes each vehicle's mean km-per-litre over
// consecutive fill-ups. Pairs with a non-positive odometer delta are skipped.
func (s *Service) ConsumptionAverages(ctx context.Context) ([]VehicleAverage, error) {
	logs, err := s.repo.FuelLogsForAverages(ctx)
	if err != nil {
		return nil, err
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	var order []string
	var prev *FuelLog
	for i := range logs {
		log := logs[i]
		if prev != nil && prev.Plate == log.Plate {
			travelled := float64(log.KM - prev.KM)
			if travelled > 0 && log.Litres > 0 {
				if counts[log.Plate] == 0 {
					order = append(order, log.Plate)
				}
				sums[log.Plate] += travelled / log.Litres
				counts[log.Plate]++
			}
		}
		prev = &logs[i]
	}

	averages := make([]VehicleAverage, 0, len(order))
	for _, plate := range order {
		mean := sums[plate] / float64(counts[plate])
		averages = append(averages, VehicleAverage{
			Plate:      plate,
			KmPerLitre: math.Round(mean*100) / 100,
		})
	}
	return averages, nil
}

// ListFuelPrices returns the reference price table.
func (s *Service) ListFuelPrices(ctx context.Context) ([]FuelPrice, error) {
	return s.repo.ListFuelPrices(ctx)
}

// CreateFuelPrice registers a new fuel with its price.
func (s *Service) CreateFuelPrice(ctx context.Context, price FuelPrice) (FuelPrice, error) {
	price.Fuel = strings.TrimSpace(price.Fuel)
	if price.Fuel == "" {
		return FuelPrice{}, fmt.Errorf("%w: fuel is required", ErrValidation)
	}
	if price.Price <= 0 {
		return FuelPrice{}, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	id, err := s.repo.CreateFuelPrice(ctx, price)
	if err != nil {
		return FuelPrice{}, err
	}
	price.ID = id
	return price, nil
}

// UpdateFuelPrice adjusts the price for an existing fuel.
func (s *Service) UpdateFuelPrice(ctx context.Context, fuel string, price float64) error {
	if price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	return s.repo.UpdateFuelPrice(ctx, strings.TrimSpace(fuel), price)
}

// MaintenanceReport carries the ticket summary with a pt-BR formatted total.
type MaintenanceReport struct {
	MaintenanceStats
	TotalCostDisplay string `json:"total_cost_display"`
}

// ListMaintenance returns tickets, optionally filtered by status.
func (s *Service) ListMaintenance(ctx context.Context, status string) ([]Maintenance, error) {
	return s.repo.ListMaintenance(ctx, status)
}

// CreateMaintenance validates and records a ticket; status defaults to OPEN.
func (s *Service) CreateMaintenance(ctx context.Context, m Maintenance) (Maintenance, error) {
	if err := validateMaintenance(&m); err != nil {
		return Maintenance{}, err
	}
	id, err := s.repo.CreateMaintenance(ctx, m)
	if err != nil {
		return Maintenance{}, err
	}
	m.ID = id
	return m, nil
}

// UpdateMaintenance validates and rewrites a ticket.
func (s *Service) UpdateMaintenance(ctx context.Context, m Maintenance) error {
	if err := validateMaintenance(&m); err != nil {
		return err
	}
	return s.repo.UpdateMaintenance(ctx, m)
}

// DeleteMaintenance removes a ticket.
func (s *Service) DeleteMaintenance(ctx context.Context, id int64) error {
	return s.repo.DeleteMaintenance(ctx, id)
}

// MaintenanceReport aggregates ticket counts and cost.
func (s *Service) MaintenanceReport(ctx context.Context) (MaintenanceReport, error) {
	stats, err := s.repo.MaintenanceStats(ctx)
	if err != nil {
		return MaintenanceReport{}, err
	}
	return MaintenanceReport{
		MaintenanceStats: stats,
		TotalCostDisplay: shared.FormatBRL(stats.TotalCost),
	}, nil
}

// OilChangeStatus pairs an oil change with its due state against the unit's
// latest checklist reading.
type OilChangeStatus struct {
	OilChange
	CurrentReading int64  `json:"current_reading"`
	DueStatus      string `json:"due_status"`
}

// ListOilChanges returns every record with its computed due status.
func (s *Service) ListOilChanges(ctx context.Context) ([]OilChangeStatus, error) {
	changes, err := s.repo.ListOilChanges(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]OilChangeStatus, 0, len(changes))
	for _, oc := range changes {
		reading, err := s.repo.LatestReading(ctx, oc.Unit)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, OilChangeStatus{
			OilChange:      oc,
			CurrentReading: reading,
			DueStatus:      dueStatus(oc, reading),
		})
	}
	return statuses, nil
}

// GetOilChange fetches one record by its (unit, oil type) key.
func (s *Service) GetOilChange(ctx context.Context, unit, oilType string) (OilChange, error) {
	return s.repo.GetOilChange(ctx, strings.TrimSpace(unit), strings.TrimSpace(oilType))
}

// RecordOilChange inserts or replaces the record for the (unit, oil type) key.
func (s *Service) RecordOilChange(ctx context.Context, oc OilChange) error {
	oc.Unit = strings.TrimSpace(oc.Unit)
	oc.OilType = strings.TrimSpace(oc.OilType)
	if oc.Unit == "" || oc.OilType == "" {
		return fmt.Errorf("%w: unit and oil type are required", ErrValidation)
	}
	if oc.ChangedAt.IsZero() {
		return fmt.Errorf("%w: change date is required", ErrValidation)
	}
	if oc.NextKM == 0 && oc.NextHours == 0 {
		return fmt.Errorf("%w: a next-due km or hour threshold is required", ErrValidation)
	}
	return s.repo.UpsertOilChange(ctx, oc)
}

// DeleteOilChange removes the record for a (unit, oil type) key.
func (s *Service) DeleteOilChange(ctx context.Context, unit, oilType string) error {
	return s.repo.DeleteOilChange(ctx, strings.TrimSpace(unit), strings.TrimSpace(oilType))
}

// ListTolls returns toll charges, optionally bounded by ISO dates.
func (s *Service) ListTolls(ctx context.Context, from, to string) ([]Toll, error) {
	return s.repo.ListTolls(ctx, from, to)
}

// CreateToll validates and records a toll charge.
func (s *Service) CreateToll(ctx context.Context, toll Toll) (Toll, error) {
	if err := validateToll(&toll); err != nil {
		return Toll{}, err
	}
	id, err := s.repo.CreateToll(ctx, toll)
	if err != nil {
		return Toll{}, err
	}
	toll.ID = id
	return toll, nil
}

// UpdateToll validates and rewrites a toll charge.
func (s *Service) UpdateToll(ctx context.Context, toll Toll) error {
	if err := validateToll(&toll); err != nil {
		return err
	}
	return s.repo.UpdateToll(ctx, toll)
}

// DeleteToll removes a toll charge.
func (s *Service) DeleteToll(ctx context.Context, id int64) error {
	return s.repo.DeleteToll(ctx, id)
}

// ListChecklists returns inspection records, optionally for one unit.
func (s *Service) ListChecklists(ctx context.Context, unit string) ([]Checklist, error) {
	return s.repo.ListChecklists(ctx, strings.TrimSpace(unit))
}

// CreateChecklist validates and records an inspection.
func (s *Service) CreateChecklist(ctx context.Context, c Checklist) (Checklist, error) {
	if err := validateChecklist(&c); err != nil {
		return Checklist{}, err
	}
	id, err := s.repo.CreateChecklist(ctx, c)
	if err != nil {
		return Checklist{}, err
	}
	c.ID = id
	return c, nil
}

// UpdateChecklist validates and rewrites an inspection.
func (s *Service) UpdateChecklist(ctx context.Context, c Checklist) error {
	if err := validateChecklist(&c); err != nil {
		return err
	}
	return s.repo.UpdateChecklist(ctx, c)
}

// DeleteChecklist removes an inspection record.
func (s *Service) DeleteChecklist(ctx context.Context, id int64) error {
	return s.repo.DeleteChecklist(ctx, id)
}

// dueStatus compares the latest reading against the next-due threshold. Units
// tracked by hour meter use NextHours, the rest use NextKM.
func dueStatus(oc OilChange, reading int64) string {
	threshold := oc.NextKM
	margin := int64(oilKMMargin)
	if threshold == 0 {
		threshold = oc.NextHours
		margin = oilHourMargin
	}
	if threshold == 0 || reading == 0 {
		return OilOK
	}
	switch {
	case reading >= threshold:
		return OilOverdue
	case reading >= threshold-margin:
		return OilDueSoon
	default:
		return OilOK
	}
}

func validateFuelLog(log *FuelLog) error {
	log.Plate = strings.TrimSpace(log.Plate)
	if log.Plate == "" {
		return fmt.Errorf("%w: plate is required", ErrValidation)
	}
	if log.Date.IsZero() {
		log.Date = time.Now()
	}
	if log.KM <= 0 {
		return fmt.Errorf("%w: km must be positive", ErrValidation)
	}
	if log.Litres <= 0 {
		return fmt.Errorf("%w: litres must be positive", ErrValidation)
	}
	if log.NetCost == 0 {
		log.NetCost = log.GrossCost - log.Discount
	}
	return nil
}

func validateMaintenance(m *Maintenance) error {
	m.Plate = strings.TrimSpace(m.Plate)
	if m.Plate == "" {
		return fmt.Errorf("%w: plate is required", ErrValidation)
	}
	if strings.TrimSpace(m.Type) == "" {
		return fmt.Errorf("%w: maintenance type is required", ErrValidation)
	}
	if m.Date.IsZero() {
		m.Date = time.Now()
	}
	if m.Status == "" {
		m.Status = MaintenanceOpen
	}
	if m.Status != MaintenanceOpen && m.Status != MaintenanceFinished {
		return fmt.Errorf("%w: unknown maintenance status %q", ErrValidation, m.Status)
	}
	return nil
}

func validateToll(toll *Toll) error {
	toll.Plate = strings.TrimSpace(toll.Plate)
	if toll.Plate == "" {
		return fmt.Errorf("%w: plate is required", ErrValidation)
	}
	if toll.Value <= 0 {
		return fmt.Errorf("%w: value must be positive", ErrValidation)
	}
	if toll.Date.IsZero() {
		toll.Date = time.Now()
	}
	return nil
}

func validateChecklist(c *Checklist) error {
	c.Unit = strings.TrimSpace(c.Unit)
	if c.Unit == "" {
		return fmt.Errorf("%w: unit is required", ErrValidation)
	}
	if c.Reading <= 0 {
		return fmt.Errorf("%w: reading must be positive", ErrValidation)
	}
	if strings.TrimSpace(c.Status) == "" {
		return fmt.Errorf("%w: overall status is required", ErrValidation)
	}
	if c.Date.IsZero() {
		c.Date = time.Now()
	}
	return nil
}
