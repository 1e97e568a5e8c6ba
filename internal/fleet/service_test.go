package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryFleetRepo struct {
	fuelLogs    []FuelLog
	fuelPrices  map[string]FuelPrice
	maintenance map[int64]Maintenance
	oilChanges  map[string]OilChange
	tolls       map[int64]Toll
	checklists  []Checklist
	nextID      int64
}

func newMemoryFleetRepo() *memoryFleetRepo {
	return &memoryFleetRepo{
		fuelPrices:  map[string]FuelPrice{},
		maintenance: map[int64]Maintenance{},
		oilChanges:  map[string]OilChange{},
		tolls:       map[int64]Toll{},
	}
}

func oilKey(unit, oilType string) string { return unit + "|" + oilType }

func (m *memoryFleetRepo) ListFuelLogs(_ context.Context, _ FuelLogFilters) ([]FuelLog, error) {
	return append([]FuelLog(nil), m.fuelLogs...), nil
}

func (m *memoryFleetRepo) FuelLogsForAverages(_ context.Context) ([]FuelLog, error) {
	sorted := append([]FuelLog(nil), m.fuelLogs...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Plate < sorted[i].Plate ||
				(sorted[j].Plate == sorted[i].Plate && sorted[j].KM < sorted[i].KM) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	return sorted, nil
}

func (m *memoryFleetRepo) CreateFuelLog(_ context.Context, log FuelLog) (int64, error) {
	m.nextID++
	log.ID = m.nextID
	m.fuelLogs = append(m.fuelLogs, log)
	return log.ID, nil
}

func (m *memoryFleetRepo) UpdateFuelLog(_ context.Context, log FuelLog) error {
	for i := range m.fuelLogs {
		if m.fuelLogs[i].ID == log.ID {
			m.fuelLogs[i] = log
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryFleetRepo) DeleteFuelLog(_ context.Context, id int64) error {
	for i := range m.fuelLogs {
		if m.fuelLogs[i].ID == id {
			m.fuelLogs = append(m.fuelLogs[:i], m.fuelLogs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryFleetRepo) ListFuelPrices(_ context.Context) ([]FuelPrice, error) {
	var out []FuelPrice
	for _, p := range m.fuelPrices {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryFleetRepo) CreateFuelPrice(_ context.Context, price FuelPrice) (int64, error) {
	if _, ok := m.fuelPrices[price.Fuel]; ok {
		return 0, ErrDuplicate
	}
	m.nextID++
	price.ID = m.nextID
	m.fuelPrices[price.Fuel] = price
	return price.ID, nil
}

func (m *memoryFleetRepo) UpdateFuelPrice(_ context.Context, fuel string, value float64) error {
	p, ok := m.fuelPrices[fuel]
	if !ok {
		return ErrNotFound
	}
	p.Price = value
	m.fuelPrices[fuel] = p
	return nil
}

func (m *memoryFleetRepo) ListMaintenance(_ context.Context, status string) ([]Maintenance, error) {
	var out []Maintenance
	for _, t := range m.maintenance {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryFleetRepo) CreateMaintenance(_ context.Context, t Maintenance) (int64, error) {
	m.nextID++
	t.ID = m.nextID
	m.maintenance[t.ID] = t
	return t.ID, nil
}

func (m *memoryFleetRepo) UpdateMaintenance(_ context.Context, t Maintenance) error {
	if _, ok := m.maintenance[t.ID]; !ok {
		return ErrNotFound
	}
	m.maintenance[t.ID] = t
	return nil
}

func (m *memoryFleetRepo) DeleteMaintenance(_ context.Context, id int64) error {
	if _, ok := m.maintenance[id]; !ok {
		return ErrNotFound
	}
	delete(m.maintenance, id)
	return nil
}

func (m *memoryFleetRepo) MaintenanceStats(_ context.Context) (MaintenanceStats, error) {
	var stats MaintenanceStats
	for _, t := range m.maintenance {
		switch t.Status {
		case MaintenanceOpen:
			stats.Open++
		case MaintenanceFinished:
			stats.Finished++
		}
		stats.TotalCost += t.Cost
	}
	return stats, nil
}

func (m *memoryFleetRepo) ListOilChanges(_ context.Context) ([]OilChange, error) {
	var out []OilChange
	for _, oc := range m.oilChanges {
		out = append(out, oc)
	}
	return out, nil
}

func (m *memoryFleetRepo) GetOilChange(_ context.Context, unit, oilType string) (OilChange, error) {
	oc, ok := m.oilChanges[oilKey(unit, oilType)]
	if !ok {
		return OilChange{}, ErrNotFound
	}
	return oc, nil
}

func (m *memoryFleetRepo) UpsertOilChange(_ context.Context, oc OilChange) error {
	key := oilKey(oc.Unit, oc.OilType)
	if existing, ok := m.oilChanges[key]; ok {
		oc.ID = existing.ID
	} else {
		m.nextID++
		oc.ID = m.nextID
	}
	m.oilChanges[key] = oc
	return nil
}

func (m *memoryFleetRepo) DeleteOilChange(_ context.Context, unit, oilType string) error {
	key := oilKey(unit, oilType)
	if _, ok := m.oilChanges[key]; !ok {
		return ErrNotFound
	}
	delete(m.oilChanges, key)
	return nil
}

func (m *memoryFleetRepo) ListTolls(_ context.Context, _, _ string) ([]Toll, error) {
	var out []Toll
	for _, t := range m.tolls {
		out = append(out, t)
	}
	return out, nil
}

func (m *memoryFleetRepo) CreateToll(_ context.Context, toll Toll) (int64, error) {
	m.nextID++
	toll.ID = m.nextID
	m.tolls[toll.ID] = toll
	return toll.ID, nil
}

func (m *memoryFleetRepo) UpdateToll(_ context.Context, toll Toll) error {
	if _, ok := m.tolls[toll.ID]; !ok {
		return ErrNotFound
	}
	m.tolls[toll.ID] = toll
	return nil
}

func (m *memoryFleetRepo) DeleteToll(_ context.Context, id int64) error {
	if _, ok := m.tolls[id]; !ok {
		return ErrNotFound
	}
	delete(m.tolls, id)
	return nil
}

func (m *memoryFleetRepo) ListChecklists(_ context.Context, unit string) ([]Checklist, error) {
	var out []Checklist
	for _, c := range m.checklists {
		if unit == "" || c.Unit == unit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryFleetRepo) CreateChecklist(_ context.Context, c Checklist) (int64, error) {
	m.nextID++
	c.ID = m.nextID
	m.checklists = append(m.checklists, c)
	return c.ID, nil
}

func (m *memoryFleetRepo) UpdateChecklist(_ context.Context, c Checklist) error {
	for i := range m.checklists {
		if m.checklists[i].ID == c.ID {
			m.checklists[i] = c
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryFleetRepo) DeleteChecklist(_ context.Context, id int64) error {
	for i := range m.checklists {
		if m.checklists[i].ID == id {
			m.checklists = append(m.checklists[:i], m.checklists[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryFleetRepo) LatestReading(_ context.Context, unit string) (int64, error) {
	var reading int64
	var latest time.Time
	for _, c := range m.checklists {
		if c.Unit == unit && !c.Date.Before(latest) {
			latest = c.Date
			reading = c.Reading
		}
	}
	return reading, nil
}

var _ Repository = (*memoryFleetRepo)(nil)

func addFuelLog(t *testing.T, svc *Service, plate string, km int64, litres float64) {
	t.Helper()
	_, err := svc.CreateFuelLog(context.Background(), FuelLog{
		Plate:  plate,
		KM:     km,
		Fuel:   "Diesel S10",
		Litres: litres,
	})
	require.NoError(t, err)
}

func TestConsumptionAverages(t *testing.T) {
	repo := newMemoryFleetRepo()
	svc := NewService(repo)

	// ABC1234: 300 km / 100 l = 3.0, then 350 km / 100 l = 3.5 -> mean 3.25
	addFuelLog(t, svc, "ABC1234", 10000, 50)
	addFuelLog(t, svc, "ABC1234", 10300, 100)
	addFuelLog(t, svc, "ABC1234", 10650, 100)
	// single fill-up yields no pair, so no average
	addFuelLog(t, svc, "XYZ9876", 5000, 40)

	averages, err := svc.ConsumptionAverages(context.Background())
	require.NoError(t, err)
	require.Len(t, averages, 1)
	require.Equal(t, "ABC1234", averages[0].Plate)
	require.Equal(t, 3.25, averages[0].KmPerLitre)
}

func TestConsumptionAveragesSkipsNonPositiveDeltas(t *testing.T) {
	repo := newMemoryFleetRepo()
	svc := NewService(repo)

	addFuelLog(t, svc, "ABC1234", 10000, 50)
	addFuelLog(t, svc, "ABC1234", 10000, 50) // odometer unchanged
	addFuelLog(t, svc, "ABC1234", 10400, 100)

	averages, err := svc.ConsumptionAverages(context.Background())
	require.NoError(t, err)
	require.Len(t, averages, 1)
	require.Equal(t, 4.0, averages[0].KmPerLitre)
}

func TestCreateFuelLogValidation(t *testing.T) {
	svc := NewService(newMemoryFleetRepo())

	_, err := svc.CreateFuelLog(context.Background(), FuelLog{KM: 100, Litres: 10})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateFuelLog(context.Background(), FuelLog{Plate: "ABC1234", KM: 0, Litres: 10})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateFuelLogDefaultsNetCost(t *testing.T) {
	svc := NewService(newMemoryFleetRepo())

	log, err := svc.CreateFuelLog(context.Background(), FuelLog{
		Plate:     "ABC1234",
		KM:        1000,
		Litres:    50,
		GrossCost: 300,
		Discount:  20,
	})
	require.NoError(t, err)
	require.Equal(t, 280.0, log.NetCost)
}

func TestFuelPriceDuplicate(t *testing.T) {
	svc := NewService(newMemoryFleetRepo())

	_, err := svc.CreateFuelPrice(context.Background(), FuelPrice{Fuel: "Diesel S10", Price: 5.89})
	require.NoError(t, err)
	_, err = svc.CreateFuelPrice(context.Background(), FuelPrice{Fuel: "Diesel S10", Price: 6.10})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestMaintenanceReport(t *testing.T) {
	repo := newMemoryFleetRepo()
	svc := NewService(repo)

	_, err := svc.CreateMaintenance(context.Background(), Maintenance{Plate: "ABC1234", Type: "brakes", Cost: 1500})
	require.NoError(t, err)
	_, err = svc.CreateMaintenance(context.Background(), Maintenance{Plate: "XYZ9876", Type: "engine", Cost: 3200.50, Status: MaintenanceFinished})
	require.NoError(t, err)

	report, err := svc.MaintenanceReport(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), report.Open)
	require.Equal(t, int64(1), report.Finished)
	require.Equal(t, 4700.50, report.TotalCost)
	require.NotEmpty(t, report.TotalCostDisplay)
}

func TestOilChangeDueStatus(t *testing.T) {
	repo := newMemoryFleetRepo()
	svc := NewService(repo)

	require.NoError(t, svc.RecordOilChange(context.Background(), OilChange{
		Unit:      "TRUCK-01",
		OilType:   "engine",
		ChangedAt: time.Now().AddDate(0, -2, 0),
		KM:        80000,
		NextKM:    90000,
	}))

	cases := []struct {
		reading int64
		want    string
	}{
		{85000, OilOK},
		{89600, OilDueSoon},
		{90000, OilOverdue},
		{93000, OilOverdue},
	}
	for _, tc := range cases {
		repo.checklists = []Checklist{{ID: 1, Unit: "TRUCK-01", Date: time.Now(), Reading: tc.reading}}
		statuses, err := svc.ListOilChanges(context.Background())
		require.NoError(t, err)
		require.Len(t, statuses, 1)
		require.Equal(t, tc.want, statuses[0].DueStatus, "reading %d", tc.reading)
	}
}

func TestOilChangeHourMeterThreshold(t *testing.T) {
	repo := newMemoryFleetRepo()
	svc := NewService(repo)

	require.NoError(t, svc.RecordOilChange(context.Background(), OilChange{
		Unit:      "EXCAVATOR-02",
		OilType:   "hydraulic",
		ChangedAt: time.Now(),
		Hours:     1200,
		NextHours: 1500,
	}))
	repo.checklists = []Checklist{{ID: 1, Unit: "EXCAVATOR-02", Date: time.Now(), Reading: 1460}}

	statuses, err := svc.ListOilChanges(context.Background())
	require.NoError(t, err)
	require.Equal(t, OilDueSoon, statuses[0].DueStatus)
}

func TestRecordOilChangeUpsertsByKey(t *testing.T) {
	repo := newMemoryFleetRepo()
	svc := NewService(repo)

	first := OilChange{Unit: "TRUCK-01", OilType: "engine", ChangedAt: time.Now().AddDate(0, -6, 0), KM: 70000, NextKM: 80000}
	require.NoError(t, svc.RecordOilChange(context.Background(), first))
	second := first
	second.ChangedAt = time.Now()
	second.KM = 80500
	second.NextKM = 90500
	require.NoError(t, svc.RecordOilChange(context.Background(), second))

	stored, err := svc.GetOilChange(context.Background(), "TRUCK-01", "engine")
	require.NoError(t, err)
	require.Equal(t, int64(80500), stored.KM)
	require.Len(t, repo.oilChanges, 1)
}

func TestRecordOilChangeValidation(t *testing.T) {
	svc := NewService(newMemoryFleetRepo())

	err := svc.RecordOilChange(context.Background(), OilChange{OilType: "engine", ChangedAt: time.Now(), NextKM: 1})
	require.ErrorIs(t, err, ErrValidation)

	err = svc.RecordOilChange(context.Background(), OilChange{Unit: "TRUCK-01", OilType: "engine", ChangedAt: time.Now()})
	require.ErrorIs(t, err, ErrValidation)
}

func TestTollValidation(t *testing.T) {
	svc := NewService(newMemoryFleetRepo())

	_, err := svc.CreateToll(context.Background(), Toll{Plate: "ABC1234", Value: 0})
	require.ErrorIs(t, err, ErrValidation)

	toll, err := svc.CreateToll(context.Background(), Toll{Plate: "ABC1234", Value: 12.80, Location: "BR-101 km 45"})
	require.NoError(t, err)
	require.NotZero(t, toll.ID)
	require.False(t, toll.Date.IsZero())
}
