package fleet

import (
	"errors"
	"time"
)

// FuelLog is one fill-up entry in the fuel ledger.
type FuelLog struct {
	ID           int64     `json:"id"`
	Date         time.Time `json:"date"`
	Plate        string    `json:"plate"`
	KM           int64     `json:"km"`
	Fuel         string    `json:"fuel"`
	Litres       float64   `json:"litres"`
	CostPerLitre float64   `json:"cost_per_litre"`
	GrossCost    float64   `json:"gross_cost"`
	Discount     float64   `json:"discount"`
	NetCost      float64   `json:"net_cost"`
	Station      string    `json:"station"`
	Driver       string    `json:"driver"`
	CostCenter   string    `json:"cost_center"`
	Notes        string    `json:"notes"`
}

// FuelLogFilters narrows the fuel ledger report.
type FuelLogFilters struct {
	From       time.Time
	To         time.Time
	Plate      string
	Fuel       string
	Station    string
	CostCenter string
}

// VehicleAverage is a vehicle's mean fuel consumption in km per litre,
// computed over consecutive fill-ups.
type VehicleAverage struct {
	Plate      string  `json:"plate"`
	KmPerLitre float64 `json:"km_per_litre"`
}

// FuelPrice is the reference price per fuel type, unique per fuel.
type FuelPrice struct {
	ID    int64   `json:"id"`
	Fuel  string  `json:"fuel"`
	Price float64 `json:"price"`
}

// Maintenance lifecycle statuses.
const (
	MaintenanceOpen     = "OPEN"
	MaintenanceFinished = "FINISHED"
)

// Maintenance is a repair or service ticket.
type Maintenance struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Plate       string    `json:"plate"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Cost        float64   `json:"cost"`
	Status      string    `json:"status"`
}

// MaintenanceStats summarises the maintenance ledger.
type MaintenanceStats struct {
	Open      int64   `json:"open"`
	Finished  int64   `json:"finished"`
	TotalCost float64 `json:"total_cost"`
}

// Oil change due statuses.
const (
	OilOK      = "OK"
	OilDueSoon = "DUE_SOON"
	OilOverdue = "OVERDUE"
)

// OilChange tracks the last oil change per (unit, oil type) with the next-due
// odometer/hour-meter thresholds.
type OilChange struct {
	ID        int64     `json:"id"`
	Unit      string    `json:"unit"`
	OilType   string    `json:"oil_type"`
	ChangedAt time.Time `json:"changed_at"`
	KM        int64     `json:"km"`
	Hours     int64     `json:"hours"`
	NextKM    int64     `json:"next_km"`
	NextHours int64     `json:"next_hours"`
}

// Toll is one toll charge.
type Toll struct {
	ID       int64     `json:"id"`
	Date     time.Time `json:"date"`
	Plate    string    `json:"plate"`
	Value    float64   `json:"value"`
	Location string    `json:"location"`
}

// Checklist is a periodic equipment inspection record.
type Checklist struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Unit        string    `json:"unit"`
	VehicleType string    `json:"vehicle_type"`
	Reading     int64     `json:"reading"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes"`
}

var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("fleet: not found")
	// ErrDuplicate indicates a unique key collision.
	ErrDuplicate = errors.New("fleet: duplicate entry")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("fleet: invalid input")
)
