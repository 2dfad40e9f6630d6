package handlers

import (
	"context"
)

// Vehicle is one fleet record as read by the fleet monitor.
type Vehicle struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Driver         string   `json:"driver"`
	Status         string   `json:"status"`
	FuelLevel      int      `json:"fuel_level"`
	LastService    string   `json:"last_service"`
	NextServiceDue string   `json:"next_service_due"`
	Issues         []string `json:"issues,omitempty"`
}

// FleetSource provides vehicle records to the fleet monitor handler.
type FleetSource interface {
	Vehicles(ctx context.Context) ([]Vehicle, error)
}

type staticFleet struct {
	vehicles []Vehicle
}

func (s *staticFleet) Vehicles(ctx context.Context) ([]Vehicle, error) {
	out := make([]Vehicle, len(s.vehicles))
	copy(out, s.vehicles)
	return out, nil
}

// SimulatedFleet returns a deterministic fleet dataset for offline mode.
func SimulatedFleet() FleetSource {
	return &staticFleet{
		vehicles: []Vehicle{
			{
				ID: "VEH-100", Type: "van", Driver: "Driver 1", Status: "active",
				FuelLevel: 74, LastService: "2026-07-11", NextServiceDue: "2026-10-11",
			},
			{
				ID: "VEH-101", Type: "truck", Driver: "Driver 2", Status: "maintenance",
				FuelLevel: 32, LastService: "2026-05-02", NextServiceDue: "2026-08-02",
				Issues: []string{"Engine check light on", "Brake pads worn"},
			},
			{
				ID: "VEH-102", Type: "delivery car", Driver: "Driver 3", Status: "loading",
				FuelLevel: 91, LastService: "2026-08-01", NextServiceDue: "2026-11-01",
			},
			{
				ID: "VEH-103", Type: "van", Driver: "Driver 4", Status: "returning",
				FuelLevel: 48, LastService: "2026-06-19", NextServiceDue: "2026-09-19",
			},
			{
				ID: "VEH-104", Type: "truck", Driver: "Driver 5", Status: "active",
				FuelLevel: 66, LastService: "2026-07-28", NextServiceDue: "2026-08-25",
				Issues: []string{"Tire pressure sensor fault"},
			},
		},
	}
}
