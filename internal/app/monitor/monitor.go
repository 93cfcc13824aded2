// Package monitor produces the live-monitoring snapshot served to the
// dashboard: simulated environmental, energy, security and system
// readings until real sensor feeds are wired in.
package monitor

import (
	"math/rand"
	"time"
)

type Environmental struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	AirQuality  float64 `json:"airQuality"`
	CO2         float64 `json:"co2"`
	Pressure    float64 `json:"pressure"`
	UVIndex     float64 `json:"uvIndex"`
}

type Energy struct {
	CurrentPower    float64 `json:"currentPower"`
	SolarGeneration float64 `json:"solarGeneration"`
	BatteryLevel    float64 `json:"batteryLevel"`
	GridStatus      string  `json:"gridStatus"`
}

type Security struct {
	MotionDetected bool   `json:"motionDetected"`
	CameraStatus   string `json:"cameraStatus"`
	DoorStatus     string `json:"doorStatus"`
	SystemArmed    bool   `json:"systemArmed"`
}

type System struct {
	InternetSpeed    float64 `json:"internetSpeed"`
	WifiStrength     float64 `json:"wifiStrength"`
	SystemLoad       float64 `json:"systemLoad"`
	ConnectedDevices int     `json:"connectedDevices"`
}

type Snapshot struct {
	Timestamp     time.Time     `json:"timestamp"`
	Environmental Environmental `json:"environmental"`
	Energy        Energy        `json:"energy"`
	Security      Security      `json:"security"`
	System        System        `json:"system"`
}

// Generator produces snapshots from an injectable clock and random
// source so readings are reproducible in tests.
type Generator struct {
	now  func() time.Time
	rand *rand.Rand
}

func NewGenerator() *Generator {
	return &Generator{
		now:  time.Now,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewGeneratorAt pins the clock and seed. Test constructor.
func NewGeneratorAt(now func() time.Time, seed int64) *Generator {
	return &Generator{now: now, rand: rand.New(rand.NewSource(seed))}
}

func (g *Generator) Snapshot() Snapshot {
	ts := g.now()

	// Solar drops off outside daylight hours.
	solar := 200 + g.rand.Float64()*500
	if hour := ts.Hour(); hour > 18 || hour < 6 {
		solar -= 400
	}

	gridStatus := "connected"
	if g.rand.Float64() > 0.95 {
		gridStatus = "backup"
	}

	return Snapshot{
		Timestamp: ts,
		Environmental: Environmental{
			Temperature: 20 + g.rand.Float64()*10,
			Humidity:    40 + g.rand.Float64()*30,
			AirQuality:  70 + g.rand.Float64()*30,
			CO2:         400 + g.rand.Float64()*200,
			Pressure:    1010 + g.rand.Float64()*10,
			UVIndex:     clamp(2+g.rand.Float64()*6, 0, 11),
		},
		Energy: Energy{
			CurrentPower:    2500 + g.rand.Float64()*800,
			SolarGeneration: max(solar, 0),
			BatteryLevel:    60 + g.rand.Float64()*30,
			GridStatus:      gridStatus,
		},
		Security: Security{
			MotionDetected: g.rand.Float64() > 0.9,
			CameraStatus:   "active",
			DoorStatus:     "locked",
			SystemArmed:    true,
		},
		System: System{
			InternetSpeed:    100 + g.rand.Float64()*50,
			WifiStrength:     85 + g.rand.Float64()*15,
			SystemLoad:       20 + g.rand.Float64()*40,
			ConnectedDevices: 45 + g.rand.Intn(10),
		},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
